package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tricholab/tricho-pipeline/internal/domain"
)

// ValidatePDFPath validates that a path exists, is a regular file, and
// carries a .pdf extension.
func ValidatePDFPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return domain.ValidationError("file path cannot be empty", nil)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.ValidationError(fmt.Sprintf("file does not exist: %s", path), err)
		}
		return domain.ValidationError(fmt.Sprintf("cannot access file: %s", path), err)
	}

	if info.IsDir() {
		return domain.ValidationError(fmt.Sprintf("path is a directory, not a file: %s", path), nil)
	}

	if ext := strings.ToLower(filepath.Ext(path)); ext != ".pdf" {
		return domain.ValidationError(fmt.Sprintf("file is not a PDF (has extension %s)", ext), nil)
	}

	return nil
}

// ValidateDirPath validates that a path exists and is a directory.
func ValidateDirPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return domain.ValidationError("directory path cannot be empty", nil)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.ValidationError(fmt.Sprintf("directory does not exist: %s", path), err)
		}
		return domain.ValidationError(fmt.Sprintf("cannot access directory: %s", path), err)
	}

	if !info.IsDir() {
		return domain.ValidationError(fmt.Sprintf("path is not a directory: %s", path), nil)
	}

	return nil
}
