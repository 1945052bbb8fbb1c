// Package fsutil provides small filesystem helpers shared by pipeline stages.
package fsutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// EnsureDir creates the directory and any missing parents.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}

// WriteJSON marshals v with two-space indentation and writes it to path.
// Non-ASCII characters are written as-is, not escaped.
func WriteJSON(path string, v interface{}) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ReadJSON reads path and unmarshals it into v.
func ReadJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// TryRemove deletes a file or directory tree. A missing path is a no-op and
// removal failures are swallowed; intermediate cleanup must never abort a run.
func TryRemove(path string) {
	_ = os.RemoveAll(path)
}
