// Package pdf wraps the document collaborators: pdfcpu for embedded image
// extraction and go-fitz for the plain-text dump.
package pdf

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/tricholab/tricho-pipeline/internal/domain"
	"github.com/tricholab/tricho-pipeline/internal/fsutil"
)

// pdfcpu writes extracted images as <base>_<page>_<resource>.<ext>.
var extractedNamePattern = regexp.MustCompile(`^(.+)_(\d+)_([^_]+)\.([A-Za-z0-9]+)$`)

// ImageDumper extracts every embedded image of a PDF via pdfcpu and
// normalizes the dumped filenames to the positional "<stem>-<page>-<index>"
// contract (both zero-indexed) consumed by the rename stage.
type ImageDumper struct {
	conf *model.Configuration
}

// NewImageDumper creates a dumper with pdfcpu defaults.
func NewImageDumper() *ImageDumper {
	return &ImageDumper{conf: model.NewDefaultConfiguration()}
}

// DumpImages populates outDir with one file per embedded image.
func (d *ImageDumper) DumpImages(ctx context.Context, pdfPath, outDir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fsutil.EnsureDir(outDir); err != nil {
		return domain.IOError("create raw image directory", err)
	}
	if err := api.ExtractImagesFile(pdfPath, outDir, nil, d.conf); err != nil {
		return domain.ExtractionError("extract images from "+pdfPath, err)
	}
	stem := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	return normalizeExtractedNames(outDir, stem)
}

type extractedImage struct {
	name string
	page int
}

// normalizeExtractedNames renames pdfcpu's <base>_<page>_<resource>.<ext>
// output to <stem>-<page>-<index>.<ext> with zero-indexed page numbers and
// a per-page index in lexicographic resource order.
func normalizeExtractedNames(dir, stem string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return domain.IOError("list raw image directory", err)
	}

	var images []extractedImage
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := extractedNamePattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		page, err := strconv.Atoi(m[2])
		if err != nil || page < 1 {
			continue
		}
		images = append(images, extractedImage{name: e.Name(), page: page})
	}

	sort.Slice(images, func(i, j int) bool {
		if images[i].page != images[j].page {
			return images[i].page < images[j].page
		}
		return images[i].name < images[j].name
	})

	index := 0
	lastPage := -1
	for _, img := range images {
		if img.page != lastPage {
			index = 0
			lastPage = img.page
		}
		ext := strings.ToLower(filepath.Ext(img.name))
		newName := stem + "-" + strconv.Itoa(img.page-1) + "-" + strconv.Itoa(index) + ext
		if err := os.Rename(filepath.Join(dir, img.name), filepath.Join(dir, newName)); err != nil {
			return domain.IOError("normalize extracted image name "+img.name, err)
		}
		index++
	}
	return nil
}
