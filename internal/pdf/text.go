package pdf

import (
	"context"
	"strconv"
	"strings"

	"github.com/gen2brain/go-fitz"

	"github.com/tricholab/tricho-pipeline/internal/domain"
)

// TextDumper produces the plain-text dump of a PDF using go-fitz, page texts
// concatenated in order.
type TextDumper struct{}

// NewTextDumper creates a text dumper.
func NewTextDumper() *TextDumper {
	return &TextDumper{}
}

// Text returns the concatenated text of all pages.
func (t *TextDumper) Text(ctx context.Context, pdfPath string) (string, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return "", domain.ExtractionError("open "+pdfPath, err)
	}
	defer doc.Close()

	var sb strings.Builder
	for n := 0; n < doc.NumPage(); n++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := doc.Text(n)
		if err != nil {
			return "", domain.ExtractionError("read text of page "+strconv.Itoa(n+1), err)
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
