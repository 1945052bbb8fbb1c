// Package extract implements the asset extraction stage: raw image dump,
// exact-dimension filtering, positional-key renaming, and metadata capture
// from the document's text dump.
package extract

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	"github.com/tricholab/tricho-pipeline/internal/config"
	"github.com/tricholab/tricho-pipeline/internal/domain"
	"github.com/tricholab/tricho-pipeline/internal/fsutil"
	"github.com/tricholab/tricho-pipeline/internal/observability"
)

const (
	// RawImageDirName holds the transient raw image dump inside the staging root.
	RawImageDirName = "temp_extracted_images"
	// FilteredDirName holds the size-filtered, semantically named images.
	FilteredDirName = "filtered_images"
	// MetadataFileName is the stage's JSON artifact.
	MetadataFileName = "report_metadata.json"

	// reportMarker starts the single line carrying subject name and dates.
	reportMarker = "HairMetrix のレポート"
)

var (
	// Trailing "-<page>-<index>" positional key on an extracted image name.
	positionKeyPattern = regexp.MustCompile(`-(\d+)-(\d+)$`)

	// Name up to the full-width comma, birth date, then the visit marker and
	// appointment date. Both dates are strictly YYYY/MM/DD.
	reportLinePattern = regexp.MustCompile(reportMarker + `\s+([\p{L}\p{N}_\s]+?)、(\d{4}/\d{2}/\d{2}).*診察：\s*(\d{4}/\d{2}/\d{2})`)
)

// Extractor runs the asset extraction stage against a staging root.
type Extractor struct {
	cfg    config.ExtractorConfig
	images domain.ImageDumper
	text   domain.TextDumper
	log    *observability.Logger
}

// New creates an extraction stage with the given collaborators.
func New(cfg config.ExtractorConfig, images domain.ImageDumper, text domain.TextDumper, log *observability.Logger) *Extractor {
	return &Extractor{cfg: cfg, images: images, text: text, log: log.WithStage("extract")}
}

// Extract dumps, filters, and renames the document's images and writes the
// metadata artifact. A collaborator failure is fatal; a metadata parse
// failure is not, it degrades to an error record inside the artifact.
func (e *Extractor) Extract(ctx context.Context, pdfPath, stagingRoot string) (*domain.ExtractionInfo, error) {
	rawDir := filepath.Join(stagingRoot, RawImageDirName)
	filteredDir := filepath.Join(stagingRoot, FilteredDirName)
	metadataPath := filepath.Join(stagingRoot, MetadataFileName)

	e.log.Info().Str("pdf", pdfPath).Msg("extraction started")

	if err := e.images.DumpImages(ctx, pdfPath, rawDir); err != nil {
		return nil, fmt.Errorf("dump images: %w", err)
	}

	filtered, err := e.filterBySize(rawDir, filteredDir)
	if err != nil {
		return nil, fmt.Errorf("filter images: %w", err)
	}

	renamed, err := e.renameFiltered(filteredDir)
	if err != nil {
		return nil, fmt.Errorf("rename images: %w", err)
	}

	text, err := e.text.Text(ctx, pdfPath)
	if err != nil {
		return nil, fmt.Errorf("text dump: %w", err)
	}

	metadata := ParseReportMetadata(text)
	if metadata.IsError() {
		e.log.Warn().Str("reason", metadata.ErrMessage).Msg("metadata extraction degraded to error record")
	}
	if err := fsutil.WriteJSON(metadataPath, metadata); err != nil {
		return nil, err
	}

	e.log.Info().Int("filtered", filtered).Int("renamed", renamed).Msg("extraction finished")

	return &domain.ExtractionInfo{
		RawImageDir:   rawDir,
		FilteredDir:   filteredDir,
		MetadataPath:  metadataPath,
		FilteredCount: filtered,
		RenamedCount:  renamed,
	}, nil
}

// filterBySize copies every PNG in rawDir whose exact pixel dimensions are
// in the allowed set into filteredDir. Files that cannot be decoded are
// logged and excluded, never fatal. Returns the number of files copied.
func (e *Extractor) filterBySize(rawDir, filteredDir string) (int, error) {
	if err := fsutil.EnsureDir(filteredDir); err != nil {
		return 0, domain.IOError("create filtered image directory", err)
	}

	entries, err := os.ReadDir(rawDir)
	if err != nil {
		return 0, domain.IOError("list raw image directory", err)
	}

	count := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".png") {
			continue
		}
		src := filepath.Join(rawDir, entry.Name())
		width, height, err := readDimensions(src)
		if err != nil {
			e.log.Warn().Str("file", entry.Name()).Err(err).Msg("unreadable image excluded from filter")
			continue
		}
		if !e.cfg.SizeAllowed(width, height) {
			continue
		}
		if err := copyFile(src, filepath.Join(filteredDir, entry.Name())); err != nil {
			return count, domain.IOError("copy "+entry.Name(), err)
		}
		count++
	}
	return count, nil
}

// renameFiltered renames each PNG carrying a trailing positional key that is
// present in the rename map to its semantic name. Files are processed in
// lexicographic order; a name collision picks the first free _2, _3, ...
// suffix. A renamed file is never re-examined. Returns the number of files
// actually renamed.
func (e *Extractor) renameFiltered(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, domain.IOError("list filtered image directory", err)
	}

	renamed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".png") {
			continue
		}
		ext := filepath.Ext(entry.Name())
		base := strings.TrimSuffix(entry.Name(), ext)

		m := positionKeyPattern.FindStringSubmatch(base)
		if m == nil {
			continue
		}
		semantic, ok := e.cfg.RenameMap[m[1]+"-"+m[2]]
		if !ok {
			continue
		}

		target := filepath.Join(dir, semantic+ext)
		if _, err := os.Stat(target); err == nil {
			for i := 2; ; i++ {
				candidate := filepath.Join(dir, fmt.Sprintf("%s_%d%s", semantic, i, ext))
				if _, err := os.Stat(candidate); os.IsNotExist(err) {
					target = candidate
					break
				}
			}
		}

		if err := os.Rename(filepath.Join(dir, entry.Name()), target); err != nil {
			return renamed, domain.IOError("rename "+entry.Name(), err)
		}
		e.log.Debug().Str("from", entry.Name()).Str("to", filepath.Base(target)).Msg("image renamed")
		renamed++
	}
	return renamed, nil
}

// ParseReportMetadata scans the text dump for the first line starting with
// the report marker and extracts subject name, birth date, and appointment
// date. Missing marker or a non-matching line yields an error record, with
// the raw line attached in the latter case.
func ParseReportMetadata(text string) domain.ReportMetadata {
	var line string
	for _, l := range strings.Split(text, "\n") {
		l = strings.TrimSpace(l)
		if strings.HasPrefix(l, reportMarker) {
			line = l
			break
		}
	}
	if line == "" {
		return domain.MetadataError(fmt.Sprintf("%q not found", reportMarker), "")
	}

	m := reportLinePattern.FindStringSubmatch(line)
	if m == nil {
		return domain.MetadataError("report line did not match expected format", line)
	}
	return domain.MetadataOK(strings.TrimSpace(m[1]), m[2], m[3])
}

func readDimensions(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
