// Package merge combines the two stage artifacts into the final report and
// performs post-merge cleanup of intermediate state.
package merge

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tricholab/tricho-pipeline/internal/domain"
	"github.com/tricholab/tricho-pipeline/internal/fsutil"
	"github.com/tricholab/tricho-pipeline/internal/observability"
)

const (
	// FinalReportFileName is the merged report inside the staging root.
	FinalReportFileName = "tricho_data.json"
	// AnalysisFileName is the analysis stage's intermediate artifact.
	AnalysisFileName = "tricho_analysis.json"
	// SummaryJSONName and SummaryTextName record the run outcome.
	SummaryJSONName = "summary.json"
	SummaryTextName = "summary.txt"
)

// mergedReport embeds both stage artifacts verbatim; no re-encoding of the
// stage payloads happens on the way through.
type mergedReport struct {
	ReportMetadata json.RawMessage `json:"report_metadata"`
	TrichoAnalysis json.RawMessage `json:"tricho_analysis"`
}

// Merge writes the final report combining the metadata and analysis
// artifacts, then (only after that write succeeded) removes the raw image
// directory when removeRaw is set, plus the two intermediates. Deleting a
// path that no longer exists is a no-op. Returns the final report path and
// human-readable notes describing the cleanup actions taken.
func Merge(stagingRoot string, info *domain.ExtractionInfo, analysisPath string, removeRaw bool, log *observability.Logger) (string, []string, error) {
	log = log.WithStage("merge")

	metadata, err := os.ReadFile(info.MetadataPath)
	if err != nil {
		return "", nil, domain.IOError("read metadata artifact", err)
	}
	analysis, err := os.ReadFile(analysisPath)
	if err != nil {
		return "", nil, domain.IOError("read analysis artifact", err)
	}

	finalPath := filepath.Join(stagingRoot, FinalReportFileName)
	report := mergedReport{ReportMetadata: metadata, TrichoAnalysis: analysis}
	if err := fsutil.WriteJSON(finalPath, report); err != nil {
		return "", nil, err
	}
	log.Info().Str("report", finalPath).Msg("final report written")

	// Cleanup happens strictly after the merged report is on disk, so a
	// crash mid-cleanup never loses captured data.
	var notes []string
	if removeRaw {
		fsutil.TryRemove(info.RawImageDir)
		notes = append(notes, fmt.Sprintf("%s removed.", filepath.Base(info.RawImageDir)))
	} else {
		notes = append(notes, fmt.Sprintf("%s kept (cleanup disabled).", filepath.Base(info.RawImageDir)))
	}
	fsutil.TryRemove(info.MetadataPath)
	fsutil.TryRemove(analysisPath)
	notes = append(notes, fmt.Sprintf("%s and %s removed.", filepath.Base(info.MetadataPath), filepath.Base(analysisPath)))

	log.Info().Strs("notes", notes).Msg("cleanup finished")
	return finalPath, notes, nil
}

// WriteSummary writes the run summary in both structured and plain-text form.
func WriteSummary(stagingRoot string, s domain.Summary) error {
	if err := fsutil.WriteJSON(filepath.Join(stagingRoot, SummaryJSONName), s); err != nil {
		return err
	}

	var text string
	text += "=== Run Summary ===\n"
	text += fmt.Sprintf("Temp root: %s\n", s.TempRoot)
	text += fmt.Sprintf("Filtered images: %s\n", s.FilteredImagesDir)
	text += fmt.Sprintf("Tricho data: %s\n", s.FinalReportJSON)
	text += fmt.Sprintf("Images (filtered/renamed): %d/%d\n", s.ImageCounts.Filtered, s.ImageCounts.Renamed)
	for _, note := range s.Notes {
		text += note + "\n"
	}

	if err := os.WriteFile(filepath.Join(stagingRoot, SummaryTextName), []byte(text), 0o644); err != nil {
		return domain.IOError("write summary text", err)
	}
	return nil
}
