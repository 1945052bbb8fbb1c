// Package pipeline sequences the extraction, analysis, merge, and render
// stages against an exclusively owned staging root.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/tricholab/tricho-pipeline/internal/analysis"
	"github.com/tricholab/tricho-pipeline/internal/config"
	"github.com/tricholab/tricho-pipeline/internal/domain"
	"github.com/tricholab/tricho-pipeline/internal/extract"
	"github.com/tricholab/tricho-pipeline/internal/fsutil"
	"github.com/tricholab/tricho-pipeline/internal/history"
	"github.com/tricholab/tricho-pipeline/internal/merge"
	"github.com/tricholab/tricho-pipeline/internal/observability"
	"github.com/tricholab/tricho-pipeline/internal/pdf"
	"github.com/tricholab/tricho-pipeline/internal/render"
)

// LogFileName is the per-run trace inside the staging root.
const LogFileName = "pipeline.log"

// Orchestrator owns the staging directory for the duration of one run. Runs
// are strictly sequential: each stage completes all its file I/O before the
// next starts, and a stage failure aborts the remainder with nothing retried.
// Callers must serialize concurrent runs against the same staging root.
type Orchestrator struct {
	cfg    *config.Config
	images domain.ImageDumper
	text   domain.TextDumper
	runner domain.CommandRunner
}

// New creates an orchestrator with the production collaborators.
func New(cfg *config.Config) *Orchestrator {
	return &Orchestrator{
		cfg:    cfg,
		images: pdf.NewImageDumper(),
		text:   pdf.NewTextDumper(),
		runner: render.ExecRunner{},
	}
}

// NewWithCollaborators creates an orchestrator with explicit collaborators.
// Used by tests to avoid real PDF parsing and subprocesses.
func NewWithCollaborators(cfg *config.Config, images domain.ImageDumper, text domain.TextDumper, runner domain.CommandRunner) *Orchestrator {
	return &Orchestrator{cfg: cfg, images: images, text: text, runner: runner}
}

// Run executes extraction, analysis, merge, and cleanup. outRoot overrides
// the staging root; when empty, the configured root is used, and failing
// that a temp_YYYYMMDD directory beside the PDF.
func (o *Orchestrator) Run(ctx context.Context, jsonDir, pdfPath, outRoot string) (*domain.Summary, error) {
	if err := pdf.ValidateDirPath(jsonDir); err != nil {
		return nil, err
	}
	if err := pdf.ValidatePDFPath(pdfPath); err != nil {
		return nil, err
	}

	stagingRoot, err := o.resolveStagingRoot(pdfPath, outRoot)
	if err != nil {
		return nil, err
	}

	log, closeLog, err := o.openRunLogger(stagingRoot)
	if err != nil {
		return nil, err
	}
	defer closeLog()

	runID := uuid.New()
	log = log.With().Str("run_id", runID.String()).Logger()
	log.Info().Str("staging_root", stagingRoot).Str("pdf", pdfPath).Str("json_dir", jsonDir).Msg("run started")

	summary, err := o.runStages(ctx, log, jsonDir, pdfPath, stagingRoot)
	if err != nil {
		log.Error().Err(err).Msg("run aborted")
		return nil, err
	}

	o.recordRun(ctx, log, runID, summary)
	log.Info().Msg("run finished")
	return summary, nil
}

func (o *Orchestrator) runStages(ctx context.Context, log *observability.Logger, jsonDir, pdfPath, stagingRoot string) (*domain.Summary, error) {
	extractor := extract.New(o.cfg.Extractor, o.images, o.text, log)
	info, err := extractor.Extract(ctx, pdfPath, stagingRoot)
	if err != nil {
		return nil, err
	}

	analyzer := analysis.NewAnalyzer()
	results := analyzer.AnalyzeDirectory(jsonDir)
	analysisPath := filepath.Join(stagingRoot, merge.AnalysisFileName)
	if err := fsutil.WriteJSON(analysisPath, results); err != nil {
		return nil, err
	}

	finalPath, notes, err := merge.Merge(stagingRoot, info, analysisPath, o.cfg.Pipeline.RemoveRawImages, log)
	if err != nil {
		return nil, err
	}

	summary := &domain.Summary{
		TempRoot:          stagingRoot,
		FilteredImagesDir: info.FilteredDir,
		FinalReportJSON:   finalPath,
		ImageCounts: domain.ImageCounts{
			Filtered: info.FilteredCount,
			Renamed:  info.RenamedCount,
		},
		Notes: notes,
	}
	if err := merge.WriteSummary(stagingRoot, *summary); err != nil {
		return nil, err
	}
	return summary, nil
}

// RunAndRender executes Run and then hands the staging root off to the
// external renderer. Returns the summary and the renderer's output path.
func (o *Orchestrator) RunAndRender(ctx context.Context, jsonDir, pdfPath, outRoot, renderJS string, opts render.Options) (*domain.Summary, string, error) {
	summary, err := o.Run(ctx, jsonDir, pdfPath, outRoot)
	if err != nil {
		return nil, "", err
	}

	renderer := render.NewNodeRenderer(o.runner, o.cfg.Render.NodeBin, observability.NewLogger(observability.LogConfig{
		Level:       o.cfg.Observability.LogLevel,
		Format:      o.cfg.Observability.LogFormat,
		ServiceName: "tricho-pipeline",
	}))
	outPDF, err := renderer.Render(ctx, summary.TempRoot, renderJS, opts)
	if err != nil {
		return summary, "", err
	}
	return summary, outPDF, nil
}

// resolveStagingRoot picks the staging root and creates it: explicit
// override first, then the configured root, then temp_YYYYMMDD beside the
// source PDF.
func (o *Orchestrator) resolveStagingRoot(pdfPath, outRoot string) (string, error) {
	root := outRoot
	if root == "" {
		root = o.cfg.Pipeline.OutRoot
	}
	if root == "" {
		abs, err := filepath.Abs(pdfPath)
		if err != nil {
			return "", domain.IOError("resolve pdf path", err)
		}
		root = filepath.Join(filepath.Dir(abs), "temp_"+time.Now().Format("20060102"))
	}
	if err := fsutil.EnsureDir(root); err != nil {
		return "", domain.IOError("create staging root", err)
	}
	return root, nil
}

// openRunLogger builds the run-scoped logger writing to the console and the
// staging root's log file.
func (o *Orchestrator) openRunLogger(stagingRoot string) (*observability.Logger, func(), error) {
	logFile, err := os.OpenFile(filepath.Join(stagingRoot, LogFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, domain.IOError("open run log file", err)
	}
	log := observability.NewRunLogger(o.cfg.Observability.LogLevel, os.Stderr, logFile)
	return log, func() { logFile.Close() }, nil
}

// recordRun appends the run to the history ledger when one is configured.
// Ledger failures are warnings; the run itself already succeeded.
func (o *Orchestrator) recordRun(ctx context.Context, log *observability.Logger, runID uuid.UUID, summary *domain.Summary) {
	if o.cfg.Pipeline.HistoryDB == "" {
		return
	}

	store, err := history.Open(o.cfg.Pipeline.HistoryDB)
	if err != nil {
		log.Warn().Err(err).Msg("history ledger unavailable")
		return
	}
	defer store.Close()

	rec := history.RunRecord{
		ID:          runID,
		StagingRoot: summary.TempRoot,
		ReportPath:  summary.FinalReportJSON,
		Filtered:    summary.ImageCounts.Filtered,
		Renamed:     summary.ImageCounts.Renamed,
	}
	if err := store.Record(ctx, rec); err != nil {
		log.Warn().Err(err).Msg(fmt.Sprintf("could not record run in %s", o.cfg.Pipeline.HistoryDB))
	}
}
