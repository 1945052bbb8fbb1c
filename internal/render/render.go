// Package render hands the staged report off to the external Node.js
// renderer and reports its result.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/tricholab/tricho-pipeline/internal/domain"
	"github.com/tricholab/tricho-pipeline/internal/observability"
)

// Options holds optional renderer arguments.
type Options struct {
	// OutPDF is the explicit output file name, passed as the renderer's
	// second positional argument. When set it is trusted as the result path.
	OutPDF string
	// HTMLTemplate overrides the report template via --html.
	HTMLTemplate string
}

// ExecRunner runs commands via os/exec.
type ExecRunner struct{}

// Run executes the command to completion, capturing both streams. A non-zero
// exit is reported through exitCode, not err.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) (int, string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), stdout.String(), stderr.String(), nil
		}
		return -1, stdout.String(), stderr.String(), err
	}
	return 0, stdout.String(), stderr.String(), nil
}

// NodeRenderer invokes the external render.js through a CommandRunner.
type NodeRenderer struct {
	runner  domain.CommandRunner
	nodeBin string
	log     *observability.Logger
}

// NewNodeRenderer creates a renderer handoff. nodeBin defaults to "node".
func NewNodeRenderer(runner domain.CommandRunner, nodeBin string, log *observability.Logger) *NodeRenderer {
	if nodeBin == "" {
		nodeBin = "node"
	}
	return &NodeRenderer{runner: runner, nodeBin: nodeBin, log: log.WithStage("render")}
}

// Render invokes render.js against the staging directory. Both the staging
// directory and the renderer entry point must exist. A non-zero exit is
// fatal and carries the captured streams.
//
// The returned path is authoritative only when opts.OutPDF was supplied;
// otherwise the renderer names the output itself and only its parent
// directory (the staging root's parent) is known.
func (r *NodeRenderer) Render(ctx context.Context, stagingDir, renderJS string, opts Options) (string, error) {
	info, err := os.Stat(stagingDir)
	if err != nil || !info.IsDir() {
		return "", domain.RenderError(fmt.Sprintf("staging directory not found: %s", stagingDir), err)
	}
	info, err = os.Stat(renderJS)
	if err != nil || info.IsDir() {
		return "", domain.RenderError(fmt.Sprintf("renderer entry point not found: %s", renderJS), err)
	}

	args := []string{renderJS, stagingDir}
	if opts.OutPDF != "" {
		args = append(args, opts.OutPDF)
	}
	if opts.HTMLTemplate != "" {
		args = append(args, "--html", opts.HTMLTemplate)
	}

	r.log.Info().Str("node", r.nodeBin).Strs("args", args).Msg("invoking renderer")

	exitCode, stdout, stderr, err := r.runner.Run(ctx, r.nodeBin, args...)
	if err != nil {
		return "", domain.RenderError("renderer could not be run", err)
	}
	if exitCode != 0 {
		return "", domain.RenderError(
			fmt.Sprintf("render.js failed (code %d)\nSTDOUT:\n%s\nSTDERR:\n%s", exitCode, stdout, stderr), nil)
	}

	if opts.OutPDF != "" {
		return opts.OutPDF, nil
	}

	abs, err := filepath.Abs(stagingDir)
	if err != nil {
		return filepath.Dir(stagingDir), nil
	}
	return filepath.Dir(abs), nil
}
