package render

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tricholab/tricho-pipeline/internal/observability"
)

type fakeRunner struct {
	exitCode int
	stdout   string
	stderr   string
	err      error

	gotName string
	gotArgs []string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) (int, string, string, error) {
	f.gotName = name
	f.gotArgs = args
	return f.exitCode, f.stdout, f.stderr, f.err
}

func renderFixture(t *testing.T) (string, string) {
	t.Helper()
	staging := t.TempDir()
	renderJS := filepath.Join(t.TempDir(), "render.js")
	require.NoError(t, os.WriteFile(renderJS, []byte("// renderer"), 0o644))
	return staging, renderJS
}

func TestRender_ArgumentOrder(t *testing.T) {
	staging, renderJS := renderFixture(t)
	runner := &fakeRunner{}
	r := NewNodeRenderer(runner, "/usr/bin/node", observability.Nop())

	_, err := r.Render(context.Background(), staging, renderJS, Options{
		OutPDF:       "/out/report.pdf",
		HTMLTemplate: "/tpl/report.html",
	})
	require.NoError(t, err)

	assert.Equal(t, "/usr/bin/node", runner.gotName)
	assert.Equal(t, []string{renderJS, staging, "/out/report.pdf", "--html", "/tpl/report.html"}, runner.gotArgs)
}

func TestRender_MinimalArgs(t *testing.T) {
	staging, renderJS := renderFixture(t)
	runner := &fakeRunner{}
	r := NewNodeRenderer(runner, "", observability.Nop())

	_, err := r.Render(context.Background(), staging, renderJS, Options{})
	require.NoError(t, err)

	assert.Equal(t, "node", runner.gotName, "empty node binary falls back to PATH lookup")
	assert.Equal(t, []string{renderJS, staging}, runner.gotArgs)
}

func TestRender_OutPDFIsAuthoritative(t *testing.T) {
	staging, renderJS := renderFixture(t)
	r := NewNodeRenderer(&fakeRunner{}, "node", observability.Nop())

	out, err := r.Render(context.Background(), staging, renderJS, Options{OutPDF: "/out/custom.pdf"})
	require.NoError(t, err)
	assert.Equal(t, "/out/custom.pdf", out)
}

func TestRender_DefaultOutputIsStagingParent(t *testing.T) {
	staging, renderJS := renderFixture(t)
	r := NewNodeRenderer(&fakeRunner{}, "node", observability.Nop())

	out, err := r.Render(context.Background(), staging, renderJS, Options{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Dir(staging), out)
}

func TestRender_NonZeroExitCarriesStreams(t *testing.T) {
	staging, renderJS := renderFixture(t)
	runner := &fakeRunner{exitCode: 2, stdout: "rendering page 1", stderr: "TypeError: boom"}
	r := NewNodeRenderer(runner, "node", observability.Nop())

	_, err := r.Render(context.Background(), staging, renderJS, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "code 2")
	assert.Contains(t, err.Error(), "rendering page 1")
	assert.Contains(t, err.Error(), "TypeError: boom")
}

func TestRender_MissingStagingDir(t *testing.T) {
	_, renderJS := renderFixture(t)
	runner := &fakeRunner{}
	r := NewNodeRenderer(runner, "node", observability.Nop())

	_, err := r.Render(context.Background(), filepath.Join(t.TempDir(), "missing"), renderJS, Options{})
	assert.Error(t, err)
	assert.Empty(t, runner.gotName, "runner must not be invoked when preconditions fail")
}

func TestRender_MissingRenderJS(t *testing.T) {
	staging, _ := renderFixture(t)
	runner := &fakeRunner{}
	r := NewNodeRenderer(runner, "node", observability.Nop())

	_, err := r.Render(context.Background(), staging, filepath.Join(t.TempDir(), "render.js"), Options{})
	assert.Error(t, err)
	assert.Empty(t, runner.gotName)
}

func TestRender_RunnerFailure(t *testing.T) {
	staging, renderJS := renderFixture(t)
	runner := &fakeRunner{exitCode: -1, err: os.ErrPermission}
	r := NewNodeRenderer(runner, "node", observability.Nop())

	_, err := r.Render(context.Background(), staging, renderJS, Options{})
	assert.Error(t, err)
}
