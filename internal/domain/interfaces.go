package domain

import "context"

// ImageDumper dumps every embedded image of a document into outDir, one file
// per detected image, named with a trailing positional "-<page>-<index>" key.
type ImageDumper interface {
	DumpImages(ctx context.Context, pdfPath, outDir string) error
}

// TextDumper produces a plain-text dump of a document.
type TextDumper interface {
	Text(ctx context.Context, pdfPath string) (string, error)
}

// CommandRunner runs an external command to completion and reports its exit
// code and captured streams. err is non-nil only when the command could not
// be started or was interrupted; a non-zero exit is not an err.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (exitCode int, stdout, stderr string, err error)
}
