// Package ui provides console output helpers for the CLI.
package ui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
)

var (
	verbose bool

	successColor = color.New(color.FgGreen)
	infoColor    = color.New(color.FgCyan)
	errorColor   = color.New(color.FgRed)
)

// Init configures console output. Must be called before other helpers.
func Init(disableColor, verboseMode bool) {
	color.NoColor = disableColor || color.NoColor
	verbose = verboseMode
}

// Info prints an informational message to stderr.
func Info(format string, args ...interface{}) {
	infoColor.Fprintf(os.Stderr, format+"\n", args...)
}

// Success prints a success message to stderr.
func Success(format string, args ...interface{}) {
	successColor.Fprintf(os.Stderr, "✓ "+format+"\n", args...)
}

// Error prints an error message to stderr.
func Error(format string, args ...interface{}) {
	errorColor.Fprintf(os.Stderr, "✗ "+format+"\n", args...)
}

// Verbose prints only when verbose mode is on.
func Verbose(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}

// Spinner wraps a console spinner shown during long-running steps.
type Spinner struct {
	s *spinner.Spinner
}

// NewSpinner creates a spinner with the given message.
func NewSpinner(message string) *Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + message
	return &Spinner{s: s}
}

// Start begins the spinner animation.
func (sp *Spinner) Start() {
	sp.s.Start()
}

// Stop halts the spinner and clears the line.
func (sp *Spinner) Stop() {
	sp.s.Stop()
}

// PrintJSON writes v as indented JSON to w without escaping non-ASCII text.
func PrintJSON(w io.Writer, v interface{}) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}
