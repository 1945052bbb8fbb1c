package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tricholab/tricho-pipeline/cmd/tricho-pipeline/ui"
	"github.com/tricholab/tricho-pipeline/internal/selector"
)

var (
	newestDirsOnly  bool
	newestFilesOnly bool
)

var newestCmd = &cobra.Command{
	Use:   "newest <path>",
	Short: "Show the most recently modified entry under a directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runNewest,
}

var newestWithPDFCmd = &cobra.Command{
	Use:   "newest-with-pdf <path>",
	Short: "Show the newest entry under a directory and the newest PDF associated with it",
	Args:  cobra.ExactArgs(1),
	RunE:  runNewestWithPDF,
}

func init() {
	newestCmd.Flags().BoolVar(&newestDirsOnly, "dirs-only", false, "consider directories only")
	newestCmd.Flags().BoolVar(&newestFilesOnly, "files-only", false, "consider files only")
	newestCmd.MarkFlagsMutuallyExclusive("dirs-only", "files-only")
	rootCmd.AddCommand(newestCmd)
	rootCmd.AddCommand(newestWithPDFCmd)
}

func runNewest(cmd *cobra.Command, args []string) error {
	filter := selector.Any
	if newestDirsOnly {
		filter = selector.DirsOnly
	}
	if newestFilesOnly {
		filter = selector.FilesOnly
	}

	fmt.Fprintln(cmd.OutOrStdout(), selector.NewestEntry(args[0], filter))
	return nil
}

func runNewestWithPDF(cmd *cobra.Command, args []string) error {
	newest, pdfPath := selector.NewestEntryAndPDF(args[0])

	out := map[string]interface{}{"newest": nullable(newest), "pdf": nullable(pdfPath)}
	return ui.PrintJSON(cmd.OutOrStdout(), out)
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
