package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/tricholab/tricho-pipeline/cmd/tricho-pipeline/ui"
	"github.com/tricholab/tricho-pipeline/internal/config"
	"github.com/tricholab/tricho-pipeline/internal/pipeline"
)

var (
	runOutRoot string
	runKeepRaw bool
)

var runCmd = &cobra.Command{
	Use:   "run <json_dir> <pdf_path>",
	Short: "Run the extraction and analysis pipeline against a staging directory",
	Args:  cobra.ExactArgs(2),
	RunE:  runRun,
}

func init() {
	runCmd.Flags().StringVar(&runOutRoot, "out-root", "", "staging root override (default: temp_YYYYMMDD beside the PDF)")
	runCmd.Flags().BoolVar(&runKeepRaw, "keep-raw", false, "keep the raw extracted image directory")
	rootCmd.AddCommand(runCmd)
}

func loadRunConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if runKeepRaw {
		cfg.Pipeline.RemoveRawImages = false
	}
	if verbose {
		cfg.Observability.LogLevel = "debug"
	}
	return cfg, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig()
	if err != nil {
		return err
	}

	ui.Init(noColor, verbose)

	orch := pipeline.New(cfg)
	summary, err := orch.Run(context.Background(), args[0], args[1], runOutRoot)
	if err != nil {
		return err
	}

	return ui.PrintJSON(cmd.OutOrStdout(), summary)
}
