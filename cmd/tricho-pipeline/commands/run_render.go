package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/tricholab/tricho-pipeline/cmd/tricho-pipeline/ui"
	"github.com/tricholab/tricho-pipeline/internal/domain"
	"github.com/tricholab/tricho-pipeline/internal/pipeline"
	"github.com/tricholab/tricho-pipeline/internal/render"
)

var (
	renderJSPath   string
	renderOutPDF   string
	renderHTML     string
	renderNodeBin  string
)

var runRenderCmd = &cobra.Command{
	Use:   "run-render <json_dir> <pdf_path>",
	Short: "Run the pipeline, then render the staged report to PDF via Node.js",
	Args:  cobra.ExactArgs(2),
	RunE:  runRunRender,
}

func init() {
	runRenderCmd.Flags().StringVar(&runOutRoot, "out-root", "", "staging root override (default: temp_YYYYMMDD beside the PDF)")
	runRenderCmd.Flags().BoolVar(&runKeepRaw, "keep-raw", false, "keep the raw extracted image directory")
	runRenderCmd.Flags().StringVar(&renderJSPath, "render-js", "", "path to the Node render.js entry point (required)")
	runRenderCmd.Flags().StringVar(&renderOutPDF, "out-pdf", "", "output PDF name (optional)")
	runRenderCmd.Flags().StringVar(&renderHTML, "html", "", "override the report HTML template (optional)")
	runRenderCmd.Flags().StringVar(&renderNodeBin, "node-bin", "", `Node binary (default: "node")`)
	_ = runRenderCmd.MarkFlagRequired("render-js")
	rootCmd.AddCommand(runRenderCmd)
}

type runRenderOutput struct {
	domain.Summary
	PDFOut string `json:"pdf_out"`
}

func runRunRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig()
	if err != nil {
		return err
	}
	if renderNodeBin != "" {
		cfg.Render.NodeBin = renderNodeBin
	}

	ui.Init(noColor, verbose)

	orch := pipeline.New(cfg)

	spin := ui.NewSpinner("Running pipeline and rendering report...")
	spin.Start()
	summary, outPDF, err := orch.RunAndRender(context.Background(), args[0], args[1], runOutRoot, renderJSPath, render.Options{
		OutPDF:       renderOutPDF,
		HTMLTemplate: renderHTML,
	})
	spin.Stop()

	if err != nil {
		return err
	}

	ui.Success("Report rendered: %s", outPDF)
	return ui.PrintJSON(cmd.OutOrStdout(), runRenderOutput{Summary: *summary, PDFOut: outPDF})
}
