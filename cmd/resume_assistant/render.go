package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-assistant/internal/observability"
	"github.com/jonathan/resume-assistant/internal/render"
	"github.com/jonathan/resume-assistant/internal/snapshot"
)

var renderCommand = &cobra.Command{
	Use:   "render",
	Short: "Export a canonical résumé document as PDF or HTML",
	Long: `Fills an HTML template with a merged_resume_*.json document and prints it to PDF with
headless Chrome. Without --in the newest merged document in the snapshot directory is used.
An --out path ending in .html writes the HTML instead.`,
	Args: cobra.NoArgs,
	RunE: runRender,
}

var (
	renderIn       string
	renderTemplate string
	renderOut      string
)

func init() {
	renderCommand.Flags().StringVarP(&renderIn, "in", "i", "", "Canonical document (default: newest merged_resume_*.json)")
	renderCommand.Flags().StringVarP(&renderTemplate, "template", "t", "", "HTML template (default: template from config, else built-in)")
	renderCommand.Flags().StringVarP(&renderOut, "out", "o", "", "Output file (default: output from config)")

	rootCmd.AddCommand(renderCommand)
}

func runRender(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	in := renderIn
	if in == "" {
		store, err := snapshot.NewDirStore(settings.SnapshotDir)
		if err != nil {
			return err
		}
		name, err := snapshot.Latest(ctx, store, snapshot.MergedPrefix, snapshot.JSONExt)
		if err != nil {
			return fmt.Errorf("no merged résumé in %s, run merge first: %w", settings.SnapshotDir, err)
		}
		in = filepath.Join(settings.SnapshotDir, name)
	}
	tmpl := settings.Template
	if cmd.Flags().Changed("template") {
		tmpl = renderTemplate
	}
	out := settings.Output
	if cmd.Flags().Changed("out") {
		out = renderOut
	}

	data, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", in, err)
	}
	doc, err := snapshot.DecodePayload(data)
	if err != nil {
		return fmt.Errorf("%s: %w", in, err)
	}
	logger.Info("rendering resume", "input", in, "template", tmpl, "output", out)

	renderer := &render.Renderer{
		Printer:  render.NewChromePrinter(settings.ChromePath),
		MaxPages: settings.Render.MaxPages,
		Logger:   logger,
	}
	result, err := renderer.Export(ctx, doc, tmpl, out)
	if err != nil {
		return err
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintExport(result, settings.Render.MaxPages)
	return nil
}
