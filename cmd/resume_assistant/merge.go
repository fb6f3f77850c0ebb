package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-assistant/internal/merge"
	"github.com/jonathan/resume-assistant/internal/observability"
	"github.com/jonathan/resume-assistant/internal/schemas"
	"github.com/jonathan/resume-assistant/internal/snapshot"
)

var mergeCommand = &cobra.Command{
	Use:   "merge",
	Short: "Merge every saved reply into one canonical résumé document",
	Long: `Reads every text_response_*.json and pdf_response_*.json snapshot in the directory,
oldest first, and writes a single merged_resume_<timestamp>.json.

In llm mode (the default) the snapshots are reconciled by the generation service and the
result is checked against the deterministic policy. In local mode the policy alone is used
and no external call is made. A response that is not a JSON object is kept as
failed_merge_<timestamp>.txt.`,
	Args: cobra.NoArgs,
	RunE: runMerge,
}

var (
	mergeDir     string
	mergeMode    string
	mergeTimeout time.Duration
	mergeDryRun  bool
)

func init() {
	mergeCommand.Flags().StringVarP(&mergeDir, "dir", "d", "", "Snapshot directory (default: snapshot_dir from config)")
	mergeCommand.Flags().StringVarP(&mergeMode, "mode", "m", "", "Merge mode: llm or local (default: merge.mode from config)")
	mergeCommand.Flags().DurationVar(&mergeTimeout, "timeout", 0, "Generation service timeout (default: merge.service_timeout_seconds)")
	mergeCommand.Flags().BoolVar(&mergeDryRun, "dry-run", false, "Build the request or baseline without sending or writing anything")

	rootCmd.AddCommand(mergeCommand)
}

func runMerge(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	dir := settings.SnapshotDir
	if cmd.Flags().Changed("dir") {
		dir = mergeDir
	}
	mode := settings.Merge.Mode
	if cmd.Flags().Changed("mode") {
		mode = mergeMode
	}
	timeout := settings.MergeTimeout()
	if cmd.Flags().Changed("timeout") {
		timeout = mergeTimeout
	}

	store, err := snapshot.NewDirStore(dir)
	if err != nil {
		return err
	}

	opts := merge.Options{
		Store:    store,
		Mode:     merge.Mode(mode),
		Timeout:  timeout,
		DryRun:   mergeDryRun,
		Logger:   logger,
		Validate: schemas.ValidateDocument,
	}

	parsedMode, err := merge.ParseMode(mode)
	if err != nil {
		return err
	}
	if parsedMode == merge.ModeLLM && !mergeDryRun {
		client, err := newGeminiClient(ctx, settings)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()
		opts.Client = client
	}
	if !mergeDryRun {
		if ledger := openLedger(ctx, settings); ledger != nil {
			defer ledger.Close()
			opts.Recorder = ledger
		}
	}

	engine, err := merge.NewEngine(opts)
	if err != nil {
		return err
	}
	res, err := engine.Run(ctx)

	printer := observability.NewPrinter(cmd.OutOrStdout())
	printer.PrintMergeResult(res)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if mergeDryRun && res.Request != nil {
		_, _ = fmt.Fprintf(out, "\n%s\n", res.Request.String())
	}
	if res.Document != nil && (res.Output != "" || mergeDryRun) {
		printer.PrintDocumentSummary(res.Document)
	}
	return nil
}
