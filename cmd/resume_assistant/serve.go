package main

import (
	"github.com/spf13/cobra"

	"github.com/jonathan/resume-assistant/internal/assistant"
	"github.com/jonathan/resume-assistant/internal/render"
	"github.com/jonathan/resume-assistant/internal/server"
	"github.com/jonathan/resume-assistant/internal/server/ratelimit"
	"github.com/jonathan/resume-assistant/internal/snapshot"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web app",
	Long: `Start an HTTP server with the upload page, the chat page and JSON endpoints for
chat, merge and render. Without an API key the server still starts; chat and llm-mode
merges answer 503.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default: server.port from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if cmd.Flags().Changed("port") {
		settings.Server.Port = servePort
	}

	store, err := snapshot.NewDirStore(settings.SnapshotDir)
	if err != nil {
		return err
	}

	opts := server.Options{
		Config:  settings,
		Store:   store,
		Journal: assistant.NewJournal(store, logger),
		Renderer: &render.Renderer{
			Printer:  render.NewChromePrinter(settings.ChromePath),
			MaxPages: settings.Render.MaxPages,
			Logger:   logger,
		},
		Limiter: ratelimit.NewLimiter(ratelimit.LoadConfig(getenv)),
		Logger:  logger,
	}

	if settings.APIKey != "" {
		client, err := newGeminiClient(ctx, settings)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()
		opts.Chat = client
		opts.Generator = client
	} else {
		logger.Warn("no API key configured; chat and llm merges are disabled")
	}

	if ledger := openLedger(ctx, settings); ledger != nil {
		defer ledger.Close()
		if err := ledger.Migrate(ctx); err != nil {
			logger.Warn("merge run ledger migrations failed", "error", err)
		}
		opts.Recorder = ledger
		opts.Runs = ledger
	}

	srv, err := server.New(opts)
	if err != nil {
		return err
	}
	return srv.Start(ctx)
}
