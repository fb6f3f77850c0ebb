package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/resume-assistant/internal/assistant"
	"github.com/jonathan/resume-assistant/internal/config"
	"github.com/jonathan/resume-assistant/internal/db"
	"github.com/jonathan/resume-assistant/internal/llm"
	"github.com/jonathan/resume-assistant/internal/merge"
	"github.com/jonathan/resume-assistant/internal/render"
	"github.com/jonathan/resume-assistant/internal/server/ratelimit"
	"github.com/jonathan/resume-assistant/internal/snapshot"
)

// ShutdownTimeout bounds graceful shutdown.
const ShutdownTimeout = 30 * time.Second

// RunLister lists recorded merge runs.
type RunLister interface {
	ListRuns(ctx context.Context, limit int) ([]db.MergeRun, error)
}

// Options wires the server to its collaborators. Config, Store and Journal are
// required; a nil Chat disables chat sessions, a nil Generator limits merges to
// local mode and a nil Runs disables the run listing.
type Options struct {
	Config    *config.Config
	Store     snapshot.Store
	Journal   *assistant.Journal
	Chat      llm.ChatClient
	Generator llm.Client
	Renderer  *render.Renderer
	Recorder  merge.Recorder
	Runs      RunLister
	Limiter   *ratelimit.Limiter
	Logger    *slog.Logger
	Now       func() time.Time

	// MaxSessions bounds live chat sessions; zero uses DefaultMaxSessions.
	MaxSessions int
}

// Server represents the HTTP server
type Server struct {
	opts       Options
	cfg        *config.Config
	logger     *slog.Logger
	limiter    *ratelimit.Limiter
	sessions   *sessionRegistry
	validate   *validator.Validate
	handler    http.Handler
	httpServer *http.Server

	mergeMu sync.Mutex
}

// New prepares the working folders and builds the router.
func New(opts Options) (*Server, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("snapshot store is required")
	}
	if opts.Journal == nil {
		return nil, fmt.Errorf("journal is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Renderer == nil {
		opts.Renderer = &render.Renderer{Logger: opts.Logger}
	}

	s := &Server{
		opts:     opts,
		cfg:      opts.Config,
		logger:   opts.Logger,
		limiter:  opts.Limiter,
		sessions: newSessionRegistry(opts.MaxSessions),
		validate: validator.New(),
	}
	s.validate.RegisterTagNameFunc(jsonFieldName)

	if err := s.prepareFolders(); err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /chat", s.handleChatPage)
	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("POST /chat/sessions", s.handleCreateSession)
	mux.HandleFunc("POST /chat/sessions/{id}/messages", s.handleSendMessage)
	mux.HandleFunc("POST /chat/sessions/{id}/stream", s.handleStreamMessage)
	mux.HandleFunc("POST /merge", s.handleMerge)
	mux.HandleFunc("GET /merge/runs", s.handleListRuns)
	mux.HandleFunc("POST /render", s.handleRender)
	mux.HandleFunc("GET /downloads/{name}", s.handleDownload)
	mux.HandleFunc("GET /health", s.handleHealth)

	s.handler = s.withRequestID(s.withLogging(s.withCORS(s.withRateLimit(mux))))
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,

		// chat replies and merges wait on the generation service
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// Handler returns the fully wrapped router.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves until ctx is cancelled or the process receives SIGINT or
// SIGTERM, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("server starting", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		s.logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	err := g.Wait()
	if s.limiter != nil {
		s.limiter.Stop()
	}
	s.logger.Info("server stopped")
	return err
}

// prepareFolders creates the upload, download and snapshot folders and, when
// configured, empties the upload and download folders. Snapshots are never
// cleared.
func (s *Server) prepareFolders() error {
	for _, dir := range []string{s.cfg.UploadDir, s.cfg.DownloadDir, s.cfg.SnapshotDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if !s.cfg.ClearOnStart() {
		return nil
	}
	for _, dir := range []string{s.cfg.UploadDir, s.cfg.DownloadDir} {
		if err := s.clearFolder(dir); err != nil {
			return err
		}
	}
	return nil
}

// clearFolder removes every entry in dir. Entries that cannot be removed are
// logged and skipped.
func (s *Server) clearFolder(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", dir, err)
	}
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if err := os.RemoveAll(path); err != nil {
			s.logger.Warn("failed to delete", "path", path, "error", err)
		}
	}
	if len(entries) > 0 {
		s.logger.Info("cleared folder", "dir", dir, "entries", len(entries))
	}
	return nil
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", "error", err)
	}
}

// errorResponse writes {"success": false, "error": message}.
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]any{"success": false, "error": message})
}

// fail maps err to a status, logs server-side failures and writes the error body.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "request_id", RequestID(r.Context()), "path", r.URL.Path, "error", err)
	}
	s.errorResponse(w, status, err.Error())
}
