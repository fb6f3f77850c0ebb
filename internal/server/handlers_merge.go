package server

import (
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jonathan/resume-assistant/internal/db"
	"github.com/jonathan/resume-assistant/internal/merge"
	"github.com/jonathan/resume-assistant/internal/schemas"
	"github.com/jonathan/resume-assistant/internal/snapshot"
)

// MaxRunLimit caps GET /merge/runs?limit=.
const MaxRunLimit = 500

// MergeRequest is the optional body of POST /merge.
type MergeRequest struct {
	Mode   string `json:"mode,omitempty" validate:"omitempty,oneof=llm local"`
	DryRun bool   `json:"dry_run,omitempty"`
}

// MergeResponse reports one merge pass.
type MergeResponse struct {
	RunID        string         `json:"run_id"`
	Mode         string         `json:"mode"`
	State        string         `json:"state"`
	Outcome      string         `json:"outcome"`
	FilesRead    []string       `json:"files_read"`
	Skipped      []string       `json:"skipped,omitempty"`
	Output       string         `json:"output,omitempty"`
	FailedOutput string         `json:"failed_output,omitempty"`
	Fixes        []string       `json:"fixes,omitempty"`
	Diagnostic   string         `json:"diagnostic,omitempty"`
	Document     map[string]any `json:"document,omitempty"`
	Prompt       string         `json:"prompt,omitempty"`
}

// RenderRequest is the optional body of POST /render.
type RenderRequest struct {
	// Input names a canonical document in the snapshot directory; empty uses the latest.
	Input  string `json:"input,omitempty" validate:"omitempty,max=255"`
	Output string `json:"output,omitempty" validate:"omitempty,max=255"`
}

// RenderResponse describes an exported file.
type RenderResponse struct {
	Success bool   `json:"success"`
	Source  string `json:"source"`
	File    string `json:"file"`
	URL     string `json:"url"`
	Bytes   int    `json:"bytes"`
	Pages   int    `json:"pages,omitempty"`
}

// handleMerge runs one merge pass over the snapshot directory. Passes are
// serialized.
func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	var req MergeRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	mode := req.Mode
	if mode == "" {
		mode = s.cfg.Merge.Mode
	}

	engine, err := merge.NewEngine(merge.Options{
		Store:    s.opts.Store,
		Client:   s.opts.Generator,
		Mode:     merge.Mode(mode),
		Timeout:  s.cfg.MergeTimeout(),
		DryRun:   req.DryRun,
		Now:      s.opts.Now,
		Logger:   s.logger.With("request_id", RequestID(r.Context())),
		Recorder: s.opts.Recorder,
		Validate: schemas.ValidateDocument,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.mergeMu.Lock()
	res, err := engine.Run(r.Context())
	s.mergeMu.Unlock()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, newMergeResponse(res))
}

func newMergeResponse(res *merge.Result) MergeResponse {
	resp := MergeResponse{
		RunID:        res.RunID.String(),
		Mode:         string(res.Mode),
		State:        string(res.State),
		Outcome:      string(res.Outcome),
		FilesRead:    res.FilesRead,
		Skipped:      res.Skipped,
		Output:       res.Output,
		FailedOutput: res.FailedOutput,
		Fixes:        res.Fixes,
		Diagnostic:   res.Diagnostic,
		Document:     res.Document,
	}
	if resp.FilesRead == nil {
		resp.FilesRead = []string{}
	}
	if res.Request != nil && res.Output == "" && res.FailedOutput == "" {
		resp.Prompt = res.Request.String()
	}
	return resp
}

// handleListRuns lists recorded merge runs, newest first.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.opts.Runs == nil {
		s.fail(w, r, &ErrUnavailable{Feature: "merge run history", Reason: "no database configured"})
		return
	}

	limit := db.DefaultRunLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > MaxRunLimit {
			s.fail(w, r, &ErrValidation{Field: "limit", Message: "must be between 1 and " + strconv.Itoa(MaxRunLimit)})
			return
		}
		limit = n
	}

	runs, err := s.opts.Runs.ListRuns(r.Context(), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"runs": runs, "count": len(runs)})
}

// handleRender exports a canonical document into the download folder.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req RenderRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	source := req.Input
	if source == "" {
		latest, err := snapshot.Latest(r.Context(), s.opts.Store, snapshot.MergedPrefix, snapshot.JSONExt)
		if err != nil {
			s.fail(w, r, &ErrNotFound{Resource: "merged resume", ID: "latest"})
			return
		}
		source = latest
	} else if !plainName(source) {
		s.fail(w, r, &ErrValidation{Field: "input", Message: "must be a file name"})
		return
	}

	output := req.Output
	if output == "" {
		output = filepath.Base(s.cfg.Output)
	}
	switch ext := strings.ToLower(filepath.Ext(output)); {
	case !plainName(output):
		s.fail(w, r, &ErrValidation{Field: "output", Message: "must be a file name"})
		return
	case ext != ".pdf" && ext != ".html" && ext != ".htm":
		s.fail(w, r, &ErrValidation{Field: "output", Message: "must end in .pdf or .html"})
		return
	}

	data, err := s.opts.Store.Read(r.Context(), source)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	doc, err := snapshot.DecodePayload(data)
	if err != nil {
		s.fail(w, r, &ErrValidation{Field: "input", Message: err.Error()})
		return
	}

	result, err := s.opts.Renderer.Export(r.Context(), doc, s.cfg.Template, filepath.Join(s.cfg.DownloadDir, output))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, RenderResponse{
		Success: true,
		Source:  source,
		File:    output,
		URL:     "/downloads/" + url.PathEscape(output),
		Bytes:   result.Bytes,
		Pages:   result.Pages,
	})
}

// handleDownload serves a rendered file from the download folder.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if !plainName(name) {
		s.fail(w, r, &ErrNotFound{Resource: "download", ID: name})
		return
	}
	info, err := os.Stat(filepath.Join(s.cfg.DownloadDir, name))
	if err != nil || !info.Mode().IsRegular() {
		s.fail(w, r, &ErrNotFound{Resource: "download", ID: name})
		return
	}

	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(name))
	http.ServeFileFS(w, r, os.DirFS(s.cfg.DownloadDir), name)
}

// plainName reports whether name is a single path element without dot prefix.
func plainName(name string) bool {
	return name != "" && filepath.Base(name) == name && !strings.HasPrefix(name, ".") &&
		!strings.ContainsAny(name, `/\`)
}
