package server

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

//go:embed pages/*.html
var pageFiles embed.FS

var pages = template.Must(template.ParseFS(pageFiles, "pages/*.html"))

// maxJSONBody caps JSON request bodies.
const maxJSONBody = 1 << 20

// UploadResponse is returned by POST /upload.
type UploadResponse struct {
	Success  bool          `json:"success"`
	Error    string        `json:"error,omitempty"`
	Filename string        `json:"filename,omitempty"`
	Turn     *TurnResponse `json:"turn,omitempty"`
}

// handleIndex renders the upload page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.page(w, r, "index.html", nil)
}

// handleChatPage renders the chat page. ?resume=true shows that a document
// was uploaded.
func (s *Server) handleChatPage(w http.ResponseWriter, r *http.Request) {
	s.page(w, r, "chat.html", map[string]any{
		"Resume": r.URL.Query().Get("resume") == "true",
		"File":   r.URL.Query().Get("file"),
	})
}

func (s *Server) page(w http.ResponseWriter, r *http.Request, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("failed to render page", "request_id", RequestID(r.Context()), "page", name, "error", err)
	}
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.count(),
		"chat":     s.opts.Chat != nil,
		"llm":      s.opts.Generator != nil,
	})
}

// handleUpload stores a résumé file in the upload folder. With a session_id
// form field the document is also sent to that chat session.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if limit := s.cfg.UploadLimitBytes(); limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.errorResponse(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("File exceeds the %d MB limit", s.cfg.Upload.MaxSizeMB))
			return
		}
		s.errorResponse(w, http.StatusBadRequest, "No file part in the request.")
		return
	}

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) && len(r.MultipartForm.Value["file"]) > 0 {
		s.errorResponse(w, http.StatusBadRequest, "No file selected")
		return
	}
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "No file part in the request.")
		return
	}
	defer func() { _ = file.Close() }()

	name := filepath.Base(filepath.Clean("/" + header.Filename))
	if name == "/" || name == "." {
		s.errorResponse(w, http.StatusBadRequest, "No file selected")
		return
	}
	if !s.cfg.AllowedExtension(name) {
		s.errorResponse(w, http.StatusBadRequest, "File type not allowed")
		return
	}

	path := filepath.Join(s.cfg.UploadDir, name)
	if err := saveUpload(path, file); err != nil {
		s.fail(w, r, err)
		return
	}
	s.logger.Info("file uploaded", "request_id", RequestID(r.Context()), "file", name, "bytes", header.Size)

	resp := UploadResponse{Success: true, Filename: name}
	if id := r.FormValue("session_id"); id != "" {
		sess, ok := s.sessions.get(id)
		if !ok {
			s.fail(w, r, &ErrNotFound{Resource: "session", ID: id})
			return
		}
		turn, err := sess.SendDocument(r.Context(), path)
		if turn == nil {
			status := HTTPStatus(err)
			if status >= http.StatusInternalServerError {
				s.logger.Error("document not sent", "request_id", RequestID(r.Context()), "file", name, "error", err)
			}
			s.jsonResponse(w, status, UploadResponse{Filename: name, Error: err.Error()})
			return
		}
		if err != nil {
			s.logger.Warn("document reply not saved", "request_id", RequestID(r.Context()), "error", err)
		}
		resp.Turn = newTurnResponse(turn)
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// saveUpload copies src to path, removing the partial file on failure.
func saveUpload(path string, src io.Reader) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	if _, err = io.Copy(f, src); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

// decodeJSON reads an optional JSON body into dst and validates it.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return &ErrValidation{Field: "body", Message: err.Error()}
	}
	if err := s.validate.Struct(dst); err != nil {
		var fields validator.ValidationErrors
		if errors.As(err, &fields) && len(fields) > 0 {
			return &ErrValidation{Field: fields[0].Field(), Message: "failed " + fields[0].Tag() + " check"}
		}
		return &ErrValidation{Field: "body", Message: err.Error()}
	}
	return nil
}

// jsonFieldName makes validator errors report JSON field names.
func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return fld.Name
	}
	return name
}
