package server

import (
	"net/http"
	"path/filepath"
	"time"

	"github.com/jonathan/resume-assistant/internal/assistant"
	"github.com/jonathan/resume-assistant/internal/llm"
)

// MessageRequest is the body of the chat message endpoints.
type MessageRequest struct {
	Message string `json:"message" validate:"required"`
}

// CreateSessionRequest is the optional body of POST /chat/sessions. Document
// names a file already in the upload folder to open as the first turn.
type CreateSessionRequest struct {
	Document string `json:"document,omitempty" validate:"omitempty,max=255"`
}

// SessionResponse is returned when a chat session is created.
type SessionResponse struct {
	SessionID string        `json:"session_id"`
	CreatedAt time.Time     `json:"created_at"`
	Turn      *TurnResponse `json:"turn,omitempty"`
}

// TurnResponse is one answered message.
type TurnResponse struct {
	Reply     string     `json:"reply"`
	Kind      string     `json:"kind"`
	Snapshot  string     `json:"snapshot,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
	Usage     *llm.Usage `json:"usage,omitempty"`
}

func newTurnResponse(t *assistant.Turn) *TurnResponse {
	return &TurnResponse{
		Reply:     t.Reply,
		Kind:      string(t.Kind),
		Snapshot:  t.File,
		Timestamp: t.Timestamp,
		Usage:     t.Usage,
	}
}

// handleCreateSession starts a coaching chat, optionally opening an uploaded
// document as the first turn.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	if s.opts.Chat == nil {
		s.fail(w, r, &ErrUnavailable{Feature: "chat", Reason: "no API key configured"})
		return
	}
	var req CreateSessionRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.Document != "" && !plainName(req.Document) {
		s.fail(w, r, &ErrValidation{Field: "document", Message: "must be a file name"})
		return
	}

	sess, err := assistant.NewSession(assistant.Options{
		Client:      s.opts.Chat,
		Journal:     s.opts.Journal,
		Tier:        llm.TierStandard,
		InlineLimit: s.cfg.InlineLimitBytes(),
		Now:         s.opts.Now,
		Logger:      s.logger,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if evicted := s.sessions.add(sess); evicted != "" {
		s.logger.Info("chat session evicted", "session_id", evicted)
	}
	s.logger.Info("chat session started", "request_id", RequestID(r.Context()), "session_id", sess.ID())

	resp := SessionResponse{SessionID: sess.ID(), CreatedAt: sess.Created()}
	if req.Document != "" {
		turn, err := sess.SendDocument(r.Context(), filepath.Join(s.cfg.UploadDir, req.Document))
		if turn == nil {
			s.fail(w, r, err)
			return
		}
		if err != nil {
			s.logger.Warn("document reply not saved", "request_id", RequestID(r.Context()), "error", err)
		}
		resp.Turn = newTurnResponse(turn)
	}
	s.jsonResponse(w, http.StatusCreated, resp)
}

// handleSendMessage sends one message and returns the whole reply.
func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	sess, req, ok := s.messageRequest(w, r)
	if !ok {
		return
	}

	turn, err := sess.Send(r.Context(), req.Message)
	if turn == nil {
		s.fail(w, r, err)
		return
	}
	if err != nil {
		s.logger.Warn("reply not saved", "request_id", RequestID(r.Context()), "session_id", sess.ID(), "error", err)
	}
	s.jsonResponse(w, http.StatusOK, newTurnResponse(turn))
}

// handleStreamMessage sends one message and streams the reply as SSE chunk
// events followed by a done event carrying the saved turn.
func (s *Server) handleStreamMessage(w http.ResponseWriter, r *http.Request) {
	sess, req, ok := s.messageRequest(w, r)
	if !ok {
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	turn, err := sess.SendStream(r.Context(), req.Message, sse.WriteChunk)
	if turn == nil {
		s.logger.Warn("stream failed", "request_id", RequestID(r.Context()), "session_id", sess.ID(), "error", err)
		sse.WriteError(err.Error())
		return
	}
	if err != nil {
		s.logger.Warn("reply not saved", "request_id", RequestID(r.Context()), "session_id", sess.ID(), "error", err)
	}
	if err := sse.WriteDone(newTurnResponse(turn)); err != nil {
		s.logger.Warn("failed to write done event", "request_id", RequestID(r.Context()), "error", err)
	}
}

// messageRequest resolves the session and decodes the message body, writing
// the error response itself when either fails.
func (s *Server) messageRequest(w http.ResponseWriter, r *http.Request) (*assistant.Session, *MessageRequest, bool) {
	id := r.PathValue("id")
	sess, ok := s.sessions.get(id)
	if !ok {
		s.fail(w, r, &ErrNotFound{Resource: "session", ID: id})
		return nil, nil, false
	}

	var req MessageRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return nil, nil, false
	}
	return sess, &req, true
}
