package server

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// SSE event names.
const (
	EventChunk = "chunk"
	EventDone  = "done"
	EventError = "error"
)

// SSEWriter writes a reply stream as Server-Sent Events. Events are numbered
// from 1 so a client can tell whether it missed a chunk.
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	seq     int
}

// NewSSEWriter sets the event-stream headers and commits a 200. It fails when
// w cannot flush.
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &SSEWriter{w: w, flusher: flusher}, nil
}

// WriteEvent sends one event with a JSON payload.
func (s *SSEWriter) WriteEvent(event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event, err)
	}

	s.seq++
	if _, err := fmt.Fprintf(s.w, "id: %d\nevent: %s\ndata: %s\n\n", s.seq, event, payload); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// WriteChunk sends a piece of reply text.
func (s *SSEWriter) WriteChunk(text string) error {
	return s.WriteEvent(EventChunk, map[string]string{"text": text})
}

// WriteDone closes the stream with the saved turn.
func (s *SSEWriter) WriteDone(turn *TurnResponse) error {
	return s.WriteEvent(EventDone, turn)
}

// WriteError reports a failed turn. Write errors are ignored since the client
// is usually gone by then.
func (s *SSEWriter) WriteError(message string) {
	_ = s.WriteEvent(EventError, map[string]string{"error": message})
}
