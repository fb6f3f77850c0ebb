package server

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/resume-assistant/internal/assistant"
	"github.com/jonathan/resume-assistant/internal/extract"
	"github.com/jonathan/resume-assistant/internal/merge"
	"github.com/jonathan/resume-assistant/internal/snapshot"
)

func TestErrValidation(t *testing.T) {
	err := &ErrValidation{Field: "message", Message: "is required"}
	assert.Equal(t, "validation error: message - is required", err.Error())
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))
}

func TestErrNotFound(t *testing.T) {
	err := &ErrNotFound{Resource: "session", ID: "abc"}
	assert.Equal(t, "session not found: abc", err.Error())
	assert.Equal(t, http.StatusNotFound, HTTPStatus(err))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"input error", &assistant.InputError{Message: "message is empty"}, http.StatusBadRequest},
		{"snapshot missing", fmt.Errorf("read: %w", snapshot.ErrNotFound), http.StatusNotFound},
		{"unavailable", &ErrUnavailable{Feature: "chat", Reason: "no API key"}, http.StatusServiceUnavailable},
		{"merge config", &merge.ConfigError{Message: "llm mode requires a generation client"}, http.StatusServiceUnavailable},
		{"service", &merge.ServiceError{Message: "generation failed"}, http.StatusBadGateway},
		{"unsupported", &extract.UnsupportedError{FileName: "cv.doc"}, http.StatusUnsupportedMediaType},
		{"extraction", &extract.ExtractionError{FileName: "cv.pdf", Message: "no text"}, http.StatusUnprocessableEntity},
		{"too large", &http.MaxBytesError{Limit: 10}, http.StatusRequestEntityTooLarge},
		{"deadline", fmt.Errorf("send: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"unknown", assert.AnError, http.StatusInternalServerError},
		{"nil", nil, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(tt.err))
		})
	}
}
