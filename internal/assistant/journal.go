package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jonathan/resume-assistant/internal/snapshot"
)

// Entry is the body of a saved reply.
type Entry struct {
	ResponseText string `json:"response_text"`
	Timestamp    string `json:"timestamp"`
}

// Journal saves assistant replies as snapshots and keeps the aggregate
// session_history.json up to date. One Journal may be shared by many sessions.
type Journal struct {
	store  snapshot.Store
	logger *slog.Logger
	mu     sync.Mutex
}

// NewJournal returns a Journal writing to store.
func NewJournal(store snapshot.Store, logger *slog.Logger) *Journal {
	if logger == nil {
		logger = slog.Default()
	}
	return &Journal{store: store, logger: logger}
}

// Append writes reply as a new <kind>_response_<timestamp>.json snapshot and
// records it in the history file. It returns the snapshot name.
// A history update failure is logged; the snapshot itself is kept.
func (j *Journal) Append(ctx context.Context, kind snapshot.SourceKind, reply string, at time.Time) (string, error) {
	ts := at.Format(snapshot.TimestampLayout)
	entry := map[string]any{"response_text": reply, "timestamp": ts}
	data, err := snapshot.EncodeDocument(entry)
	if err != nil {
		return "", fmt.Errorf("failed to encode reply: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	name, err := snapshot.CreateUnique(ctx, j.store, kind.Prefix()+ts, snapshot.JSONExt, data)
	if err != nil {
		return "", err
	}
	j.logger.Info("response saved", "file", name)

	key := "response_" + strings.TrimPrefix(strings.TrimSuffix(name, snapshot.JSONExt), kind.Prefix())
	if err := j.appendHistory(ctx, key, entry); err != nil {
		j.logger.Warn("failed to update session history", "file", snapshot.HistoryFile, "error", err)
	}
	return name, nil
}

// History returns the decoded history file, or an empty map when none exists.
func (j *Journal) History(ctx context.Context) (map[string]any, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.readHistory(ctx)
}

func (j *Journal) readHistory(ctx context.Context) (map[string]any, error) {
	data, err := j.store.Read(ctx, snapshot.HistoryFile)
	if errors.Is(err, snapshot.ErrNotFound) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, err
	}
	history, err := snapshot.DecodePayload(data)
	if err != nil {
		return nil, fmt.Errorf("corrupt %s: %w", snapshot.HistoryFile, err)
	}
	return history, nil
}

func (j *Journal) appendHistory(ctx context.Context, key string, entry map[string]any) error {
	history, err := j.readHistory(ctx)
	if err != nil {
		return err
	}
	history[key] = entry
	data, err := snapshot.EncodeDocument(history)
	if err != nil {
		return err
	}
	return j.store.Put(ctx, snapshot.HistoryFile, data)
}
