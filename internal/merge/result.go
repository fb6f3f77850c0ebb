package merge

import (
	"context"
	"strings"
	"time"

	"github.com/jonathan/resume-assistant/internal/llm"
	"github.com/jonathan/resume-assistant/internal/snapshot"
)

// FailedExt is the extension of files holding rejected service responses.
const FailedExt = ".txt"

// ParseResult accepts a service response only if, after removing a markdown
// code fence, it is exactly one JSON object.
func ParseResult(raw string) (map[string]any, error) {
	cleaned := llm.CleanJSONBlock(raw)
	if cleaned == "" {
		return nil, &ValidationError{Message: "empty response", Raw: raw}
	}
	doc, err := snapshot.DecodePayload([]byte(cleaned))
	if err != nil {
		return nil, &ValidationError{Message: "response is not a single JSON object", Raw: raw, Cause: err}
	}
	return doc, nil
}

// WriteCanonical stores doc as merged_resume_<timestamp>.json. An existing
// document with the same name is never replaced; a numeric suffix is added instead.
func WriteCanonical(ctx context.Context, store snapshot.Store, doc map[string]any, at time.Time) (string, error) {
	data, err := snapshot.EncodeDocument(doc)
	if err != nil {
		return "", err
	}
	return snapshot.CreateUnique(ctx, store, snapshot.MergedPrefix+at.Format(snapshot.TimestampLayout), snapshot.JSONExt, data)
}

// WriteFailed stores a rejected response verbatim as failed_merge_<timestamp>.txt.
func WriteFailed(ctx context.Context, store snapshot.Store, raw string, at time.Time) (string, error) {
	data := raw
	if !strings.HasSuffix(data, "\n") {
		data += "\n"
	}
	return snapshot.CreateUnique(ctx, store, snapshot.FailedPrefix+at.Format(snapshot.TimestampLayout), FailedExt, []byte(data))
}
