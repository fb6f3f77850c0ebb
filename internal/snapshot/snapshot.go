// Package snapshot provides the on-disk store of timestamped résumé extractions
// and the loader that orders them for a merge pass.
package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
)

// TimestampLayout is the YYYYMMDD_HHMMSS layout embedded in every file name.
const TimestampLayout = "20060102_150405"

// SourceKind identifies which extraction event produced a snapshot.
type SourceKind string

const (
	// KindText is a snapshot saved from a chat turn.
	KindText SourceKind = "text"
	// KindPDF is a snapshot saved from an uploaded document (PDF or DOCX).
	KindPDF SourceKind = "pdf"
)

// File name prefixes and extensions recognised by the loader and persister.
const (
	TextPrefix   = "text_response_"
	PDFPrefix    = "pdf_response_"
	MergedPrefix = "merged_resume_"
	FailedPrefix = "failed_merge_"
	JSONExt      = ".json"
	HistoryFile  = "session_history.json"
)

// MetadataKeys are payload keys that carry bookkeeping rather than résumé content.
var MetadataKeys = []string{"timestamp"}

// Snapshot is one partial extraction of résumé content.
type Snapshot struct {
	Name      string
	Kind      SourceKind
	ModTime   time.Time
	Timestamp time.Time // parsed from the file name; zero when the name carries none
	Payload   map[string]any
}

// Prefix returns the file name prefix for the kind.
func (k SourceKind) Prefix() string {
	if k == KindPDF {
		return PDFPrefix
	}
	return TextPrefix
}

// FileName builds the snapshot file name for a kind at time t.
func FileName(kind SourceKind, t time.Time) string {
	return kind.Prefix() + t.Format(TimestampLayout) + JSONExt
}

// KindOf reports the source kind of a file name and whether the name qualifies
// as a snapshot at all.
func KindOf(name string) (SourceKind, bool) {
	if !strings.EqualFold(filepath.Ext(name), JSONExt) {
		return "", false
	}
	switch {
	case strings.HasPrefix(name, TextPrefix):
		return KindText, true
	case strings.HasPrefix(name, PDFPrefix):
		return KindPDF, true
	default:
		return "", false
	}
}

// ParseNameTimestamp extracts the timestamp embedded after a known prefix.
func ParseNameTimestamp(name string) (time.Time, bool) {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	for _, prefix := range []string{TextPrefix, PDFPrefix, MergedPrefix, FailedPrefix} {
		if !strings.HasPrefix(base, prefix) {
			continue
		}
		rest := strings.TrimPrefix(base, prefix)
		if len(rest) < len(TimestampLayout) {
			return time.Time{}, false
		}
		t, err := time.ParseInLocation(TimestampLayout, rest[:len(TimestampLayout)], time.Local)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	return time.Time{}, false
}

// DecodePayload decodes a JSON object, keeping numbers as json.Number so they
// survive a write/read cycle unchanged.
func DecodePayload(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after top-level value")
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("top-level value is %s, not an object", jsonKind(v))
	}
	return obj, nil
}

// EncodeDocument renders a document as indented JSON without HTML escaping.
func EncodeDocument(doc map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "an array"
	case string:
		return "a string"
	case json.Number, float64:
		return "a number"
	case bool:
		return "a boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}
