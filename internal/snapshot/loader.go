package snapshot

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"
)

// LoadResult is the ordered outcome of one discovery pass.
type LoadResult struct {
	Snapshots []Snapshot        // oldest first
	Files     []string          // names actually used, same order as Snapshots
	Skipped   []*DiscoveryError // candidates that failed to parse
}

// Load discovers every text_response_*.json and pdf_response_*.json file in
// the store and returns the parseable ones oldest first.
//
// Ordering is by modification time; equal times fall back to the timestamp
// embedded in the file name and then to the file name itself, so the result is
// stable across filesystems. Files that do not decode to a JSON object are
// logged and skipped. When nothing usable remains a *NoInputError is returned
// together with the (empty) result so callers can still report what was skipped.
func Load(ctx context.Context, store Store, logger *slog.Logger) (*LoadResult, error) {
	if logger == nil {
		logger = slog.Default()
	}

	files, err := store.List(ctx)
	if err != nil {
		return nil, err
	}

	type candidate struct {
		info FileInfo
		kind SourceKind
		ts   time.Time
	}
	candidates := make([]candidate, 0, len(files))
	for _, f := range files {
		kind, ok := KindOf(f.Name)
		if !ok {
			continue
		}
		ts, _ := ParseNameTimestamp(f.Name)
		candidates = append(candidates, candidate{info: f, kind: kind, ts: ts})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if !a.info.ModTime.Equal(b.info.ModTime) {
			return a.info.ModTime.Before(b.info.ModTime)
		}
		if !a.ts.Equal(b.ts) {
			return a.ts.Before(b.ts)
		}
		return a.info.Name < b.info.Name
	})

	result := &LoadResult{}
	for _, c := range candidates {
		data, err := store.Read(ctx, c.info.Name)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			derr := &DiscoveryError{Name: c.info.Name, Message: "failed to read file", Cause: err}
			logger.Warn("skipping snapshot", "file", c.info.Name, "error", derr)
			result.Skipped = append(result.Skipped, derr)
			continue
		}

		payload, err := DecodePayload(data)
		if err != nil {
			derr := &DiscoveryError{Name: c.info.Name, Message: "failed to parse JSON", Cause: err}
			logger.Warn("skipping snapshot", "file", c.info.Name, "error", derr)
			result.Skipped = append(result.Skipped, derr)
			continue
		}

		result.Snapshots = append(result.Snapshots, Snapshot{
			Name:      c.info.Name,
			Kind:      c.kind,
			ModTime:   c.info.ModTime,
			Timestamp: c.ts,
			Payload:   payload,
		})
		result.Files = append(result.Files, c.info.Name)
	}

	logger.Debug("snapshot discovery complete",
		"location", store.Location(),
		"used", len(result.Files),
		"skipped", len(result.Skipped))

	if len(result.Snapshots) == 0 {
		return result, &NoInputError{Location: store.Location(), Skipped: len(result.Skipped)}
	}
	return result, nil
}
