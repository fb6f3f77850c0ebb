package merge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/resume-assistant/internal/prompts"
	"github.com/jonathan/resume-assistant/internal/snapshot"
)

// Request is the instruction set handed to the generation service.
type Request struct {
	System    string
	Prompt    string
	Snapshots int
}

// String returns the full text sent to the service.
func (r *Request) String() string {
	if r.System == "" {
		return r.Prompt
	}
	return r.System + "\n\n" + r.Prompt
}

// BuildRequest encodes the reconciliation rules and the ordered payloads,
// oldest first, into a single prompt. Payloads are serialized unchanged.
func BuildRequest(snapshots []snapshot.Snapshot) (*Request, error) {
	if len(snapshots) == 0 {
		return nil, fmt.Errorf("cannot build a merge request without snapshots")
	}

	payloads := make([]map[string]any, len(snapshots))
	for i, s := range snapshots {
		payloads[i] = s.Payload
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payloads); err != nil {
		return nil, fmt.Errorf("failed to encode snapshots: %w", err)
	}

	system, err := prompts.Get(prompts.MergeFile, "merge-system")
	if err != nil {
		return nil, err
	}
	template, err := prompts.Get(prompts.MergeFile, "merge-snapshots")
	if err != nil {
		return nil, err
	}

	return &Request{
		System: system,
		Prompt: prompts.Format(template, map[string]string{
			"Sections":  strings.Join(RecognizedSections, ", "),
			"Snapshots": strings.TrimRight(buf.String(), "\n"),
		}),
		Snapshots: len(snapshots),
	}, nil
}
