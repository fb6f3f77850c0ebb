package merge

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/jonathan/resume-assistant/internal/snapshot"
)

// identityFields are the keys that name a list entry such as a school or a project.
// Two objects describe the same entry when every identity field they share is
// equal and they share at least one.
var identityFields = []string{"id", "name", "title", "institution", "school", "organization", "company", "degree"}

// Reconcile folds snapshots, oldest first, into one canonical document:
//   - keys from every snapshot are kept
//   - a newer scalar replaces an older one, but null never erases a value
//   - objects merge key by key
//   - lists are unioned in first-seen order; a newer duplicate replaces the older
//     entry in place
//
// Metadata keys are dropped and every recognized section is present in the result.
// Inputs are not modified.
func Reconcile(snapshots []snapshot.Snapshot) map[string]any {
	doc := make(map[string]any)
	for _, snap := range snapshots {
		doc = mergeObjects(doc, stripMetadata(snap.Payload))
	}
	EnsureSections(doc)
	return doc
}

// Conform repairs a service-produced document against the locally reconciled
// baseline. Top-level keys that the service dropped or nulled are restored from
// the baseline, duplicate entries in top-level lists are collapsed and
// recognized sections are filled in. The returned strings
// describe each repair.
func Conform(doc, baseline map[string]any) []string {
	var fixes []string
	for _, key := range snapshot.MetadataKeys {
		if _, ok := doc[key]; ok {
			delete(doc, key)
			fixes = append(fixes, fmt.Sprintf("removed metadata key %q", key))
		}
	}

	for _, k := range sortedKeys(baseline) {
		if v, ok := doc[k]; ok && v != nil {
			continue
		}
		doc[k] = cloneValue(baseline[k])
		fixes = append(fixes, fmt.Sprintf("restored dropped key %q", k))
	}

	for _, k := range sortedKeys(doc) {
		list, ok := doc[k].([]any)
		if !ok {
			continue
		}
		if unique := unionLists(nil, list); len(unique) < len(list) {
			doc[k] = unique
			fixes = append(fixes, fmt.Sprintf("removed %d duplicate entries from %q", len(list)-len(unique), k))
		}
	}

	for _, name := range EnsureSections(doc) {
		fixes = append(fixes, fmt.Sprintf("added empty section %q", name))
	}
	return fixes
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func stripMetadata(payload map[string]any) map[string]any {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = v
	}
	for _, k := range snapshot.MetadataKeys {
		delete(out, k)
	}
	return out
}

func mergeValue(older, newer any) any {
	if newer == nil {
		return older
	}
	switch n := newer.(type) {
	case map[string]any:
		if o, ok := older.(map[string]any); ok {
			return mergeObjects(o, n)
		}
	case []any:
		if o, ok := older.([]any); ok {
			return unionLists(o, n)
		}
	}
	return dedupe(newer)
}

func mergeObjects(older, newer map[string]any) map[string]any {
	out := make(map[string]any, len(older)+len(newer))
	for k, v := range older {
		out[k] = dedupe(v)
	}
	for k, v := range newer {
		existing, ok := out[k]
		if !ok {
			out[k] = dedupe(v)
			continue
		}
		out[k] = mergeValue(existing, v)
	}
	return out
}

// unionLists keeps every entry of both lists once. Duplicates inside a single
// list collapse too.
func unionLists(older, newer []any) []any {
	out := make([]any, 0, len(older)+len(newer))
	add := func(item any) {
		item = dedupe(item)
		for i, existing := range out {
			if sameEntry(existing, item) {
				out[i] = mergeValue(existing, item)
				return
			}
		}
		out = append(out, item)
	}
	for _, item := range older {
		add(item)
	}
	for _, item := range newer {
		add(item)
	}
	return out
}

// dedupe returns a copy of v in which every list, at any depth, holds each
// entry once.
func dedupe(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = dedupe(e)
		}
		return out
	case []any:
		return unionLists(nil, t)
	default:
		return v
	}
}

func sameEntry(a, b any) bool {
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return normalizeText(as) == normalizeText(bs)
		}
		return false
	}

	am, aok := a.(map[string]any)
	bm, bok := b.(map[string]any)
	if aok && bok {
		shared := 0
		for _, field := range identityFields {
			av, aHas := identityValue(am, field)
			bv, bHas := identityValue(bm, field)
			if !aHas || !bHas {
				continue
			}
			if av != bv {
				return false
			}
			shared++
		}
		if shared > 0 {
			return true
		}
	}
	return canonicalJSON(a) == canonicalJSON(b)
}

func identityValue(m map[string]any, field string) (string, bool) {
	v, ok := m[field]
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		n := normalizeText(t)
		return n, n != ""
	case json.Number:
		return t.String(), true
	case float64, int, bool:
		return fmt.Sprint(t), true
	}
	return "", false
}

func normalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func canonicalJSON(v any) string {
	// map keys are marshalled in sorted order
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%#v", v)
	}
	return string(data)
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
