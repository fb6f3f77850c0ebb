package render

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jonathan/resume-assistant/internal/merge"
)

// TemplateData is the view handed to résumé templates. Resume holds the raw
// document for templates that want to address fields directly.
type TemplateData struct {
	Name     string
	Contact  []ContactItem
	Sections []Section
	Resume   map[string]any
}

// ContactItem is one line of the contact block.
type ContactItem struct {
	Label string
	Value string
	Href  string
}

// Section is a rendered résumé section. Exactly one of Paragraph, Keywords,
// Groups or Entries is normally set.
type Section struct {
	Key       string
	Title     string
	Paragraph string
	Keywords  []string
	Groups    []Group
	Entries   []Entry
}

// Group is a labelled keyword list, e.g. "Languages: Go, Python".
type Group struct {
	Label string
	Items []string
}

// Entry is one item of a section such as a degree or a project.
type Entry struct {
	Heading    string
	Subheading string
	Meta       string
	Details    []string
	Keywords   []string
}

// Sidebar reports whether the section belongs in the narrow column.
func (s Section) Sidebar() bool {
	return s.Key == "skills" || s.Key == "coursework" || s.Key == "honors"
}

var (
	headingFields    = []string{"title", "name", "degree", "award", "institution", "school"}
	subheadingFields = []string{"institution", "school", "organization", "company", "venue", "role", "advisor"}
	metaFields       = []string{"dates", "date", "period", "year", "duration", "location"}
	detailFields     = []string{"description", "summary", "details", "highlights", "bullets", "responsibilities", "achievements"}
	keywordFields    = []string{"keywords", "technologies", "skills", "tags", "tools"}
	contactOrder     = []string{"email", "phone", "location", "website", "linkedin", "github"}
)

// BuildTemplateData arranges a document for rendering. Recognized sections come
// first in their canonical order, other non-metadata keys follow alphabetically.
// Empty sections are omitted.
func BuildTemplateData(doc map[string]any) *TemplateData {
	data := &TemplateData{Resume: doc}

	if contact, ok := doc["contact"].(map[string]any); ok {
		data.Name = scalar(contact["name"])
		data.Contact = contactItems(contact)
	}

	keys := make([]string, 0, len(doc))
	for _, name := range merge.RecognizedSections {
		if name != "contact" {
			keys = append(keys, name)
		}
	}
	var extra []string
	for k := range doc {
		if !merge.IsRecognized(k) && k != "timestamp" {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	keys = append(keys, extra...)

	for _, key := range keys {
		section, ok := buildSection(key, doc[key])
		if ok {
			data.Sections = append(data.Sections, section)
		}
	}
	return data
}

func buildSection(key string, value any) (Section, bool) {
	s := Section{Key: key, Title: titleCase(key)}
	switch v := value.(type) {
	case nil:
		return s, false
	case string:
		s.Paragraph = strings.TrimSpace(v)
		return s, s.Paragraph != ""
	case []any:
		if strs, ok := allScalars(v); ok {
			s.Keywords = strs
			return s, len(strs) > 0
		}
		for _, item := range v {
			if e, ok := buildEntry(item); ok {
				s.Entries = append(s.Entries, e)
			}
		}
		return s, len(s.Entries) > 0
	case map[string]any:
		if groups, ok := keywordGroups(v); ok && !hasAny(v, headingFields) {
			s.Groups = groups
			return s, len(groups) > 0
		}
		if e, ok := buildEntry(v); ok {
			s.Entries = []Entry{e}
		}
		return s, len(s.Entries) > 0
	default:
		s.Paragraph = scalar(v)
		return s, s.Paragraph != ""
	}
}

func buildEntry(item any) (Entry, bool) {
	obj, ok := item.(map[string]any)
	if !ok {
		text := scalar(item)
		return Entry{Heading: text}, text != ""
	}

	used := map[string]bool{}
	take := func(fields []string) string {
		for _, f := range fields {
			if used[f] {
				continue
			}
			if v := scalar(obj[f]); v != "" {
				used[f] = true
				return v
			}
		}
		return ""
	}

	var e Entry
	e.Heading = take(headingFields)
	e.Subheading = take(subheadingFields)

	var meta []string
	if start := scalar(obj["start_date"]); start != "" {
		used["start_date"], used["end_date"] = true, true
		end := scalar(obj["end_date"])
		if end == "" {
			end = "Present"
		}
		meta = append(meta, start+" – "+end)
	}
	for _, f := range metaFields {
		if v := scalar(obj[f]); v != "" {
			used[f] = true
			meta = append(meta, v)
		}
	}
	e.Meta = strings.Join(meta, " · ")

	for _, f := range detailFields {
		if _, ok := obj[f]; ok {
			used[f] = true
			e.Details = append(e.Details, texts(obj[f])...)
		}
	}
	for _, f := range keywordFields {
		if _, ok := obj[f]; ok {
			used[f] = true
			e.Keywords = append(e.Keywords, texts(obj[f])...)
		}
	}

	var rest []string
	for k := range obj {
		if !used[k] && k != "id" {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		if v := strings.Join(texts(obj[k]), ", "); v != "" {
			e.Details = append(e.Details, titleCase(k)+": "+v)
		}
	}

	if e.Heading == "" && e.Subheading != "" {
		e.Heading, e.Subheading = e.Subheading, ""
	}
	return e, e.Heading != "" || len(e.Details) > 0 || len(e.Keywords) > 0
}

func contactItems(contact map[string]any) []ContactItem {
	var keys []string
	seen := map[string]bool{"name": true}
	for _, k := range contactOrder {
		if _, ok := contact[k]; ok {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	var rest []string
	for k := range contact {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	keys = append(keys, rest...)

	var items []ContactItem
	for _, k := range keys {
		for _, v := range texts(contact[k]) {
			items = append(items, ContactItem{Label: titleCase(k), Value: v, Href: contactHref(k, v)})
		}
	}
	return items
}

func contactHref(key, value string) string {
	switch {
	case key == "email" || (strings.Contains(value, "@") && !strings.Contains(value, " ")):
		return "mailto:" + value
	case key == "phone":
		return "tel:" + strings.Map(func(r rune) rune {
			if r == '+' || (r >= '0' && r <= '9') {
				return r
			}
			return -1
		}, value)
	case strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://"):
		return value
	}
	return ""
}

// keywordGroups recognizes objects whose values are all keyword lists or strings.
func keywordGroups(obj map[string]any) ([]Group, bool) {
	keys := make([]string, 0, len(obj))
	for k, v := range obj {
		switch t := v.(type) {
		case []any:
			if _, ok := allScalars(t); !ok {
				return nil, false
			}
		case string:
		default:
			return nil, false
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var groups []Group
	for _, k := range keys {
		if items := texts(obj[k]); len(items) > 0 {
			groups = append(groups, Group{Label: titleCase(k), Items: items})
		}
	}
	return groups, true
}

func hasAny(obj map[string]any, fields []string) bool {
	for _, f := range fields {
		if _, ok := obj[f]; ok {
			return true
		}
	}
	return false
}

func allScalars(list []any) ([]string, bool) {
	out := make([]string, 0, len(list))
	for _, item := range list {
		switch item.(type) {
		case map[string]any, []any:
			return nil, false
		}
		if s := scalar(item); s != "" {
			out = append(out, s)
		}
	}
	return out, true
}

// texts flattens a scalar or a list of scalars into strings.
func texts(v any) []string {
	switch t := v.(type) {
	case []any:
		var out []string
		for _, item := range t {
			out = append(out, texts(item)...)
		}
		return out
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var out []string
		for _, k := range keys {
			if v := strings.Join(texts(t[k]), ", "); v != "" {
				out = append(out, titleCase(k)+": "+v)
			}
		}
		return out
	}
	if s := scalar(v); s != "" {
		return []string{s}
	}
	return nil
}

func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "Yes"
		}
		return "No"
	case float64:
		return fmt.Sprintf("%g", t)
	case map[string]any, []any:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

// titleCase turns a JSON key such as "work_experience" into "Work Experience".
func titleCase(key string) string {
	words := strings.FieldsFunc(key, func(r rune) bool { return r == '_' || r == '-' || r == ' ' })
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
