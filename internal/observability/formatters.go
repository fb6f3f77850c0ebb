// Package observability provides the human-readable CLI output for merges,
// chat replies and exports.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/resume-assistant/internal/llm"
	"github.com/jonathan/resume-assistant/internal/merge"
	"github.com/jonathan/resume-assistant/internal/render"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer writes boxed summaries to a terminal.
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)
	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", pad(truncate(line, boxWidth-4), boxWidth-4))
	}
	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-3]) + "..."
}

func pad(s string, n int) string {
	if c := utf8.RuneCountInString(s); c < n {
		return s + strings.Repeat(" ", n-c)
	}
	return s
}

// PrintMergeResult outputs the files read, the outcome and the file written.
func (p *Printer) PrintMergeResult(res *merge.Result) {
	if res == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Run:      %s\n", res.RunID)
	fmt.Fprintf(&sb, "Mode:     %s\n", res.Mode)
	fmt.Fprintf(&sb, "Outcome:  %s\n", res.Outcome)
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "Files read (%d, oldest first):\n", len(res.FilesRead))
	count := min(len(res.FilesRead), maxItemsToShow)
	for i := 0; i < count; i++ {
		fmt.Fprintf(&sb, "  • %s\n", res.FilesRead[i])
	}
	if len(res.FilesRead) > maxItemsToShow {
		fmt.Fprintf(&sb, "  ... and %d more\n", len(res.FilesRead)-maxItemsToShow)
	}
	if len(res.Skipped) > 0 {
		fmt.Fprintf(&sb, "Skipped: %s\n", strings.Join(res.Skipped, ", "))
	}
	if len(res.Fixes) > 0 {
		fmt.Fprintf(&sb, "Corrections: %d\n", len(res.Fixes))
	}
	sb.WriteString("\n")

	switch {
	case res.Output != "":
		fmt.Fprintf(&sb, "Written:  %s", res.Output)
	case res.FailedOutput != "":
		fmt.Fprintf(&sb, "Raw response saved to %s\n", res.FailedOutput)
		fmt.Fprintf(&sb, "Reason: %s", res.Diagnostic)
	case res.Diagnostic != "":
		sb.WriteString(res.Diagnostic)
	}

	p.printBox("MERGE RESULT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintDocumentSummary lists the sections of a canonical document with their sizes.
func (p *Printer) PrintDocumentSummary(doc map[string]any) {
	if doc == nil {
		return
	}

	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		switch v := doc[k].(type) {
		case []any:
			fmt.Fprintf(&sb, "%-14s %d entries\n", k, len(v))
		case map[string]any:
			fmt.Fprintf(&sb, "%-14s %d fields\n", k, len(v))
		case string:
			fmt.Fprintf(&sb, "%-14s %d chars\n", k, utf8.RuneCountInString(v))
		default:
			fmt.Fprintf(&sb, "%-14s %v\n", k, v)
		}
	}
	p.printBox("CANONICAL DOCUMENT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintReply outputs an assistant reply unboxed so long text stays readable.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintReply(text string) {
	fmt.Fprintln(p.out, "\nAssistant Response:")
	fmt.Fprintln(p.out, text)
}

// PrintUsage outputs token accounting for one reply.
func (p *Printer) PrintUsage(usage *llm.Usage) {
	if usage == nil {
		return
	}
	content := fmt.Sprintf("Prompt Tokens:     %d\nCandidates Tokens: %d\nTotal Tokens:      %d",
		usage.PromptTokens, usage.CandidateTokens, usage.TotalTokens)
	p.printBox("TOKEN USAGE", content)
}

// PrintExport outputs where a rendered résumé was written.
func (p *Printer) PrintExport(res *render.ExportResult, maxPages int) {
	if res == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "File:   %s\n", res.Path)
	fmt.Fprintf(&sb, "Size:   %.1f KB", float64(res.Bytes)/1024)
	if res.Pages > 0 {
		fmt.Fprintf(&sb, "\nPages:  %d", res.Pages)
		if maxPages > 0 && res.Pages > maxPages {
			fmt.Fprintf(&sb, " (over the %d page limit)", maxPages)
		}
	}
	p.printBox("RESUME EXPORTED", sb.String())
}
