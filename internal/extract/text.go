package extract

import (
	"regexp"
	"strings"
)

var (
	spaceRun     = regexp.MustCompile(`[ \t\f\v]+`)
	blankLineRun = regexp.MustCompile(`\n{3,}`)
)

// bulletGlyphs are list markers commonly produced by PDF text extraction.
var bulletGlyphs = []string{"•", "·", "▪", "◦", "●", "\uf0b7"}

// CleanText normalizes extracted document text: line endings become LF, runs
// of spaces collapse, bullet glyphs become "- ", and at most one blank line
// separates paragraphs.
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	content = strings.ReplaceAll(content, "\u00a0", " ")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = cleanLine(line)
	}

	result := blankLineRun.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(result)
}

func cleanLine(line string) string {
	line = strings.TrimSpace(spaceRun.ReplaceAllString(line, " "))
	if line == "" {
		return ""
	}
	for _, glyph := range bulletGlyphs {
		if rest, ok := strings.CutPrefix(line, glyph); ok {
			return "- " + strings.TrimSpace(rest)
		}
	}
	return line
}
