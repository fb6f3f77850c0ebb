package llm

import "strings"

// CleanJSONBlock removes a surrounding markdown code fence from a model response.
// Models wrap JSON in ```json ... ``` blocks even when asked for raw JSON.
// Text outside a fence is returned trimmed but otherwise untouched, so prose
// replies stay invalid JSON and are rejected by the caller.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	body := strings.TrimPrefix(text, "```")
	if nl := strings.Index(body, "\n"); nl >= 0 {
		// a short first line without braces or spaces is a language tag
		if tag := body[:nl]; len(tag) < 20 && !strings.ContainsAny(tag, " {[") {
			body = body[nl+1:]
		}
	}
	if end := strings.LastIndex(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}
