package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "json code block",
			input:    "```json\n{\"skills\": [\"Go\"]}\n```",
			expected: `{"skills": ["Go"]}`,
		},
		{
			name:     "generic code block",
			input:    "```\n{\"skills\": []}\n```",
			expected: `{"skills": []}`,
		},
		{
			name:     "code block with other language tag",
			input:    "```javascript\n{\"key\": \"value\"}\n```",
			expected: `{"key": "value"}`,
		},
		{
			name:     "single line fence",
			input:    "```{\"key\": 1}```",
			expected: `{"key": 1}`,
		},
		{
			name:     "plain JSON with whitespace",
			input:    "\n  {\"key\": \"value\"}  \n",
			expected: `{"key": "value"}`,
		},
		{
			name:     "prose is left alone",
			input:    "Sorry, I cannot comply.",
			expected: "Sorry, I cannot comply.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanJSONBlock(tt.input))
		})
	}
}
