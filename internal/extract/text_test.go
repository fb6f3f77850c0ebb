package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty",
			input:    "",
			expected: "",
		},
		{
			name:     "normalizes line endings",
			input:    "Line 1\r\nLine 2\rLine 3",
			expected: "Line 1\nLine 2\nLine 3",
		},
		{
			name:     "collapses spaces",
			input:    "Ada    Lovelace\t\tLondon",
			expected: "Ada Lovelace London",
		},
		{
			name:     "bullet glyphs",
			input:    "Skills\n•  Go\n● Python\n\uf0b7 SQL",
			expected: "Skills\n- Go\n- Python\n- SQL",
		},
		{
			name:     "excess blank lines",
			input:    "Education\n\n\n\n   \nExperience",
			expected: "Education\n\nExperience",
		},
		{
			name:     "non-breaking spaces",
			input:    "Ada\u00a0Lovelace",
			expected: "Ada Lovelace",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanText(tt.input))
		})
	}
}
