package schemas

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validResume() map[string]any {
	return map[string]any{
		"contact":    map[string]any{"name": "Ada Lovelace", "email": "ada@example.com"},
		"education":  []any{map[string]any{"institution": "University of London"}},
		"research":   []any{},
		"skills":     []any{"Go", "Analytical engines"},
		"honors":     []any{},
		"projects":   []any{"Note G"},
		"coursework": "Mathematics",
		"languages":  []any{"English", "French"},
	}
}

func TestValidateDocument_Valid(t *testing.T) {
	assert.NoError(t, ValidateDocument(validResume()))
}

func TestValidateDocument_MissingSection(t *testing.T) {
	doc := validResume()
	delete(doc, "honors")

	err := ValidateDocument(doc)
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.NotEmpty(t, verr.Errors)
	assert.Contains(t, verr.Error(), "honors")
}

func TestValidateDocument_WrongTypes(t *testing.T) {
	doc := validResume()
	doc["contact"] = []any{"ada@example.com"}
	doc["skills"] = 42

	err := ValidateDocument(doc)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))

	fields := map[string]bool{}
	for _, fe := range verr.Errors {
		fields[fe.Field] = true
	}
	assert.True(t, fields["contact"])
	assert.True(t, fields["skills"])
}

func TestValidateDocument_RejectsTimestampKey(t *testing.T) {
	doc := validResume()
	doc["timestamp"] = "20240101_000000"
	assert.Error(t, ValidateDocument(doc))
}

func TestValidateFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "merged_resume_20240101_000000.json")
	data, err := json.Marshal(validResume())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))

	assert.NoError(t, ValidateFile(path))

	err = ValidateFile(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestValidateJSONString(t *testing.T) {
	schema := `{"type": "object", "required": ["name"], "properties": {"name": {"type": "string"}}}`

	assert.NoError(t, ValidateJSONString(schema, `{"name": "Ada"}`))

	err := ValidateJSONString(schema, `{"name": 7}`)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "name", verr.Errors[0].Field)
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Errors: []FieldError{
		{Field: "contact", Message: "Invalid type"},
		{Field: "(root)", Message: "skills is required"},
	}}
	msg := err.Error()
	assert.Contains(t, msg, "1. contact: Invalid type")
	assert.Contains(t, msg, "2. (root): skills is required")
}
