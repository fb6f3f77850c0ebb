package schemas

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xeipuuv/gojsonschema"
)

func TestResumeSchema_ValidJSON(t *testing.T) {
	data, err := Read(ResumeSchema)
	require.NoError(t, err)

	var v map[string]any
	require.NoError(t, json.Unmarshal(data, &v), "schema file should be valid JSON")
	assert.Equal(t, "object", v["type"])
}

func TestResumeSchema_Compiles(t *testing.T) {
	data, err := Read(ResumeSchema)
	require.NoError(t, err)

	_, err = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	assert.NoError(t, err)
}

func TestResumeSchema_RequiresRecognizedSections(t *testing.T) {
	data, err := Read(ResumeSchema)
	require.NoError(t, err)

	var v struct {
		Required []string `json:"required"`
	}
	require.NoError(t, json.Unmarshal(data, &v))
	assert.ElementsMatch(t, []string{"contact", "education", "research", "skills", "honors", "projects", "coursework"}, v.Required)
}

func TestRead_Missing(t *testing.T) {
	_, err := Read("nope.schema.json")
	assert.Error(t, err)
}
