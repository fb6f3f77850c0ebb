package main

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validDocument = `{
  "contact": {"name": "Ada Lovelace", "email": "ada@example.com"},
  "education": [],
  "research": [],
  "skills": ["Go"],
  "honors": [],
  "projects": [],
  "coursework": []
}`

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	valid := filepath.Join(dir, "valid.json")
	invalid := filepath.Join(dir, "invalid.json")
	require.NoError(t, os.WriteFile(valid, []byte(validDocument), 0644))
	require.NoError(t, os.WriteFile(invalid, []byte(`{"skills":"Go"}`), 0644))

	out, err := executeCommand(t, "", "validate", valid)
	require.NoError(t, err, out)
	assert.Contains(t, out, "is valid")

	_, err = executeCommand(t, "", "validate", invalid)
	assert.Error(t, err)
}

func TestValidateCommand_RequiresFile(t *testing.T) {
	_, err := executeCommand(t, "", "validate")
	assert.Error(t, err)
}

func TestExtractCommand_DOCX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body><w:p><w:r><w:t>Ada Lovelace</w:t></w:r></w:p></w:body>
</w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	out, err := executeCommand(t, "", "extract", path)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Ada Lovelace")
}

func TestExtractCommand_Unsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain notes"), 0644))

	_, err := executeCommand(t, "", "extract", path)
	assert.Error(t, err)
}

func TestRenderCommand_NoMergedDocument(t *testing.T) {
	dir := t.TempDir()
	_, err := executeCommand(t, "", "--config", writeConfig(t, dir), "render")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run merge first")
}

func TestMigrateCommand_RequiresDatabase(t *testing.T) {
	_, err := executeCommand(t, "", "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func writeConfig(t *testing.T, snapshotDir string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "snapshot_dir: " + snapshotDir + "\nlog:\n  level: error\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}
