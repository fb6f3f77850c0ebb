package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const documentXMLBody = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Ada Lovelace</w:t></w:r></w:p>
    <w:p><w:r><w:t xml:space="preserve">Skills: </w:t></w:r><w:r><w:t>Go, Python</w:t></w:r></w:p>
    <w:p><w:r><w:t>Analyst</w:t><w:tab/><w:t>1843</w:t><w:br/><w:t>London</w:t></w:r></w:p>
  </w:body>
</w:document>`

func buildDOCX(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestFromBytes_DOCX(t *testing.T) {
	data := buildDOCX(t, map[string]string{
		"[Content_Types].xml": `<Types/>`,
		"word/document.xml":   documentXMLBody,
	})

	text, err := FromBytes(context.Background(), data, "resume.docx")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace\nSkills: Go, Python\nAnalyst 1843\nLondon", text)
}

func TestFromBytes_DOCXWithoutDocumentPart(t *testing.T) {
	data := buildDOCX(t, map[string]string{"word/styles.xml": `<styles/>`})

	_, err := FromBytes(context.Background(), data, "resume.docx")
	var eerr *ExtractionError
	require.True(t, errors.As(err, &eerr))
}

func TestFromBytes_LegacyDocUnsupported(t *testing.T) {
	legacy := []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

	_, err := FromBytes(context.Background(), legacy, "resume.doc")
	var uerr *UnsupportedError
	require.True(t, errors.As(err, &uerr))
	assert.Equal(t, MIMEDOC, uerr.MIMEType)
}

func TestFromBytes_CorruptPDF(t *testing.T) {
	_, err := FromBytes(context.Background(), []byte("%PDF-1.7\nnot really a pdf"), "resume.pdf")
	var eerr *ExtractionError
	require.True(t, errors.As(err, &eerr))
	assert.Equal(t, "resume.pdf", eerr.FileName)
}

func TestFromBytes_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := FromBytes(ctx, []byte("%PDF-1.7"), "resume.pdf")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cv.docx")
	require.NoError(t, os.WriteFile(path, buildDOCX(t, map[string]string{"word/document.xml": documentXMLBody}), 0644))

	text, err := FromFile(context.Background(), path)
	require.NoError(t, err)
	assert.Contains(t, text, "Ada Lovelace")

	_, err = FromFile(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Error(t, err)
}

func TestDetectMIME(t *testing.T) {
	docx := buildDOCX(t, map[string]string{"word/document.xml": documentXMLBody})

	tests := []struct {
		name     string
		fileName string
		data     []byte
		expected string
	}{
		{"pdf by content", "upload.bin", []byte("%PDF-1.4\n"), MIMEPDF},
		{"docx by content", "upload.bin", docx, MIMEDOCX},
		{"pdf by extension", "cv.PDF", []byte("garbage"), MIMEPDF},
		{"doc by extension", "cv.doc", []byte("garbage"), MIMEDOC},
		{"plain text", "notes", []byte("hello world"), "text/plain"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectMIME(tt.fileName, tt.data))
		})
	}
}
