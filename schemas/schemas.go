// Package schemas embeds the JSON Schema files shipped with the binary.
package schemas

import "embed"

// ResumeSchema is the file name of the canonical résumé document schema.
const ResumeSchema = "resume.schema.json"

//go:embed *.schema.json
var files embed.FS

// Read returns the contents of an embedded schema file.
func Read(name string) ([]byte, error) {
	return files.ReadFile(name)
}
