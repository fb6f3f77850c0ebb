package render

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// DefaultTemplate is the embedded two-column layout used when no template path is given.
const DefaultTemplate = "templates/modern_two_column.html"

//go:embed templates/*.html
var templateFiles embed.FS

// richPolicy allows the inline markup the assistant tends to emit in bullet text.
var richPolicy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("b", "strong", "i", "em", "u", "br", "sup", "sub", "code", "span")
	p.AllowStandardURLs()
	p.AllowAttrs("href").OnElements("a")
	p.RequireNoFollowOnLinks(true)
	return p
}()

// Funcs returns the functions available to résumé templates.
func Funcs() template.FuncMap {
	return template.FuncMap{
		// rich sanitizes text that may carry inline HTML and marks it safe.
		"rich": func(s string) template.HTML {
			return template.HTML(richPolicy.Sanitize(s))
		},
		"join": func(items []string, sep string) string {
			return strings.Join(items, sep)
		},
		"title": titleCase,
	}
}

// LoadTemplate parses the template at path, or the embedded default when path is empty.
func LoadTemplate(path string) (*template.Template, error) {
	var (
		content []byte
		name    string
		err     error
	)
	if path == "" {
		name = filepath.Base(DefaultTemplate)
		content, err = templateFiles.ReadFile(DefaultTemplate)
	} else {
		name = filepath.Base(path)
		content, err = os.ReadFile(path)
	}
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &TemplateError{Message: fmt.Sprintf("template file not found: %s", path)}
		}
		return nil, &TemplateError{Message: "failed to read template", Cause: err}
	}

	tmpl, err := template.New(name).Funcs(Funcs()).Option("missingkey=zero").Parse(string(content))
	if err != nil {
		return nil, &TemplateError{Message: "failed to parse template", Cause: err}
	}
	return tmpl, nil
}

// RenderHTML executes tmpl against the document's template data.
func RenderHTML(tmpl *template.Template, doc map[string]any) (string, error) {
	var sb strings.Builder
	if err := tmpl.Execute(&sb, BuildTemplateData(doc)); err != nil {
		return "", &TemplateError{Message: "failed to execute template", Cause: err}
	}
	return sb.String(), nil
}
