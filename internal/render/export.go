package render

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Renderer exports canonical documents.
type Renderer struct {
	Printer Printer
	// MaxPages triggers a warning when the PDF is longer; zero disables the check.
	MaxPages int
	Logger   *slog.Logger
}

// ExportResult describes a written file.
type ExportResult struct {
	Path  string
	Bytes int
	Pages int // zero for HTML output or when the page count is unavailable
}

// Export renders doc with the template at templatePath (empty for the default)
// and writes it to outPath. A .html or .htm outPath receives the HTML itself;
// anything else is printed to PDF.
func (r *Renderer) Export(ctx context.Context, doc map[string]any, templatePath, outPath string) (*ExportResult, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tmpl, err := LoadTemplate(templatePath)
	if err != nil {
		return nil, err
	}
	html, err := RenderHTML(tmpl, doc)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(outPath)) {
	case ".html", ".htm":
		if err := writeFile(outPath, strings.NewReader(html)); err != nil {
			return nil, &RenderError{Message: "failed to write html", Cause: err}
		}
		return &ExportResult{Path: outPath, Bytes: len(html)}, nil
	}

	if r.Printer == nil {
		return nil, &RenderError{Message: "no PDF printer configured"}
	}
	pdf, err := r.Printer.PrintPDF(ctx, html)
	if err != nil {
		return nil, &RenderError{Message: "failed to print PDF", Cause: err}
	}
	if err := writeFile(outPath, bytes.NewReader(pdf)); err != nil {
		return nil, &RenderError{Message: "failed to write PDF", Cause: err}
	}

	result := &ExportResult{Path: outPath, Bytes: len(pdf)}
	pages, err := CountPages(pdf)
	if err != nil {
		logger.Warn("could not count PDF pages", "file", outPath, "error", err)
		return result, nil
	}
	result.Pages = pages
	if r.MaxPages > 0 && pages > r.MaxPages {
		logger.Warn("resume exceeds page limit", "file", outPath, "pages", pages, "max_pages", r.MaxPages)
	}
	return result, nil
}

// writeFile copies src to path, returning the close error when the write
// succeeded. A file that could not be written completely is removed.
func writeFile(path string, src io.Reader) (err error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()
	_, err = io.Copy(f, src)
	return err
}
