package pages

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"strings"

	"github.com/yuin/goldmark"
)

//go:embed content/*.md
var contentFS embed.FS

// RenderMarkdown converts markdown text to HTML (safe to inject as template.HTML).
func RenderMarkdown(md string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// Markdown returns a handler that renders a fixed markdown document.
func Markdown(title, md string) Handler {
	return HandlerFunc(func(ctx context.Context, req *Request) (*View, error) {
		body, err := RenderMarkdown(md)
		if err != nil {
			return nil, fmt.Errorf("rendering %s: %w", title, err)
		}
		return &View{Title: title, Body: body}, nil
	})
}

// ContentPages returns the built-in markdown pages keyed by page identifier.
// The document for "Page 1" lives at content/Page_1.md.
func ContentPages() (map[string]Handler, error) {
	out := map[string]Handler{}
	err := fs.WalkDir(contentFS, "content", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		b, err := contentFS.ReadFile(p)
		if err != nil {
			return err
		}
		id := strings.ReplaceAll(strings.TrimSuffix(d.Name(), ".md"), "_", " ")
		out[id] = Markdown(id, string(b))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
