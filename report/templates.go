// Package report merges the fragment producers into one ordered HTML
// document and performs its single terminal write.
package report

import (
	"embed"
	"fmt"
	"html/template"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

// TemplateSet is the report's template environment. It is constructed once
// and passed to the Composer as an explicit dependency; there is no lazily
// built module-level template cache.
type TemplateSet struct {
	templates *template.Template
}

// NewTemplateSet parses the embedded report templates.
func NewTemplateSet() (*TemplateSet, error) {
	t, err := template.New("report").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse report templates: %w", err)
	}
	return &TemplateSet{templates: t}, nil
}

// Render executes one named template into an HTML fragment.
func (ts *TemplateSet) Render(name string, data any) (template.HTML, error) {
	var sb strings.Builder
	if err := ts.templates.ExecuteTemplate(&sb, name+".html", data); err != nil {
		return "", fmt.Errorf("render template %s: %w", name, err)
	}
	return template.HTML(sb.String()), nil
}
