package http

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
)

// TemplatesFS embeds the HTML templates for server-side rendering.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// Page template names
const (
	uploadPage    = "upload_page"
	dashboardPage = "dashboard_page"
)

var templateFuncs = template.FuncMap{
	// px prints an SVG coordinate with one decimal
	"px": func(v float64) string {
		return strconv.FormatFloat(v, 'f', 1, 64)
	},
}

// Pages renders the embedded HTML pages
type Pages struct {
	templates *template.Template
}

// NewPages parses the embedded templates
func NewPages() (*Pages, error) {
	t, err := template.New("pages").Funcs(templateFuncs).ParseFS(TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Pages{templates: t}, nil
}

// Render executes the named page into a buffer first so a template failure
// never leaves a half-written response.
func (p *Pages) Render(w http.ResponseWriter, status int, name string, data any) error {
	var buf bytes.Buffer
	if err := p.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
