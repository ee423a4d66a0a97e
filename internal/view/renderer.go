// Package view renders the server-side HTML pages.
package view

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/agendabr/agenda/pkg/logging"
)

//go:embed templates/*.html
var templatesFS embed.FS

// PageData is the context handed to every template.
type PageData struct {
	Contato  any
	Contatos any
	Errors   []string
	Success  []string
}

// Renderer executes the embedded templates.
type Renderer struct {
	tpl    *template.Template
	logger *logging.Logger
}

// New parses the embedded templates.
func New(logger *logging.Logger) (*Renderer, error) {
	if logger == nil {
		logger = logging.Default()
	}
	tpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{tpl: tpl, logger: logger}, nil
}

// Render writes the named template. Template failures become a plain 500 so a
// half-written page never reaches the client.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, data PageData) {
	var buf bytes.Buffer
	if err := r.tpl.ExecuteTemplate(&buf, name, data); err != nil {
		r.logger.Error("failed to render template", "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// NotFound renders the generic 404 page.
func (r *Renderer) NotFound(w http.ResponseWriter) {
	r.Render(w, http.StatusNotFound, "404.html", PageData{})
}
