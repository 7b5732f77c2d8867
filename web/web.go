// Package web renders the HTML document served for every page.
// Templates are embedded in the binary; all values reach the output
// through html/template contextual escaping.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templates embed.FS

// ShellData is the document-level data of one page.
type ShellData struct {
	Theme       string
	Title       string
	Description string
	Keywords    string
	Author      string
	Favicon     string
	Bundle      string
	Rows        [][]template.HTML
}

// Shell wraps assembled rows in the HTML document.
type Shell struct {
	document  *template.Template
	fragments *template.Template
}

// NewShell parses the embedded document templates.
func NewShell() (*Shell, error) {
	document, err := template.ParseFS(templates, "templates/shell.html")
	if err != nil {
		return nil, fmt.Errorf("parse shell template: %w", err)
	}
	fragments, err := template.ParseFS(templates, "templates/fragment.html")
	if err != nil {
		return nil, fmt.Errorf("parse fragment template: %w", err)
	}
	return &Shell{document: document, fragments: fragments}, nil
}

// MustShell is like NewShell but panics on error.
func MustShell() *Shell {
	s, err := NewShell()
	if err != nil {
		panic(err)
	}
	return s
}

// Render writes the full document.
func (s *Shell) Render(w io.Writer, d ShellData) error {
	return s.document.Execute(w, d)
}

type fragmentData struct {
	ID        string
	Module    string
	Swappable bool
	Inner     template.HTML
}

// Fragment wraps module output with the metadata the client bundle reads.
func (s *Shell) Fragment(id, module string, swappable bool, inner template.HTML) (template.HTML, error) {
	return s.execute("fragment", fragmentData{ID: id, Module: module, Swappable: swappable, Inner: inner})
}

// ErrorFragment is the placeholder shown for a module that failed to load.
func (s *Shell) ErrorFragment(module, id string) template.HTML {
	out, err := s.execute("error", fragmentData{ID: id, Module: module})
	if err != nil {
		return template.HTML(template.HTMLEscapeString(fmt.Sprintf("Error: Module %s cannot be loaded (ID: %s)", module, id)))
	}
	return out
}

func (s *Shell) execute(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := s.fragments.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}
