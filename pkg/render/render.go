// Package render renders HTML blocks from Go templates, with an embedded
// default template as fallback.
package render

import (
	"bytes"
	_ "embed"
	"html/template"

	"github.com/go-faster/errors"
)

//go:embed thank-you.html.tmpl
var defaultTemplate string

// Renderer renders one parsed template against arbitrary data.
type Renderer struct {
	tmpl *template.Template
}

// New parses the template file at path. An empty path selects the embedded
// default template.
func New(path string) (*Renderer, error) {
	if path == "" {
		tmpl, err := template.New("thank-you").Parse(defaultTemplate)
		if err != nil {
			return nil, errors.Wrap(err, "parse embedded template")
		}
		return &Renderer{tmpl: tmpl}, nil
	}
	tmpl, err := template.ParseFiles(path)
	if err != nil {
		return nil, errors.Wrap(err, "parse template")
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render executes the template against data and returns the HTML.
func (r *Renderer) Render(data any) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return "", errors.Wrap(err, "execute template")
	}
	return buf.String(), nil
}
