package widget

import (
	"bytes"
	"embed"
	"html/template"
	"io"
)

//go:embed templates/widget.html
var templatesFS embed.FS

var tmpl = template.Must(template.ParseFS(templatesFS, "templates/widget.html"))

// Render writes the HTML fragment for v. Error and empty states write nothing.
func (v View) Render(w io.Writer) error {
	return tmpl.ExecuteTemplate(w, "widget", v)
}

// HTML returns the fragment for v, ready to embed in a page template.
func (v View) HTML() (template.HTML, error) {
	var buf bytes.Buffer
	if err := v.Render(&buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil //nolint:gosec // output of html/template
}

// Text returns a plain one-line rendering for terminals.
func (v View) Text() string {
	switch {
	case v.Loading():
		return "Getting currently playing..."
	case v.Visible():
		return v.Prefix() + v.Track.Label()
	default:
		return ""
	}
}
