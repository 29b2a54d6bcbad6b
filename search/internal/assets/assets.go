// Package assets holds the page template and static files served by the
// render root.
package assets

import (
	"embed"
	"html/template"
	"io"
	"io/fs"
)

//go:embed templates/index.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Page is the data rendered into index.html.
type Page struct {
	Title       string
	DefaultTerm string
}

var index = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// RenderIndex writes the landing page.
func RenderIndex(w io.Writer, p Page) error {
	return index.Execute(w, p)
}

// Static returns the static assets rooted at their own directory, so
// "webpack.png" rather than "static/webpack.png".
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
