// Package views renders the HTML pages with pongo2 templates embedded in the binary.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/flosch/pongo2/v6"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
)

//go:embed templates/*.html
var templates embed.FS

var htmlContentType = []string{"text/html; charset=utf-8"}

// Renderer plugs pongo2 into gin as its HTMLRender.
type Renderer struct {
	set *pongo2.TemplateSet
}

var _ render.HTMLRender = (*Renderer)(nil)

// New returns a renderer over the embedded templates. In debug mode templates
// are re-parsed on every render instead of cached.
func New(debug bool) *Renderer {
	sub, err := fs.Sub(templates, "templates")
	if err != nil {
		panic(err)
	}
	set := pongo2.NewSet("views", &fsLoader{fsys: sub})
	set.Debug = debug
	return &Renderer{set: set}
}

// Instance implements render.HTMLRender.
func (r *Renderer) Instance(name string, data any) render.Render {
	return &Page{set: r.set, name: name, data: toContext(data)}
}

// Render executes the named template into w.
func (r *Renderer) Render(w io.Writer, name string, data any) error {
	tpl, err := r.set.FromCache(name)
	if err != nil {
		return fmt.Errorf("failed to load template %s: %w", name, err)
	}
	return tpl.ExecuteWriter(toContext(data), w)
}

// Page is a single render of one template.
type Page struct {
	set  *pongo2.TemplateSet
	name string
	data pongo2.Context
}

func (p *Page) Render(w http.ResponseWriter) error {
	p.WriteContentType(w)
	tpl, err := p.set.FromCache(p.name)
	if err != nil {
		return fmt.Errorf("failed to load template %s: %w", p.name, err)
	}
	return tpl.ExecuteWriter(p.data, w)
}

func (p *Page) WriteContentType(w http.ResponseWriter) {
	header := w.Header()
	if val := header["Content-Type"]; len(val) == 0 {
		header["Content-Type"] = htmlContentType
	}
}

func toContext(data any) pongo2.Context {
	switch d := data.(type) {
	case nil:
		return pongo2.Context{}
	case pongo2.Context:
		return d
	case gin.H:
		return pongo2.Context(d)
	case map[string]any:
		return pongo2.Context(d)
	default:
		return pongo2.Context{"data": d}
	}
}

// fsLoader serves templates from an fs.FS; names are relative to its root.
type fsLoader struct {
	fsys fs.FS
}

func (l *fsLoader) Abs(base, name string) string {
	return strings.TrimPrefix(path.Clean("/"+name), "/")
}

func (l *fsLoader) Get(name string) (io.Reader, error) {
	data, err := fs.ReadFile(l.fsys, name)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}
