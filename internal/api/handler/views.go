package handler

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/labstack/echo/v4"
)

// View names accepted by Renderer.
const (
	ViewLogin     = "login"
	ViewSignup    = "signup"
	ViewHome      = "home"
	ViewHomeAdmin = "home-admin"
)

//go:embed views/*.html
var viewFS embed.FS

var viewTitles = map[string]string{
	ViewLogin:     "Log in",
	ViewSignup:    "Sign up",
	ViewHome:      "Home",
	ViewHomeAdmin: "Administration",
}

// Page is the data every view is rendered with.
type Page struct {
	Title  string
	Name   string
	Error  string
	Notice string
}

// Renderer renders the embedded HTML views. Each view is its own template set
// sharing the layout.
type Renderer struct {
	views map[string]*template.Template
}

// NewRenderer parses every view. It fails only if the embedded files are
// malformed.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{views: make(map[string]*template.Template, len(viewTitles))}
	for name := range viewTitles {
		t, err := template.ParseFS(viewFS, "views/layout.html", "views/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse view %s: %w", name, err)
		}
		r.views[name] = t
	}
	return r, nil
}

// Render satisfies echo.Renderer. data must be a Page or *Page.
func (r *Renderer) Render(w io.Writer, name string, data any, c echo.Context) error {
	t, ok := r.views[name]
	if !ok {
		return fmt.Errorf("unknown view %q", name)
	}

	var p Page
	switch v := data.(type) {
	case Page:
		p = v
	case *Page:
		if v != nil {
			p = *v
		}
	case nil:
	default:
		return fmt.Errorf("view %s: unsupported data %T", name, data)
	}
	if p.Title == "" {
		p.Title = viewTitles[name]
	}
	return t.ExecuteTemplate(w, "layout", p)
}
