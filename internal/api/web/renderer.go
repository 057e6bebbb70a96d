// Package web renders the portal's HTML pages. Every page template is
// rendered on its own and then handed, already escaped, to a layout: the
// dashboard shell for authenticated pages or the bare layout for the login
// and waiting pages.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/insureline/portal/internal/core/service"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	layoutShell = "shell"
	layoutBare  = "bare"
)

// Page is the data every template receives.
type Page struct {
	Title  string
	Shell  *service.Shell // nil renders the bare layout
	Flash  string
	Notice string
	Data   any
}

type layoutData struct {
	Page
	Content template.HTML
}

// Renderer implements echo.Renderer.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("portal").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// MustRenderer is NewRenderer for package-level wiring and tests.
func MustRenderer() *Renderer {
	r, err := NewRenderer()
	if err != nil {
		panic(err)
	}
	return r
}

// Render executes the named page and wraps it in its layout. data must be a
// Page or *Page.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	var page Page
	switch p := data.(type) {
	case Page:
		page = p
	case *Page:
		page = *p
	default:
		page = Page{Data: data}
	}

	var body bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&body, name, page); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}

	layout := layoutBare
	if page.Shell != nil {
		layout = layoutShell
	}
	return r.tmpl.ExecuteTemplate(w, layout, layoutData{Page: page, Content: template.HTML(body.String())})
}

var funcs = template.FuncMap{
	"money": func(v float64) string { return fmt.Sprintf("$%.2f", v) },
	"date": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.Format("2006-01-02")
	},
	"lower": strings.ToLower,
	"title": func(s string) string {
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
	},
	"metricValue": func(v any) string {
		switch x := v.(type) {
		case nil:
			return "0"
		case float64:
			return fmt.Sprintf("%.2f", x)
		default:
			return fmt.Sprint(x)
		}
	},
}
