package generator

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"

	"github.com/tailbits/apiforge/internal/casing"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Renderer turns a named template and its data into source text.
type Renderer interface {
	Render(name string, data TemplateData) ([]byte, error)
}

// TemplateData is passed to every template.
type TemplateData struct {
	Namespace string
	ClassName string
	Class     string
	// Extends is the fully-qualified base class, empty for none.
	Extends string
	// Target is the short name of the class a factory builds.
	Target string
}

// ExtendsName is the short name of the base class.
func (d TemplateData) ExtendsName() string {
	return shortName(d.Extends)
}

// TemplateRenderer renders text/template files from a filesystem.
type TemplateRenderer struct {
	fsys  fs.FS
	cache map[string]*template.Template
}

var _ Renderer = (*TemplateRenderer)(nil)

// NewTemplateRenderer uses the built-in templates when fsys is nil.
func NewTemplateRenderer(fsys fs.FS) *TemplateRenderer {
	if fsys == nil {
		sub, err := fs.Sub(templateFS, "templates")
		if err != nil {
			panic(err)
		}
		fsys = sub
	}
	return &TemplateRenderer{fsys: fsys, cache: make(map[string]*template.Template)}
}

var funcs = template.FuncMap{
	"kebab": casing.ToKebabCase,
	"snake": casing.ToSnakeCase,
	"lower": strings.ToLower,
}

func (r *TemplateRenderer) Render(name string, data TemplateData) ([]byte, error) {
	tmpl, ok := r.cache[name]
	if !ok {
		content, err := fs.ReadFile(r.fsys, name+".tmpl")
		if err != nil {
			return nil, fmt.Errorf("failed to load template %s: %w", name, err)
		}

		tmpl, err = template.New(name).Funcs(funcs).Parse(string(content))
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		r.cache[name] = tmpl
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func shortName(class string) string {
	if i := strings.LastIndex(class, `\`); i >= 0 {
		return class[i+1:]
	}
	return class
}
