package gen

import (
	"bytes"
	"embed"
	"fmt"
	"go/format"
	"strings"
	"sync"
	"text/template"

	"github.com/jinzhu/inflection"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// TemplateEngine renders generator templates
type TemplateEngine struct {
	templates *template.Template
}

var (
	engineOnce sync.Once
	engine     *TemplateEngine
	engineErr  error
)

// NewTemplateEngine creates a new template engine
func NewTemplateEngine() (*TemplateEngine, error) {
	tmpl, err := template.New("gen").Funcs(template.FuncMap{
		"plural":   inflection.Plural,
		"lower":    strings.ToLower,
		"camel":    lowerFirst,
		"join":     strings.Join,
		"backtick": func(s string) string { return "`" + s + "`" },
	}).ParseFS(templatesFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &TemplateEngine{
		templates: tmpl,
	}, nil
}

// defaultEngine returns the shared engine, parsing templates on first use
func defaultEngine() (*TemplateEngine, error) {
	engineOnce.Do(func() {
		engine, engineErr = NewTemplateEngine()
	})
	return engine, engineErr
}

// RenderGo executes a Go source template and formats the result
func (e *TemplateEngine) RenderGo(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	formatted, err := format.Source(buf.Bytes())
	if err != nil {
		return buf.Bytes(), fmt.Errorf("failed to format generated code: %w (raw output available)", err)
	}

	return formatted, nil
}
