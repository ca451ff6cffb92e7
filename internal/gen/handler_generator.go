package gen

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

const HandlerGeneratorID = "handler"

// RouteInfo is one route of a generated handler
type RouteInfo struct {
	Method   string `json:"method"`
	Path     string `json:"path"`
	Relative string `json:"-"`
	Handler  string `json:"handler"`
	HasID    bool   `json:"-"`
}

// handlerActions lists the supported actions in the order routes are registered
var handlerActions = []struct {
	name     string
	method   string
	relative string
	handler  string
}{
	{"list", "GET", "", "getAll"},
	{"get", "GET", "/:id", "getByID"},
	{"create", "POST", "", "create"},
	{"update", "PUT", "/:id", "update"},
	{"delete", "DELETE", "/:id", "delete"},
}

// HandlerGenerator writes a gin handler with the selected CRUD routes
type HandlerGenerator struct {
	*Base `form:"-"`

	HandlerName string `form:"handlerName" validate:"required,goident"`
	Ns          string `form:"ns" validate:"required,gopackage"`
	RoutePrefix string `form:"routePrefix" validate:"required,startswith=/"`
	Actions     string `form:"actions" validate:"required"`
	Template    string `form:"template" validate:"required,oneof=default"`
}

// NewHandlerGenerator creates a handler generator with default attributes
func NewHandlerGenerator(opts Options) *HandlerGenerator {
	return &HandlerGenerator{
		Base:        newBase(opts),
		Ns:          "internal/api/handler/endpoints",
		RoutePrefix: "/api/v1",
		Actions:     "list,get,create,update,delete",
		Template:    "default",
	}
}

func (g *HandlerGenerator) Name() string {
	return "Handler Generator"
}

func (g *HandlerGenerator) Description() string {
	return "Generates a gin handler with list, get, create, update and delete routes for a resource."
}

func (g *HandlerGenerator) Load(params *Params) bool {
	return g.loadInto(g, params)
}

func (g *HandlerGenerator) StickyAttributes() map[string]string {
	return map[string]string{
		"ns":          g.Ns,
		"routePrefix": g.RoutePrefix,
		"template":    g.Template,
	}
}

func (g *HandlerGenerator) Validate(ctx context.Context) bool {
	g.beginValidation(g)
	if !g.Errors().Has("actions") {
		if len(g.actionList()) == 0 {
			g.addError("actions", "actions cannot be blank.")
		}
		for _, a := range g.actionList() {
			if !knownAction(a) {
				g.addError("actions", fmt.Sprintf("unknown action %q.", a))
			}
		}
	}
	return g.valid()
}

func (g *HandlerGenerator) Generate(ctx context.Context) ([]*CodeFile, error) {
	engine, err := defaultEngine()
	if err != nil {
		return nil, err
	}
	content, err := engine.RenderGo("handler.go.tmpl", map[string]any{
		"Package": PackageName(g.Ns),
		"Name":    g.HandlerName,
		"Path":    g.resourcePath(),
		"Routes":  g.routes(),
	})
	if err != nil {
		return nil, err
	}
	return []*CodeFile{
		g.newFile(path.Join(g.Ns, FileName(g.HandlerName)+"_handler.go"), content),
	}, nil
}

// Action exposes the Routes helper that previews the registered route table
func (g *HandlerGenerator) Action(name string) (ActionFunc, bool) {
	if name != "Routes" {
		return nil, false
	}
	return func(ctx context.Context) (any, error) {
		if g.HandlerName == "" {
			return nil, errors.New("handlerName cannot be blank")
		}
		return g.routes(), nil
	}, true
}

func (g *HandlerGenerator) resourcePath() string {
	return strings.TrimSuffix(g.RoutePrefix, "/") + "/" + ResourcePath(g.HandlerName)
}

func (g *HandlerGenerator) actionList() []string {
	var actions []string
	for _, a := range strings.Split(g.Actions, ",") {
		if a = strings.TrimSpace(strings.ToLower(a)); a != "" {
			actions = append(actions, a)
		}
	}
	return actions
}

func (g *HandlerGenerator) routes() []RouteInfo {
	selected := make(map[string]bool)
	for _, a := range g.actionList() {
		selected[a] = true
	}
	base := g.resourcePath()
	var routes []RouteInfo
	for _, a := range handlerActions {
		if !selected[a.name] {
			continue
		}
		routes = append(routes, RouteInfo{
			Method:   a.method,
			Path:     base + a.relative,
			Relative: a.relative,
			Handler:  a.handler,
			HasID:    strings.Contains(a.relative, ":id"),
		})
	}
	return routes
}

func knownAction(name string) bool {
	for _, a := range handlerActions {
		if a.name == name {
			return true
		}
	}
	return false
}
