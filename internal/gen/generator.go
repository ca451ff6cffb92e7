package gen

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"codegen/internal/api/models"

	"github.com/spf13/afero"
)

// Generator produces a set of code files from form attributes
type Generator interface {
	// Name is the human readable generator name
	Name() string

	// Description explains what the generator produces
	Description() string

	// Load assigns the params that match generator attributes. Attributes
	// absent from params are left untouched. Returns true if anything matched.
	Load(params *Params) bool

	// Validate checks the loaded attributes and fills Errors on failure
	Validate(ctx context.Context) bool

	// Errors returns the validation errors of the last Validate call
	Errors() ValidationErrors

	// StickyAttributes returns the attribute values to remember for the next form
	StickyAttributes() map[string]string

	// Generate renders the code files. It must only be called after a successful Validate.
	Generate(ctx context.Context) ([]*CodeFile, error)

	// Save writes the files selected in answers and reports one result per selected file.
	Save(files []*CodeFile, answers Answers) (bool, []ActionResult)
}

// ActionFunc is an ad-hoc generator sub-action such as an autocomplete helper
type ActionFunc func(ctx context.Context) (any, error)

// ActionProvider is implemented by generators exposing named sub-actions.
// Names are matched case-sensitively.
type ActionProvider interface {
	Action(name string) (ActionFunc, bool)
}

// SchemaReader gives generators read access to database tables
type SchemaReader interface {
	TableNames(ctx context.Context) ([]string, error)
	Table(ctx context.Context, name string) (*models.Table, error)
}

// Factory builds a fresh generator instance
type Factory func() Generator

// Info describes a registered generator
type Info struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Registry holds all registered generators
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates a new generator registry
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register registers a generator factory under id
func (r *Registry) Register(id string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[id]; exists {
		panic(fmt.Sprintf("generator %q already registered", id))
	}
	r.factories[id] = factory
}

// New returns a fresh instance of the generator registered under id
func (r *Registry) New(id string) (Generator, bool) {
	r.mu.RLock()
	factory, ok := r.factories[id]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return factory(), true
}

// List returns all registered generators sorted by id
func (r *Registry) List() []Info {
	r.mu.RLock()
	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Strings(ids)

	infos := make([]Info, 0, len(ids))
	for _, id := range ids {
		g, _ := r.New(id)
		infos = append(infos, Info{ID: id, Name: g.Name(), Description: g.Description()})
	}
	return infos
}

// Options are the collaborators every built-in generator needs
type Options struct {
	Fs     afero.Fs
	Root   string
	Schema SchemaReader
}

// NewDefaultRegistry registers the built-in generators
func NewDefaultRegistry(opts Options) *Registry {
	r := NewRegistry()
	r.Register(ModelGeneratorID, func() Generator { return NewModelGenerator(opts) })
	r.Register(HandlerGeneratorID, func() Generator { return NewHandlerGenerator(opts) })
	return r
}
