package service

import (
	"codegen/internal/api/models"
	"codegen/internal/gen"
	"context"
	"errors"
	"sort"
	"sync"
)

// memoryStickyStore keeps sticky attributes in a map
type memoryStickyStore struct {
	mu      sync.Mutex
	values  map[string]map[string]string
	getErr  error
	saveErr error
	saves   int
}

func newMemoryStickyStore() *memoryStickyStore {
	return &memoryStickyStore{values: make(map[string]map[string]string)}
}

func (s *memoryStickyStore) Get(ctx context.Context, generatorID string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	out := make(map[string]string)
	for k, v := range s.values[generatorID] {
		out[k] = v
	}
	return out, nil
}

func (s *memoryStickyStore) Save(ctx context.Context, generatorID string, values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.values[generatorID] = values
	return nil
}

// recordingPublisher keeps every published commit event
type recordingPublisher struct {
	events []CommitEvent
	err    error
}

func (p *recordingPublisher) PublishCommit(ctx context.Context, event CommitEvent) error {
	p.events = append(p.events, event)
	return p.err
}

// fakeGenerator records how the service drives it
type fakeGenerator struct {
	attrs         map[string]string
	valid         bool
	files         []*gen.CodeFile
	generateErr   error
	validateCalls int
	generateCalls int
	saveCalls     int
	saveAnswers   gen.Answers
	saveOK        bool
	actions       map[string]gen.ActionFunc
}

func (g *fakeGenerator) Name() string        { return "Fake Generator" }
func (g *fakeGenerator) Description() string { return "Generates nothing real." }

func (g *fakeGenerator) Load(params *gen.Params) bool {
	for _, k := range params.Keys() {
		v, _ := params.Get(k)
		g.attrs[k] = v
	}
	return params.Len() > 0
}

func (g *fakeGenerator) Validate(ctx context.Context) bool {
	g.validateCalls++
	return g.valid
}

func (g *fakeGenerator) Errors() gen.ValidationErrors {
	if g.valid {
		return gen.ValidationErrors{}
	}
	return gen.ValidationErrors{"tableName": {"tableName cannot be blank."}}
}

func (g *fakeGenerator) StickyAttributes() map[string]string {
	return map[string]string{"tableName": g.attrs["tableName"]}
}

func (g *fakeGenerator) Generate(ctx context.Context) ([]*gen.CodeFile, error) {
	g.generateCalls++
	return g.files, g.generateErr
}

func (g *fakeGenerator) Save(files []*gen.CodeFile, answers gen.Answers) (bool, []gen.ActionResult) {
	g.saveCalls++
	g.saveAnswers = answers
	var results []gen.ActionResult
	for _, f := range files {
		if _, ok := answers[f.ID]; ok {
			results = append(results, gen.ActionResult{FileID: f.ID, Path: f.Path, Success: g.saveOK})
		}
	}
	return g.saveOK, results
}

func (g *fakeGenerator) Action(name string) (gen.ActionFunc, bool) {
	fn, ok := g.actions[name]
	return fn, ok
}

// plainGenerator hides the Action method of the generator it wraps
type plainGenerator struct {
	gen.Generator
}

// fakeSchema serves tables from memory
type fakeSchema struct {
	tables map[string]*models.Table
	err    error
}

func (s *fakeSchema) TableNames(ctx context.Context) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	names := make([]string, 0, len(s.tables))
	for n := range s.tables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (s *fakeSchema) Table(ctx context.Context, name string) (*models.Table, error) {
	t, ok := s.tables[name]
	if !ok {
		return nil, errors.New("no such table")
	}
	return t, nil
}

func testSchema() *fakeSchema {
	return &fakeSchema{tables: map[string]*models.Table{
		"users": {Name: "users", Columns: []models.Column{
			{Name: "id", Type: "int4", IsPrimary: true},
			{Name: "name", Type: "varchar"},
		}},
		"orders": {Name: "orders", Columns: []models.Column{
			{Name: "id", Type: "int8", IsPrimary: true},
			{Name: "total", Type: "numeric"},
		}},
	}}
}
