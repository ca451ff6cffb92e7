package service

import (
	"codegen"
	"codegen/internal/gen"
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// StickyStore persists the attribute values a generator pre-fills its form with
type StickyStore interface {
	Get(ctx context.Context, generatorID string) (map[string]string, error)
	Save(ctx context.Context, generatorID string, values map[string]string) error
}

// Phase tells which part of the generator page a ViewModel describes
type Phase string

const (
	PhaseForm      Phase = "form"
	PhaseInvalid   Phase = "invalid"
	PhasePreview   Phase = "preview"
	PhaseCommitted Phase = "committed"
)

// ViewModel is what the generator page renders. Files and Answers are only
// set in the preview phase, HasError and Results only in the committed phase.
type ViewModel struct {
	Generator gen.Generator
	ID        string
	Phase     Phase
	Files     []*gen.CodeFile
	Answers   gen.Answers
	HasError  bool
	Results   []gen.ActionResult
}

type GeneratorService struct {
	registry  *gen.Registry
	sticky    StickyStore
	publisher CommitPublisher
	logger    zerolog.Logger
}

func NewGeneratorService(registry *gen.Registry, sticky StickyStore, publisher CommitPublisher) *GeneratorService {
	return &GeneratorService{
		registry:  registry,
		sticky:    sticky,
		publisher: publisher,
		logger:    codegen.Logger,
	}
}

// Generators lists the registered generators
func (slf *GeneratorService) Generators() []gen.Info {
	return slf.registry.List()
}

// LoadGenerator builds the generator registered under id, restores its sticky
// attributes and then loads params on top of them.
func (slf *GeneratorService) LoadGenerator(ctx context.Context, id string, params *gen.Params) (gen.Generator, error) {
	g, ok := slf.registry.New(id)
	if !ok {
		return nil, generatorNotFound(id)
	}

	sticky, err := slf.sticky.Get(ctx, id)
	if err != nil {
		slf.logger.Warn().Err(err).Str("generator", id).Msg("Unable to restore sticky attributes")
	} else if len(sticky) > 0 {
		g.Load(gen.ParamsFromMap(sticky))
	}

	g.Load(params)
	return g, nil
}

// View runs the preview or generate step requested by params
func (slf *GeneratorService) View(ctx context.Context, id string, params *gen.Params) (*ViewModel, error) {
	g, err := slf.LoadGenerator(ctx, id, params)
	if err != nil {
		return nil, err
	}
	vm := &ViewModel{Generator: g, ID: id, Phase: PhaseForm}

	preview, generate := params.Has("preview"), params.Has("generate")
	if !preview && !generate {
		return vm, nil
	}
	if !g.Validate(ctx) {
		vm.Phase = PhaseInvalid
		return vm, nil
	}

	slf.saveSticky(ctx, id, g)
	files, err := g.Generate(ctx)
	if err != nil {
		slf.logger.Error().Err(err).Str("generator", id).Msg("Error generating code files")
		return nil, fmt.Errorf("failed to generate code with %s: %w", id, err)
	}

	answers := gen.ParseAnswers(params)
	if generate && len(answers) > 0 {
		ok, results := g.Save(files, answers)
		vm.Phase = PhaseCommitted
		vm.HasError = !ok
		vm.Results = results
		slf.publishCommit(ctx, id, !ok, results)
		return vm, nil
	}

	vm.Phase = PhasePreview
	vm.Files = files
	vm.Answers = answers
	return vm, nil
}

// PreviewFile returns the preview markup of one generated file
func (slf *GeneratorService) PreviewFile(ctx context.Context, id, fileID string, params *gen.Params) (string, error) {
	f, err := slf.findFile(ctx, id, fileID, params)
	if err != nil {
		return "", err
	}
	content, ok := f.Preview()
	if !ok {
		return `<div class="error">Preview is not available for this file type.</div>`, nil
	}
	return `<div class="content">` + content + `</div>`, nil
}

// DiffFile returns the diff of one generated file against the file on disk.
// The diff is nil when the file type does not support diffs.
func (slf *GeneratorService) DiffFile(ctx context.Context, id, fileID string, params *gen.Params) (*gen.FileDiff, error) {
	f, err := slf.findFile(ctx, id, fileID, params)
	if err != nil {
		return nil, err
	}
	diff, ok := f.Diff()
	if !ok {
		return nil, nil
	}
	return diff, nil
}

// DispatchAction runs a named sub-action of the generator and returns its result
func (slf *GeneratorService) DispatchAction(ctx context.Context, id, name string, params *gen.Params) (any, error) {
	g, err := slf.LoadGenerator(ctx, id, params)
	if err != nil {
		return nil, err
	}
	provider, ok := g.(gen.ActionProvider)
	if !ok {
		return nil, actionNotFound(name)
	}
	action, ok := provider.Action(name)
	if !ok {
		return nil, actionNotFound(name)
	}
	return action(ctx)
}

// findFile regenerates the files and returns the first one with fileID.
// A generator that does not validate has no files.
func (slf *GeneratorService) findFile(ctx context.Context, id, fileID string, params *gen.Params) (*gen.CodeFile, error) {
	g, err := slf.LoadGenerator(ctx, id, params)
	if err != nil {
		return nil, err
	}
	if !g.Validate(ctx) {
		return nil, fileNotFound(fileID)
	}
	files, err := g.Generate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate code with %s: %w", id, err)
	}
	for _, f := range files {
		if f.ID == fileID {
			return f, nil
		}
	}
	return nil, fileNotFound(fileID)
}

func (slf *GeneratorService) saveSticky(ctx context.Context, id string, g gen.Generator) {
	if err := slf.sticky.Save(ctx, id, g.StickyAttributes()); err != nil {
		slf.logger.Warn().Err(err).Str("generator", id).Msg("Unable to save sticky attributes")
	}
}

func (slf *GeneratorService) publishCommit(ctx context.Context, id string, hasError bool, results []gen.ActionResult) {
	event := newCommitEvent(id, hasError, results)
	if err := slf.publisher.PublishCommit(ctx, event); err != nil {
		slf.logger.Error().Err(err).Str("generator", id).Msg("Error publishing commit event")
	}
}
