package service

import (
	"codegen"
	"codegen/internal/gen"
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// BulkDefaults are the model attributes used for every table by GenerateAll
type BulkDefaults struct {
	Ns        string
	BaseClass string
	QueryNs   string
}

func (d BulkDefaults) merge(overrides BulkDefaults) BulkDefaults {
	if overrides.Ns != "" {
		d.Ns = overrides.Ns
	}
	if overrides.BaseClass != "" {
		d.BaseClass = overrides.BaseClass
	}
	if overrides.QueryNs != "" {
		d.QueryNs = overrides.QueryNs
	}
	return d
}

// TableResult is the outcome of generating the model of one table
type TableResult struct {
	Table   string               `json:"table"`
	Success bool                 `json:"success"`
	Skipped bool                 `json:"skipped"`
	Errors  gen.ValidationErrors `json:"errors,omitempty"`
	Results []gen.ActionResult   `json:"results,omitempty"`
}

type BulkResult struct {
	HasError bool          `json:"hasError"`
	Tables   []TableResult `json:"tables"`
}

// BulkService generates a model for every table of the schema
type BulkService struct {
	registry *gen.Registry
	schema   gen.SchemaReader
	sticky   StickyStore
	defaults BulkDefaults
	logger   zerolog.Logger
}

func NewBulkService(registry *gen.Registry, schema gen.SchemaReader, sticky StickyStore, defaults BulkDefaults) *BulkService {
	return &BulkService{
		registry: registry,
		schema:   schema,
		sticky:   sticky,
		defaults: defaults,
		logger:   codegen.Logger,
	}
}

// GenerateAll runs the model generator once per table, writing the first
// generated file of each. Tables are processed in order and a failing table
// does not stop the others.
func (slf *BulkService) GenerateAll(ctx context.Context) (*BulkResult, error) {
	return slf.GenerateAllWith(ctx, BulkDefaults{})
}

// GenerateAllWith is GenerateAll with the non-empty fields of overrides
// replacing the configured defaults.
func (slf *BulkService) GenerateAllWith(ctx context.Context, overrides BulkDefaults) (*BulkResult, error) {
	defaults := slf.defaults.merge(overrides)
	tables, err := slf.schema.TableNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	result := &BulkResult{Tables: make([]TableResult, 0, len(tables))}
	for _, table := range tables {
		tr, err := slf.generateTable(ctx, table, defaults)
		if err != nil {
			return nil, err
		}
		if !tr.Success && !tr.Skipped {
			result.HasError = true
		}
		result.Tables = append(result.Tables, tr)
	}

	slf.logger.Info().Int("tables", len(tables)).Bool("hasError", result.HasError).Msg("Bulk model generation finished")
	return result, nil
}

func (slf *BulkService) generateTable(ctx context.Context, table string, defaults BulkDefaults) (TableResult, error) {
	tr := TableResult{Table: table}

	g, ok := slf.registry.New(gen.ModelGeneratorID)
	if !ok {
		return tr, generatorNotFound(gen.ModelGeneratorID)
	}
	sticky, err := slf.sticky.Get(ctx, gen.ModelGeneratorID)
	if err != nil {
		slf.logger.Warn().Err(err).Msg("Unable to restore sticky attributes")
	} else if len(sticky) > 0 {
		g.Load(gen.ParamsFromMap(sticky))
	}
	g.Load(tableParams(table, defaults))

	if !g.Validate(ctx) {
		tr.Skipped = true
		tr.Errors = g.Errors()
		slf.logger.Warn().Str("table", table).Msg("Skipping table that does not validate")
		return tr, nil
	}
	if err := slf.sticky.Save(ctx, gen.ModelGeneratorID, g.StickyAttributes()); err != nil {
		slf.logger.Warn().Err(err).Msg("Unable to save sticky attributes")
	}

	files, err := g.Generate(ctx)
	if err != nil {
		slf.logger.Error().Err(err).Str("table", table).Msg("Error generating model")
		tr.Errors = gen.ValidationErrors{"": {err.Error()}}
		return tr, nil
	}
	if len(files) == 0 {
		tr.Success = true
		return tr, nil
	}

	ok, results := g.Save(files, gen.Answers{files[0].ID: true})
	tr.Success = ok
	tr.Results = results
	return tr, nil
}

func tableParams(table string, defaults BulkDefaults) *gen.Params {
	structName := gen.StructName(table)
	p := gen.NewParams()
	p.Add("tableName", table)
	p.Add("modelClass", structName)
	p.Add("ns", defaults.Ns)
	p.Add("baseClass", defaults.BaseClass)
	p.Add("generateQuery", "0")
	p.Add("queryNs", defaults.QueryNs)
	p.Add("queryClass", structName+"Query")
	p.Add("template", "default")
	return p
}
