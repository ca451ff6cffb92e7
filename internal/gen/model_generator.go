package gen

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"codegen/internal/api/models"

	"golang.org/x/mod/modfile"
)

const ModelGeneratorID = "model"

// ModelGenerator writes a gorm model struct for a database table and,
// optionally, a repository for it.
type ModelGenerator struct {
	*Base `form:"-"`

	TableName     string `form:"tableName" validate:"required,tablename"`
	ModelClass    string `form:"modelClass" validate:"omitempty,goident"`
	Ns            string `form:"ns" validate:"required,gopackage"`
	BaseClass     string `form:"baseClass" validate:"omitempty,embed"`
	GenerateQuery bool   `form:"generateQuery"`
	QueryNs       string `form:"queryNs" validate:"omitempty,gopackage"`
	QueryClass    string `form:"queryClass" validate:"omitempty,goident"`
	Template      string `form:"template" validate:"required,oneof=default"`

	schema SchemaReader
	tables []string
}

// NewModelGenerator creates a model generator with default attributes
func NewModelGenerator(opts Options) *ModelGenerator {
	return &ModelGenerator{
		Base:     newBase(opts),
		Ns:       "internal/models",
		QueryNs:  "internal/repo",
		Template: "default",
		schema:   opts.Schema,
	}
}

func (g *ModelGenerator) Name() string {
	return "Model Generator"
}

func (g *ModelGenerator) Description() string {
	return "Generates a gorm model struct for the specified database table, and optionally its repository."
}

func (g *ModelGenerator) Load(params *Params) bool {
	return g.loadInto(g, params)
}

func (g *ModelGenerator) StickyAttributes() map[string]string {
	return map[string]string{
		"tableName": g.TableName,
		"ns":        g.Ns,
		"baseClass": g.BaseClass,
		"queryNs":   g.QueryNs,
		"template":  g.Template,
	}
}

func (g *ModelGenerator) Validate(ctx context.Context) bool {
	g.beginValidation(g)

	if g.GenerateQuery && g.QueryNs == "" {
		g.addError("queryNs", "queryNs cannot be blank when generateQuery is set.")
	}
	if g.isWildcard() {
		if g.ModelClass != "" {
			g.addError("modelClass", "modelClass must be blank when tableName ends with an asterisk.")
		}
		if g.QueryClass != "" {
			g.addError("queryClass", "queryClass must be blank when tableName ends with an asterisk.")
		}
	}
	if g.GenerateQuery && g.QueryNs != g.Ns {
		if _, err := g.modulePath(); err != nil {
			g.addError("queryNs", err.Error())
		}
	}
	if g.Errors().Has("tableName") {
		return false
	}

	tables, err := g.resolveTables(ctx)
	if err != nil {
		g.addError("tableName", err.Error())
		return false
	}
	g.tables = tables
	return g.valid()
}

// Generate renders one model per resolved table, plus a repository when requested
func (g *ModelGenerator) Generate(ctx context.Context) ([]*CodeFile, error) {
	if len(g.tables) == 0 {
		return nil, errors.New("model generator has no validated table")
	}
	engine, err := defaultEngine()
	if err != nil {
		return nil, err
	}

	var files []*CodeFile
	for _, name := range g.tables {
		table, err := g.schema.Table(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read table %s: %w", name, err)
		}

		structName := g.ModelClass
		if structName == "" {
			structName = StructName(name)
		}
		content, err := engine.RenderGo("model.go.tmpl", g.modelData(table, structName))
		if err != nil {
			return nil, err
		}
		files = append(files, g.newFile(path.Join(g.Ns, FileName(structName)+".go"), content))

		if !g.GenerateQuery {
			continue
		}
		data, err := g.repoData(table, structName)
		if err != nil {
			return nil, err
		}
		content, err = engine.RenderGo("repo.go.tmpl", data)
		if err != nil {
			return nil, err
		}
		files = append(files, g.newFile(path.Join(g.QueryNs, FileName(structName)+"_repo.go"), content))
	}
	return files, nil
}

// Action exposes the TableNames helper used by the form's autocomplete
func (g *ModelGenerator) Action(name string) (ActionFunc, bool) {
	switch name {
	case "TableNames":
		return g.actionTableNames, true
	default:
		return nil, false
	}
}

func (g *ModelGenerator) actionTableNames(ctx context.Context) (any, error) {
	if g.schema == nil {
		return nil, errors.New("no schema source configured")
	}
	names, err := g.schema.TableNames(ctx)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimSuffix(g.TableName, "*")
	matched := make([]string, 0, len(names))
	for _, n := range names {
		if strings.HasPrefix(n, prefix) {
			matched = append(matched, n)
		}
	}
	return matched, nil
}

func (g *ModelGenerator) isWildcard() bool {
	return strings.HasSuffix(g.TableName, "*")
}

// resolveTables expands a trailing asterisk and checks that tables exist
func (g *ModelGenerator) resolveTables(ctx context.Context) ([]string, error) {
	if g.schema == nil {
		return nil, errors.New("no schema source configured")
	}
	names, err := g.schema.TableNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to list tables: %w", err)
	}

	if !g.isWildcard() {
		for _, n := range names {
			if n == g.TableName {
				return []string{n}, nil
			}
		}
		return nil, fmt.Errorf("table '%s' does not exist", g.TableName)
	}

	prefix := strings.TrimSuffix(g.TableName, "*")
	var matched []string
	for _, n := range names {
		if strings.HasPrefix(n, prefix) {
			matched = append(matched, n)
		}
	}
	if len(matched) == 0 {
		return nil, fmt.Errorf("no table matches the pattern '%s'", g.TableName)
	}
	sort.Strings(matched)
	return matched, nil
}

type modelField struct {
	Name    string
	Type    string
	Tag     string
	Comment string
}

type modelTemplateData struct {
	Package    string
	StructName string
	TableName  string
	Embed      string
	Imports    []string
	Fields     []modelField
}

func (g *ModelGenerator) modelData(table *models.Table, structName string) modelTemplateData {
	data := modelTemplateData{
		Package:    PackageName(g.Ns),
		StructName: structName,
		TableName:  table.QualifiedName(),
		Embed:      g.BaseClass,
	}
	imports := map[string]bool{}
	if strings.HasPrefix(strings.TrimPrefix(g.BaseClass, "*"), "gorm.") {
		imports["gorm.io/gorm"] = true
	}

	for _, col := range table.Columns {
		goType := col.GoType
		needsTime := strings.Contains(goType, "time.Time")
		if goType == "" {
			goType, needsTime = GoType(col.Type, col.Nullable)
		}
		if needsTime {
			imports["time"] = true
		}

		gormTag := "column:" + col.Name
		if col.IsPrimary {
			gormTag += ";primaryKey"
		}
		if !col.Nullable && !col.IsPrimary {
			gormTag += ";not null"
		}
		if col.Length > 0 && goType == "string" {
			gormTag += fmt.Sprintf(";size:%d", col.Length)
		}
		data.Fields = append(data.Fields, modelField{
			Name:    FieldName(col.Name),
			Type:    goType,
			Tag:     fmt.Sprintf(`gorm:"%s" json:"%s"`, gormTag, lowerFirst(FieldName(col.Name))),
			Comment: strings.ReplaceAll(col.Comment, "\n", " "),
		})
	}

	for imp := range imports {
		data.Imports = append(data.Imports, imp)
	}
	sort.Strings(data.Imports)
	return data
}

type repoTemplateData struct {
	Package     string
	Name        string
	ModelImport string
	Model       string
	PKType      string
	PKColumn    string
}

func (g *ModelGenerator) repoData(table *models.Table, structName string) (repoTemplateData, error) {
	name := g.QueryClass
	if name == "" {
		name = structName + "Repository"
	}
	data := repoTemplateData{
		Package:  PackageName(g.QueryNs),
		Name:     name,
		Model:    structName,
		PKType:   "uint",
		PKColumn: "id",
	}

	for _, col := range table.Columns {
		if !col.IsPrimary {
			continue
		}
		goType := col.GoType
		if goType == "" {
			goType, _ = GoType(col.Type, false)
		}
		data.PKType = strings.TrimPrefix(goType, "*")
		data.PKColumn = col.Name
		break
	}

	if g.QueryNs != g.Ns {
		module, err := g.modulePath()
		if err != nil {
			return data, err
		}
		data.ModelImport = path.Join(module, g.Ns)
		data.Model = PackageName(g.Ns) + "." + structName
	}
	return data, nil
}

// modulePath reads the module path from go.mod in the output root
func (g *ModelGenerator) modulePath() (string, error) {
	content, err := g.readFile("go.mod")
	if err != nil {
		return "", errors.New("a go.mod file is required in the output root to reference the model package")
	}
	module := modfile.ModulePath(content)
	if module == "" {
		return "", errors.New("go.mod in the output root declares no module path")
	}
	return module, nil
}
