package gen

import (
	"path/filepath"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/spf13/afero"
)

// ActionResult is the outcome of saving one selected code file
type ActionResult struct {
	FileID    string    `json:"fileId"`
	Path      string    `json:"path"`
	Operation Operation `json:"operation"`
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
}

// Base carries what every generator shares: output location, the error bag
// and the save routine. Generators embed it with a `form:"-"` tag so the form
// binder does not descend into it.
type Base struct {
	fs         afero.Fs
	root       string
	errors     ValidationErrors
	loadErrors ValidationErrors
}

func newBase(opts Options) *Base {
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	root := opts.Root
	if root == "" {
		root = "."
	}
	return &Base{
		fs:         fs,
		root:       root,
		errors:     make(ValidationErrors),
		loadErrors: make(ValidationErrors),
	}
}

func (b *Base) Errors() ValidationErrors {
	return b.errors
}

func (b *Base) addError(attribute, message string) {
	b.errors.Add(attribute, message)
}

// loadInto binds params onto the form-tagged fields of target
func (b *Base) loadInto(target any, params *Params) bool {
	if params.Len() == 0 {
		return false
	}
	matched := false
	for _, name := range formFields(target) {
		if params.Has(name) {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}
	if err := binding.MapFormWithTag(target, params.Form(), "form"); err != nil {
		b.loadErrors.Add("", err.Error())
	}
	return true
}

// beginValidation resets the error bag and runs the struct rules
func (b *Base) beginValidation(target any) {
	b.errors = make(ValidationErrors)
	for attr, msgs := range b.loadErrors {
		for _, msg := range msgs {
			b.errors.Add(attr, msg)
		}
	}
	collectErrors(target, b.errors)
}

func (b *Base) valid() bool {
	return len(b.errors) == 0
}

func (b *Base) readFile(relPath string) ([]byte, error) {
	return afero.ReadFile(b.fs, filepath.Join(b.root, relPath))
}

func (b *Base) newFile(relPath string, content []byte) *CodeFile {
	return NewCodeFile(b.fs, b.root, relPath, content)
}

// Save writes every file answered with a truthy value unless it is unchanged.
// Files absent from answers get no result.
func (b *Base) Save(files []*CodeFile, answers Answers) (bool, []ActionResult) {
	hasError := false
	results := make([]ActionResult, 0, len(answers))
	for _, f := range files {
		if _, answered := answers[f.ID]; !answered {
			continue
		}
		result := ActionResult{FileID: f.ID, Path: f.Path, Operation: f.Operation}
		switch {
		case !answers.Selected(f.ID) || f.Operation == OpSkip:
			result.Success = true
			result.Message = "skipped " + f.Path
		default:
			if err := f.Save(); err != nil {
				hasError = true
				result.Message = "generating " + f.Path + ": " + err.Error()
			} else {
				result.Success = true
				if f.Operation == OpCreate {
					result.Message = "generated " + f.Path
				} else {
					result.Message = "overwrote " + f.Path
				}
			}
		}
		results = append(results, result)
	}
	return !hasError, results
}

// Attributes returns the form-tagged field values of a generator keyed by
// their form name.
func Attributes(target any) map[string]any {
	attrs := make(map[string]any)
	v := reflect.ValueOf(target)
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return attrs
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return attrs
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.PkgPath != "" {
			continue
		}
		name := strings.SplitN(sf.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			continue
		}
		attrs[name] = v.Field(i).Interface()
	}
	return attrs
}

// formFields lists the form tag names of the exported fields of target
func formFields(target any) []string {
	t := reflect.TypeOf(target)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	var names []string
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.PkgPath != "" {
			continue
		}
		name := strings.SplitN(sf.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			continue
		}
		names = append(names, name)
	}
	return names
}
