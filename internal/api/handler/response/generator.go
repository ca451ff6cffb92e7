package response

import "codegen/internal/gen"

type GeneratorInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CodeFile is a generated file listed in the preview phase
type CodeFile struct {
	ID               string        `json:"id"`
	Path             string        `json:"path"`
	Type             string        `json:"type"`
	Operation        gen.Operation `json:"operation"`
	PreviewAvailable bool          `json:"previewAvailable"`
	Selected         bool          `json:"selected"`
}

type ActionResult struct {
	FileID    string        `json:"fileId"`
	Path      string        `json:"path"`
	Operation gen.Operation `json:"operation"`
	Success   bool          `json:"success"`
	Message   string        `json:"message"`
}

// GeneratorView is the state of a generator form. Files and Answers are only
// set in the preview phase, HasError and Results only in the committed phase.
type GeneratorView struct {
	ID         string              `json:"id"`
	Generator  GeneratorInfo       `json:"generator"`
	Phase      string              `json:"phase"`
	Attributes map[string]any      `json:"attributes"`
	Errors     map[string][]string `json:"errors,omitempty"`
	Files      []CodeFile          `json:"files,omitempty"`
	Answers    map[string]bool     `json:"answers,omitempty"`
	HasError   *bool               `json:"hasError,omitempty"`
	Results    []ActionResult      `json:"results,omitempty"`
}

type TableResult struct {
	Table   string              `json:"table"`
	Success bool                `json:"success"`
	Skipped bool                `json:"skipped"`
	Errors  map[string][]string `json:"errors,omitempty"`
	Results []ActionResult      `json:"results,omitempty"`
}

type BulkGeneration struct {
	HasError bool          `json:"hasError"`
	Tables   []TableResult `json:"tables"`
}
