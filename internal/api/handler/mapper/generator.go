package mapper

import (
	"codegen/internal/api/handler/response"
	"codegen/internal/api/service"
	"codegen/internal/gen"
)

// GeneratorMapper converts generator service results into responses
type GeneratorMapper interface {
	ToGeneratorInfos(infos []gen.Info) []response.GeneratorInfo
	ToGeneratorView(vm *service.ViewModel) response.GeneratorView
	ToActionResults(results []gen.ActionResult) []response.ActionResult
	ToBulkGeneration(result *service.BulkResult) response.BulkGeneration
}

// GeneratorMapperImpl implements GeneratorMapper
type GeneratorMapperImpl struct{}

func NewGeneratorMapper() GeneratorMapper {
	return &GeneratorMapperImpl{}
}

func (m *GeneratorMapperImpl) ToGeneratorInfos(infos []gen.Info) []response.GeneratorInfo {
	out := make([]response.GeneratorInfo, len(infos))
	for i, info := range infos {
		out[i] = response.GeneratorInfo{ID: info.ID, Name: info.Name, Description: info.Description}
	}
	return out
}

func (m *GeneratorMapperImpl) ToGeneratorView(vm *service.ViewModel) response.GeneratorView {
	view := response.GeneratorView{
		ID: vm.ID,
		Generator: response.GeneratorInfo{
			ID:          vm.ID,
			Name:        vm.Generator.Name(),
			Description: vm.Generator.Description(),
		},
		Phase:      string(vm.Phase),
		Attributes: gen.Attributes(vm.Generator),
	}

	switch vm.Phase {
	case service.PhaseInvalid:
		view.Errors = vm.Generator.Errors()
	case service.PhasePreview:
		view.Answers = vm.Answers
		view.Files = make([]response.CodeFile, len(vm.Files))
		for i, f := range vm.Files {
			_, previewable := f.Preview()
			view.Files[i] = response.CodeFile{
				ID:               f.ID,
				Path:             f.Path,
				Type:             f.Type(),
				Operation:        f.Operation,
				PreviewAvailable: previewable,
				// new files start selected, changed files wait for an explicit choice
				Selected: selectedByDefault(f, vm.Answers),
			}
		}
	case service.PhaseCommitted:
		hasError := vm.HasError
		view.HasError = &hasError
		view.Results = m.ToActionResults(vm.Results)
	}
	return view
}

func (m *GeneratorMapperImpl) ToActionResults(results []gen.ActionResult) []response.ActionResult {
	out := make([]response.ActionResult, len(results))
	for i, r := range results {
		out[i] = response.ActionResult{
			FileID:    r.FileID,
			Path:      r.Path,
			Operation: r.Operation,
			Success:   r.Success,
			Message:   r.Message,
		}
	}
	return out
}

func (m *GeneratorMapperImpl) ToBulkGeneration(result *service.BulkResult) response.BulkGeneration {
	out := response.BulkGeneration{
		HasError: result.HasError,
		Tables:   make([]response.TableResult, len(result.Tables)),
	}
	for i, tr := range result.Tables {
		out.Tables[i] = response.TableResult{
			Table:   tr.Table,
			Success: tr.Success,
			Skipped: tr.Skipped,
			Errors:  tr.Errors,
			Results: m.ToActionResults(tr.Results),
		}
	}
	return out
}

func selectedByDefault(f *gen.CodeFile, answers gen.Answers) bool {
	if answers != nil {
		if selected, ok := answers[f.ID]; ok {
			return selected
		}
	}
	return f.Operation == gen.OpCreate
}
