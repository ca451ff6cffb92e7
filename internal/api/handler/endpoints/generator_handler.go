package endpoints

import (
	"bytes"
	"codegen"
	"codegen/internal/api/handler/mapper"
	"codegen/internal/api/handler/middleware"
	"codegen/internal/api/handler/request"
	"codegen/internal/api/handler/response"
	"codegen/internal/api/repo"
	"codegen/internal/api/service"
	"codegen/internal/gen"
	"codegen/pkg"
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"

	"github.com/gin-contrib/graceful"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

//go:embed templates/diff.html
var templatesFS embed.FS

var diffTemplate = template.Must(template.ParseFS(templatesFS, "templates/diff.html"))

const htmlContentType = "text/html; charset=utf-8"

type generatorHandler struct {
	generatorService *service.GeneratorService
	bulkService      *service.BulkService
	generatorMapper  mapper.GeneratorMapper
	config           codegen.AppConfig
	logger           zerolog.Logger
}

func newGeneratorHandler(generatorService *service.GeneratorService, bulkService *service.BulkService, config codegen.AppConfig) *generatorHandler {
	return &generatorHandler{
		generatorService: generatorService,
		bulkService:      bulkService,
		generatorMapper:  mapper.NewGeneratorMapper(),
		config:           config,
		logger:           codegen.Logger,
	}
}

func GeneratorHandler(router *graceful.Graceful) {
	cfg := codegen.GetConfig()

	schema, err := service.NewSchemaSource(context.Background())
	if err != nil {
		codegen.Logger.Fatal().Err(err).Msg("Failed to open schema source")
	}

	registry := gen.NewDefaultRegistry(gen.Options{
		Fs:     afero.NewOsFs(),
		Root:   cfg.Gii.OutputRoot,
		Schema: schema,
	})
	sticky := repo.NewStickyRepository()

	h := newGeneratorHandler(
		service.NewGeneratorService(registry, sticky, service.NewCommitPublisher()),
		service.NewBulkService(registry, schema, sticky, service.BulkDefaults{
			Ns:        cfg.Gii.GenAllNs,
			BaseClass: cfg.Gii.GenAllBase,
			QueryNs:   cfg.Gii.GenAllQueryNs,
		}),
		cfg,
	)
	h.register(router)
}

func (slf *generatorHandler) register(router gin.IRouter) {
	routes := router.Group("/api/v1/gii")
	routes.Use(
		middleware.RequestID(),
		middleware.AllowedIPs(slf.config.Gii.AllowedIPs),
		middleware.AuthMiddleware(slf.config),
	)
	{
		routes.GET("", slf.index)
		routes.POST("/gen-all", slf.genAll)

		methods := []string{http.MethodGet, http.MethodPost}
		routes.Match(methods, "/:id", slf.view)
		routes.Match(methods, "/:id/preview/:file", slf.preview)
		routes.Match(methods, "/:id/diff/:file", slf.diff)
		routes.Match(methods, "/:id/action/:name", slf.action)
	}
}

func (slf *generatorHandler) index(c *gin.Context) {
	c.JSON(http.StatusOK, slf.generatorMapper.ToGeneratorInfos(slf.generatorService.Generators()))
}

func (slf *generatorHandler) view(c *gin.Context) {
	params, ok := slf.parseParams(c)
	if !ok {
		return
	}

	vm, err := slf.generatorService.View(c.Request.Context(), c.Param("id"), params)
	if err != nil {
		slf.handleError(c, err, "Failed to run generator")
		return
	}
	c.JSON(http.StatusOK, slf.generatorMapper.ToGeneratorView(vm))
}

func (slf *generatorHandler) preview(c *gin.Context) {
	params, ok := slf.parseParams(c)
	if !ok {
		return
	}

	content, err := slf.generatorService.PreviewFile(c.Request.Context(), c.Param("id"), c.Param("file"), params)
	if err != nil {
		slf.handleError(c, err, "Failed to preview file")
		return
	}
	c.Data(http.StatusOK, htmlContentType, []byte(content))
}

func (slf *generatorHandler) diff(c *gin.Context) {
	params, ok := slf.parseParams(c)
	if !ok {
		return
	}

	diff, err := slf.generatorService.DiffFile(c.Request.Context(), c.Param("id"), c.Param("file"), params)
	if err != nil {
		slf.handleError(c, err, "Failed to diff file")
		return
	}

	var buf bytes.Buffer
	data := struct {
		Unsupported bool
		Diff        *gen.FileDiff
	}{Unsupported: diff == nil, Diff: diff}
	if err := diffTemplate.Execute(&buf, data); err != nil {
		slf.logger.Error().Err(err).Msg("Failed to render diff")
		c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to render diff"})
		return
	}
	c.Data(http.StatusOK, htmlContentType, buf.Bytes())
}

func (slf *generatorHandler) action(c *gin.Context) {
	params, ok := slf.parseParams(c)
	if !ok {
		return
	}

	result, err := slf.generatorService.DispatchAction(c.Request.Context(), c.Param("id"), c.Param("name"), params)
	if err != nil {
		slf.handleError(c, err, "Failed to run generator action")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (slf *generatorHandler) genAll(c *gin.Context) {
	var req request.GenAll
	if c.Request.ContentLength > 0 {
		if err := pkg.ParseAndValidate(c, &req); err != nil {
			c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
			return
		}
	}

	result, err := slf.bulkService.GenerateAllWith(c.Request.Context(), service.BulkDefaults{
		Ns:        req.Ns,
		BaseClass: req.BaseClass,
		QueryNs:   req.QueryNs,
	})
	if err != nil {
		slf.handleError(c, err, "Failed to generate models")
		return
	}
	c.JSON(http.StatusOK, slf.generatorMapper.ToBulkGeneration(result))
}

func (slf *generatorHandler) parseParams(c *gin.Context) (*gen.Params, bool) {
	params, err := request.ParseParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return nil, false
	}
	return params, true
}

func (slf *generatorHandler) handleError(c *gin.Context, err error, message string) {
	if errors.Is(err, service.ErrNotFound) {
		c.JSON(http.StatusNotFound, response.APIError{Message: err.Error()})
		return
	}
	slf.logger.Error().Err(err).
		Str("requestID", middleware.GetRequestID(c)).
		Str("generator", c.Param("id")).
		Msg(message)
	c.JSON(http.StatusInternalServerError, response.APIError{Message: message})
}
