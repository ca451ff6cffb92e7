package endpoints

import (
	"codegen"
	"codegen/internal/api/models"
	"codegen/internal/api/repo"
	"codegen/internal/api/service"
	"codegen/internal/gen"
	"codegen/pkg"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySchema struct {
	tables map[string]*models.Table
}

func (s *memorySchema) TableNames(ctx context.Context) ([]string, error) {
	names := make([]string, 0, len(s.tables))
	for n := range s.tables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (s *memorySchema) Table(ctx context.Context, name string) (*models.Table, error) {
	t, ok := s.tables[name]
	if !ok {
		return nil, errors.New("no such table")
	}
	return t, nil
}

type testServer struct {
	router *gin.Engine
	fs     afero.Fs
	redis  *miniredis.Miniredis
}

func setupServer(t *testing.T, configure func(cfg *codegen.AppConfig)) *testServer {
	gin.SetMode(gin.TestMode)

	schema := &memorySchema{tables: map[string]*models.Table{
		"users": {Name: "users", Columns: []models.Column{
			{Name: "id", Type: "int4", IsPrimary: true},
			{Name: "name", Type: "varchar", Length: 100},
		}},
		"orders": {Name: "orders", Columns: []models.Column{
			{Name: "id", Type: "int8", IsPrimary: true},
		}},
	}}

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sticky := &repo.StickyRepository{Redis: client, TTL: time.Hour}

	fs := afero.NewMemMapFs()
	registry := gen.NewDefaultRegistry(gen.Options{Fs: fs, Root: "/out", Schema: schema})

	cfg := codegen.AppConfig{Mode: "dev"}
	cfg.JWTConfig.Secret = "test-secret"
	cfg.Gii.AllowedIPs = []string{"127.0.0.1", "192.0.2.*"}
	if configure != nil {
		configure(&cfg)
	}

	generatorService := service.NewGeneratorService(registry, sticky, service.NoopCommitPublisher{})
	bulkService := service.NewBulkService(registry, schema, sticky, service.BulkDefaults{Ns: "internal/models"})

	h := newGeneratorHandler(generatorService, bulkService, cfg)
	h.logger = zerolog.Nop()

	router := gin.New()
	h.register(router)
	return &testServer{router: router, fs: fs, redis: mr}
}

func (s *testServer) do(method, target, contentType, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) postForm(target string, form url.Values) *httptest.ResponseRecorder {
	return s.do(http.MethodPost, target, "application/x-www-form-urlencoded", form.Encode())
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func fileID(relPath string) string {
	return gen.NewCodeFile(afero.NewMemMapFs(), "/", relPath, nil).ID
}

// ============ Index Tests ============

func TestGeneratorHandler_Index(t *testing.T) {
	s := setupServer(t, nil)

	w := s.do(http.MethodGet, "/api/v1/gii", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var infos []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &infos))
	ids := make([]string, len(infos))
	for i, info := range infos {
		ids[i] = info["id"].(string)
	}
	assert.ElementsMatch(t, []string{gen.ModelGeneratorID, gen.HandlerGeneratorID}, ids)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

// ============ View Tests ============

func TestGeneratorHandler_ViewUnknownGenerator(t *testing.T) {
	s := setupServer(t, nil)

	w := s.do(http.MethodGet, "/api/v1/gii/nope", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Code generator not found: nope", decode(t, w)["message"])
}

func TestGeneratorHandler_ViewForm(t *testing.T) {
	s := setupServer(t, nil)

	w := s.do(http.MethodGet, "/api/v1/gii/model", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "form", body["phase"])
	attributes := body["attributes"].(map[string]any)
	assert.Equal(t, "internal/models", attributes["ns"])
	assert.NotContains(t, body, "files")
}

func TestGeneratorHandler_ViewInvalid(t *testing.T) {
	s := setupServer(t, nil)

	w := s.postForm("/api/v1/gii/model", url.Values{"tableName": {"missing"}, "preview": {""}})
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "invalid", body["phase"])
	errs := body["errors"].(map[string]any)
	assert.Contains(t, errs, "tableName")
}

func TestGeneratorHandler_ViewPreview(t *testing.T) {
	s := setupServer(t, nil)

	w := s.postForm("/api/v1/gii/model", url.Values{"tableName": {"users"}, "preview": {""}})
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "preview", body["phase"])
	files := body["files"].([]any)
	require.Len(t, files, 1)
	file := files[0].(map[string]any)
	assert.Equal(t, "internal/models/user.go", file["path"])
	assert.Equal(t, fileID("internal/models/user.go"), file["id"])
	assert.Equal(t, "create", file["operation"])
	assert.Equal(t, true, file["selected"])

	exists, _ := afero.Exists(s.fs, "/out/internal/models/user.go")
	assert.False(t, exists)
}

func TestGeneratorHandler_StickyAttributesSurviveRequests(t *testing.T) {
	s := setupServer(t, nil)

	w := s.postForm("/api/v1/gii/model", url.Values{"tableName": {"users"}, "ns": {"internal/entities"}, "preview": {""}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, s.redis.Exists("gii:sticky:model"))

	w = s.do(http.MethodGet, "/api/v1/gii/model", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	attributes := decode(t, w)["attributes"].(map[string]any)
	assert.Equal(t, "internal/entities", attributes["ns"])
	assert.Equal(t, "users", attributes["tableName"])
}

func TestGeneratorHandler_ViewCommit(t *testing.T) {
	s := setupServer(t, nil)
	id := fileID("internal/models/order.go")

	w := s.do(http.MethodPost, "/api/v1/gii/model", "application/json",
		`{"tableName":"orders","generate":"1","answers":{"`+id+`":true}}`)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "committed", body["phase"])
	assert.Equal(t, false, body["hasError"])
	results := body["results"].([]any)
	require.Len(t, results, 1)
	assert.Equal(t, true, results[0].(map[string]any)["success"])

	content, err := afero.ReadFile(s.fs, "/out/internal/models/order.go")
	require.NoError(t, err)
	assert.Contains(t, string(content), "type Order struct")
}

func TestGeneratorHandler_GenerateWithoutAnswersPreviews(t *testing.T) {
	s := setupServer(t, nil)

	w := s.postForm("/api/v1/gii/model", url.Values{"tableName": {"orders"}, "generate": {""}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "preview", decode(t, w)["phase"])
}

func TestGeneratorHandler_ViewBadJSON(t *testing.T) {
	s := setupServer(t, nil)

	w := s.do(http.MethodPost, "/api/v1/gii/model", "application/json", `{"tableName":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ============ Preview Tests ============

func TestGeneratorHandler_Preview(t *testing.T) {
	s := setupServer(t, nil)
	target := "/api/v1/gii/model/preview/" + fileID("internal/models/user.go")

	w := s.postForm(target, url.Values{"tableName": {"users"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, htmlContentType, w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Body.String(), `<div class="content">package models`))
	assert.Contains(t, w.Body.String(), "type User struct")
}

func TestGeneratorHandler_PreviewUnknownFile(t *testing.T) {
	s := setupServer(t, nil)

	w := s.postForm("/api/v1/gii/model/preview/zzz", url.Values{"tableName": {"users"}})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Code file not found: zzz", decode(t, w)["message"])
}

func TestGeneratorHandler_PreviewInvalidForm(t *testing.T) {
	s := setupServer(t, nil)
	target := "/api/v1/gii/model/preview/" + fileID("internal/models/user.go")

	w := s.postForm(target, url.Values{"tableName": {"missing"}})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// ============ Diff Tests ============

func TestGeneratorHandler_DiffNewFile(t *testing.T) {
	s := setupServer(t, nil)
	target := "/api/v1/gii/model/diff/" + fileID("internal/models/user.go")

	w := s.postForm(target, url.Values{"tableName": {"users"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Identical.")
}

func TestGeneratorHandler_DiffChangedFile(t *testing.T) {
	s := setupServer(t, nil)
	require.NoError(t, afero.WriteFile(s.fs, "/out/internal/models/user.go", []byte("package models\n\ntype User struct{}\n"), 0o644))
	target := "/api/v1/gii/model/diff/" + fileID("internal/models/user.go")

	w := s.postForm(target, url.Values{"tableName": {"users"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, htmlContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), `<table class="diff"`)
	assert.Contains(t, w.Body.String(), "@@ -")
	assert.Contains(t, w.Body.String(), `class="removed"`)
	assert.Contains(t, w.Body.String(), `class="added"`)
}

// ============ Action Tests ============

func TestGeneratorHandler_Action(t *testing.T) {
	s := setupServer(t, nil)

	w := s.do(http.MethodGet, "/api/v1/gii/model/action/TableNames", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var names []string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &names))
	assert.Equal(t, []string{"orders", "users"}, names)
}

func TestGeneratorHandler_UnknownAction(t *testing.T) {
	s := setupServer(t, nil)

	w := s.do(http.MethodGet, "/api/v1/gii/model/action/Nope", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Unknown generator action: Nope", decode(t, w)["message"])
}

// ============ Gen All Tests ============

func TestGeneratorHandler_GenAll(t *testing.T) {
	s := setupServer(t, nil)

	w := s.do(http.MethodPost, "/api/v1/gii/gen-all", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, false, body["hasError"])
	assert.Len(t, body["tables"].([]any), 2)

	for _, p := range []string{"/out/internal/models/order.go", "/out/internal/models/user.go"} {
		exists, _ := afero.Exists(s.fs, p)
		assert.True(t, exists, p)
	}
}

func TestGeneratorHandler_GenAllOverrides(t *testing.T) {
	s := setupServer(t, nil)

	w := s.do(http.MethodPost, "/api/v1/gii/gen-all", "application/json", `{"ns":"internal/entities"}`)
	require.Equal(t, http.StatusOK, w.Code)

	exists, _ := afero.Exists(s.fs, "/out/internal/entities/user.go")
	assert.True(t, exists)
}

func TestGeneratorHandler_GenAllInvalidBody(t *testing.T) {
	s := setupServer(t, nil)

	w := s.do(http.MethodPost, "/api/v1/gii/gen-all", "application/json", `{"ns":"`+strings.Repeat("a", 201)+`"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ============ Access Tests ============

func TestGeneratorHandler_ForbiddenIP(t *testing.T) {
	s := setupServer(t, func(cfg *codegen.AppConfig) {
		cfg.Gii.AllowedIPs = []string{"10.0.0.1"}
	})

	w := s.do(http.MethodGet, "/api/v1/gii", "", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "You are not allowed to access this page.", decode(t, w)["message"])
}

func TestGeneratorHandler_RequiresTokenOutsideDev(t *testing.T) {
	s := setupServer(t, func(cfg *codegen.AppConfig) {
		cfg.Mode = "prod"
	})

	w := s.do(http.MethodGet, "/api/v1/gii", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := pkg.GenerateToken(1, "dev@example.com", "admin", "test-secret", time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/gii", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
