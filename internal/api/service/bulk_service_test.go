package service

import (
	"codegen/internal/api/models"
	"codegen/internal/gen"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupBulkService(fs afero.Fs, schema *fakeSchema) (*BulkService, *memoryStickyStore) {
	registry := gen.NewDefaultRegistry(gen.Options{Fs: fs, Root: "/out", Schema: schema})
	sticky := newMemoryStickyStore()
	svc := NewBulkService(registry, schema, sticky, BulkDefaults{Ns: "models", QueryNs: "repo"})
	svc.logger = zerolog.Nop()
	return svc, sticky
}

func TestBulkService_GenerateAll(t *testing.T) {
	fs := afero.NewMemMapFs()
	schema := testSchema()
	schema.tables["bad-table"] = &models.Table{Name: "bad-table"}
	svc, sticky := setupBulkService(fs, schema)
	sticky.values[gen.ModelGeneratorID] = map[string]string{"ns": "elsewhere", "baseClass": "gorm.Model"}

	result, err := svc.GenerateAll(context.Background())
	require.NoError(t, err)

	assert.False(t, result.HasError)
	require.Len(t, result.Tables, 3)

	bad := result.Tables[0]
	assert.Equal(t, "bad-table", bad.Table)
	assert.True(t, bad.Skipped)
	assert.True(t, bad.Errors.Has("tableName"))

	for _, tr := range result.Tables[1:] {
		assert.True(t, tr.Success, tr.Table)
		require.Len(t, tr.Results, 1, tr.Table)
		assert.True(t, tr.Results[0].Success)
	}

	content, err := afero.ReadFile(fs, "/out/models/order.go")
	require.NoError(t, err)
	assert.Contains(t, string(content), "type Order struct")
	assert.NotContains(t, string(content), "gorm.Model")

	exists, _ := afero.Exists(fs, "/out/models/user.go")
	assert.True(t, exists)

	assert.Equal(t, "users", sticky.values[gen.ModelGeneratorID]["tableName"])
	assert.Equal(t, "models", sticky.values[gen.ModelGeneratorID]["ns"])
}

func TestBulkService_WriteFailure(t *testing.T) {
	svc, _ := setupBulkService(afero.NewReadOnlyFs(afero.NewMemMapFs()), testSchema())

	result, err := svc.GenerateAll(context.Background())
	require.NoError(t, err)

	assert.True(t, result.HasError)
	require.Len(t, result.Tables, 2)
	for _, tr := range result.Tables {
		assert.False(t, tr.Success)
		assert.False(t, tr.Skipped)
	}
}

func TestBulkService_SchemaError(t *testing.T) {
	schema := &fakeSchema{err: errors.New("connection refused")}
	svc, _ := setupBulkService(afero.NewMemMapFs(), schema)

	_, err := svc.GenerateAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestBulkService_GenerateAllWithOverrides(t *testing.T) {
	fs := afero.NewMemMapFs()
	svc, _ := setupBulkService(fs, testSchema())

	result, err := svc.GenerateAllWith(context.Background(), BulkDefaults{Ns: "internal/entities", BaseClass: "gorm.Model"})
	require.NoError(t, err)
	assert.False(t, result.HasError)

	content, err := afero.ReadFile(fs, "/out/internal/entities/user.go")
	require.NoError(t, err)
	assert.Contains(t, string(content), "package entities")
	assert.Contains(t, string(content), "gorm.Model")
}

func TestBulkDefaults_Merge(t *testing.T) {
	d := BulkDefaults{Ns: "models", BaseClass: "gorm.Model", QueryNs: "repo"}
	merged := d.merge(BulkDefaults{Ns: "entities"})
	assert.Equal(t, BulkDefaults{Ns: "entities", BaseClass: "gorm.Model", QueryNs: "repo"}, merged)
}

func TestTableParams(t *testing.T) {
	p := tableParams("order_items", BulkDefaults{Ns: "models", QueryNs: "repo"})
	get := func(k string) string {
		v, _ := p.Get(k)
		return v
	}
	assert.Equal(t, "order_items", get("tableName"))
	assert.Equal(t, "OrderItem", get("modelClass"))
	assert.Equal(t, "OrderItemQuery", get("queryClass"))
	assert.Equal(t, "0", get("generateQuery"))
	assert.Equal(t, "default", get("template"))
}
