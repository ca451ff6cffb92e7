package service

import (
	"codegen"
	"codegen/internal/api/models"
	"codegen/internal/gen"
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"gorm.io/gorm"
)

// NewSchemaSource returns the schema reader configured for the generators:
// the optional schema database when its type is set, the main database
// otherwise.
func NewSchemaSource(ctx context.Context) (gen.SchemaReader, error) {
	cfg := codegen.GetConfig().SchemaDatabase
	if cfg.Type == "" {
		return NewGormSchemaSource(), nil
	}

	source, err := NewSQLSchemaSource(models.DBConnectionConfig{
		Type:     models.DBType(cfg.Type),
		Host:     cfg.Host,
		Port:     cfg.Port,
		Database: cfg.DatabaseName,
		Username: cfg.User,
		Password: cfg.Password,
		SSLMode:  cfg.SSLMode,
	})
	if err != nil {
		return nil, err
	}

	version, err := source.Version(ctx)
	if err != nil {
		codegen.Logger.Warn().Err(err).Str("type", cfg.Type).Msg("Schema database is not reachable yet")
	} else {
		codegen.Logger.Info().Str("type", cfg.Type).Str("version", version).Msg("Connected to schema database")
	}
	return source, nil
}

// GormSchemaSource reads tables of the main database through gorm's migrator
type GormSchemaSource struct {
	Db *gorm.DB
}

func NewGormSchemaSource() *GormSchemaSource {
	return &GormSchemaSource{Db: codegen.DB}
}

func (slf *GormSchemaSource) TableNames(ctx context.Context) ([]string, error) {
	names, err := slf.Db.WithContext(ctx).Migrator().GetTables()
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

func (slf *GormSchemaSource) Table(ctx context.Context, name string) (*models.Table, error) {
	columnTypes, err := slf.Db.WithContext(ctx).Migrator().ColumnTypes(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", name, err)
	}
	if len(columnTypes) == 0 {
		return nil, fmt.Errorf("table %s not found", name)
	}

	schema, table := splitTableName(name)
	result := &models.Table{Schema: schema, Name: table}
	for _, ct := range columnTypes {
		col := models.Column{Name: ct.Name(), Type: ct.DatabaseTypeName()}
		col.Nullable, _ = ct.Nullable()
		col.IsPrimary, _ = ct.PrimaryKey()
		if length, ok := ct.Length(); ok && length > 0 {
			col.Length = length
		}
		col.Comment, _ = ct.Comment()
		result.Columns = append(result.Columns, col)
	}
	return result, nil
}

// SQLSchemaSource reads tables of an external postgres, MySQL or SQL Server
// database through information_schema style catalog queries.
type SQLSchemaSource struct {
	Db   *sql.DB
	Type models.DBType
}

func NewSQLSchemaSource(cfg models.DBConnectionConfig) (*SQLSchemaSource, error) {
	if getTablesQuery(cfg.Type) == "" {
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
	db, err := sql.Open(cfg.GetDriverName(), cfg.BuildConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}

	db.SetConnMaxLifetime(30 * time.Second)
	db.SetMaxOpenConns(2)

	return &SQLSchemaSource{Db: db, Type: cfg.Type}, nil
}

// Version returns the server version string
func (slf *SQLSchemaSource) Version(ctx context.Context) (string, error) {
	var version string
	if err := slf.Db.QueryRowContext(ctx, getVersionQuery(slf.Type)).Scan(&version); err != nil {
		return "", fmt.Errorf("failed to read database version: %w", err)
	}
	return version, nil
}

// TableNames lists the tables. Tables outside the default schema are
// qualified as schema.table.
func (slf *SQLSchemaSource) TableNames(ctx context.Context) ([]string, error) {
	rows, err := slf.Db.QueryContext(ctx, getTablesQuery(slf.Type))
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var schema, name string
		if err := rows.Scan(&schema, &name); err != nil {
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}
		if schema == "" || schema == defaultSchema(slf.Type) || slf.Type == models.DBTypeMySQL {
			names = append(names, name)
		} else {
			names = append(names, schema+"."+name)
		}
	}
	return names, rows.Err()
}

func (slf *SQLSchemaSource) Table(ctx context.Context, name string) (*models.Table, error) {
	schema, table := splitTableName(name)
	rows, err := slf.Db.QueryContext(ctx, getColumnsQuery(slf.Type), schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	result := &models.Table{Schema: schema, Name: table}
	for rows.Next() {
		var col models.Column
		var length sql.NullInt64
		var comment sql.NullString
		if err := rows.Scan(&col.Name, &col.Type, &col.Nullable, &col.IsPrimary, &length, &comment); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		col.Length = length.Int64
		col.Comment = comment.String
		result.Columns = append(result.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(result.Columns) == 0 {
		return nil, fmt.Errorf("table %s not found", name)
	}
	return result, nil
}

func (slf *SQLSchemaSource) Close() error {
	return slf.Db.Close()
}

func splitTableName(name string) (schema, table string) {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}

func defaultSchema(dbType models.DBType) string {
	switch dbType {
	case models.DBTypePostgres:
		return "public"
	case models.DBTypeSQLServer:
		return "dbo"
	default:
		return ""
	}
}

// getVersionQuery returns the version query for a database type
func getVersionQuery(dbType models.DBType) string {
	switch dbType {
	case models.DBTypeSQLServer:
		return "SELECT @@VERSION"
	default:
		return "SELECT version()"
	}
}

// getTablesQuery returns the query to list tables for a database type
func getTablesQuery(dbType models.DBType) string {
	switch dbType {
	case models.DBTypePostgres:
		return `
			SELECT table_schema, table_name
			FROM information_schema.tables
			WHERE table_type = 'BASE TABLE'
			  AND table_schema NOT IN ('pg_catalog', 'information_schema')
			ORDER BY table_schema, table_name`
	case models.DBTypeMySQL:
		return `
			SELECT table_schema, table_name
			FROM information_schema.tables
			WHERE table_type = 'BASE TABLE'
			  AND table_schema = DATABASE()
			ORDER BY table_name`
	case models.DBTypeSQLServer:
		return `
			SELECT SCHEMA_NAME(schema_id) AS table_schema, name AS table_name
			FROM sys.tables
			WHERE is_ms_shipped = 0
			ORDER BY table_schema, table_name`
	default:
		return ""
	}
}

// getColumnsQuery returns the query to list columns of a table. It takes the
// schema (empty for the current one) and the table name as arguments.
func getColumnsQuery(dbType models.DBType) string {
	switch dbType {
	case models.DBTypePostgres:
		return `
			SELECT
				c.column_name,
				c.data_type,
				c.is_nullable = 'YES' AS is_nullable,
				EXISTS (
					SELECT 1
					FROM information_schema.table_constraints tc
					JOIN information_schema.key_column_usage kcu
						ON tc.constraint_name = kcu.constraint_name
						AND tc.table_schema = kcu.table_schema
					WHERE tc.constraint_type = 'PRIMARY KEY'
						AND kcu.table_schema = c.table_schema
						AND kcu.table_name = c.table_name
						AND kcu.column_name = c.column_name
				) AS is_primary,
				c.character_maximum_length,
				col_description(
					(quote_ident(c.table_schema) || '.' || quote_ident(c.table_name))::regclass,
					c.ordinal_position
				) AS column_comment
			FROM information_schema.columns c
			WHERE c.table_schema = COALESCE(NULLIF($1, ''), current_schema())
			  AND c.table_name = $2
			ORDER BY c.ordinal_position`
	case models.DBTypeMySQL:
		return `
			SELECT
				column_name,
				data_type,
				is_nullable = 'YES' AS is_nullable,
				column_key = 'PRI' AS is_primary,
				character_maximum_length,
				column_comment
			FROM information_schema.columns
			WHERE table_schema = COALESCE(NULLIF(?, ''), DATABASE())
			  AND table_name = ?
			ORDER BY ordinal_position`
	case models.DBTypeSQLServer:
		return `
			SELECT
				c.name AS column_name,
				t.name AS data_type,
				c.is_nullable,
				CAST(ISNULL(pk.is_primary_key, 0) AS BIT) AS is_primary,
				CAST(NULLIF(c.max_length, -1) AS BIGINT) AS max_length,
				CAST(ep.value AS NVARCHAR(4000)) AS column_comment
			FROM sys.columns c
			JOIN sys.types t ON c.user_type_id = t.user_type_id
			JOIN sys.tables tbl ON c.object_id = tbl.object_id
			LEFT JOIN (
				SELECT ic.object_id, ic.column_id, 1 AS is_primary_key
				FROM sys.index_columns ic
				JOIN sys.indexes i ON ic.object_id = i.object_id AND ic.index_id = i.index_id
				WHERE i.is_primary_key = 1
			) pk ON c.object_id = pk.object_id AND c.column_id = pk.column_id
			LEFT JOIN sys.extended_properties ep
				ON ep.major_id = c.object_id AND ep.minor_id = c.column_id AND ep.name = 'MS_Description'
			WHERE SCHEMA_NAME(tbl.schema_id) = COALESCE(NULLIF(@p1, ''), SCHEMA_NAME())
			  AND tbl.name = @p2
			ORDER BY c.column_id`
	default:
		return ""
	}
}
