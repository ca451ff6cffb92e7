package gen

import (
	"path"
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"
	"gorm.io/gorm/schema"
)

var (
	// pluralTables singularizes table names into struct names: user_orders → UserOrder
	pluralTables = schema.NamingStrategy{}
	// exactNames keeps the number of the input: user_id → UserID, OrderItem → order_item
	exactNames = schema.NamingStrategy{SingularTable: true}
)

// StructName derives a model struct name from a table name
func StructName(table string) string {
	if i := strings.LastIndex(table, "."); i >= 0 {
		table = table[i+1:]
	}
	return pluralTables.SchemaName(table)
}

// FieldName derives an exported Go field name from a column name
func FieldName(column string) string {
	name := exactNames.SchemaName(column)
	if name == "" || !unicode.IsLetter(rune(name[0])) {
		name = "F" + name
	}
	return name
}

// FileName derives a snake_case file base name from a Go type name
func FileName(typeName string) string {
	return exactNames.TableName(typeName)
}

// ResourcePath derives the kebab-case plural URL segment of a type name: OrderItem → order-items
func ResourcePath(typeName string) string {
	return strings.ReplaceAll(inflection.Plural(FileName(typeName)), "_", "-")
}

// PackageName is the last element of a package path
func PackageName(pkgPath string) string {
	return path.Base(pkgPath)
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	// keep initialisms readable: ID → id, HTTPServer → httpServer
	i := 0
	for i < len(runes) && unicode.IsUpper(runes[i]) {
		i++
	}
	switch {
	case i == 0:
		return s
	case i == 1 || i == len(runes):
		return strings.ToLower(string(runes[:i])) + string(runes[i:])
	default:
		return strings.ToLower(string(runes[:i-1])) + string(runes[i-1:])
	}
}

// GoType maps a database column type to the Go type used in generated models
func GoType(dbType string, nullable bool) (goType string, needsTime bool) {
	t := strings.ToLower(dbType)
	if i := strings.IndexAny(t, "( "); i >= 0 {
		t = t[:i]
	}
	switch t {
	case "int", "integer", "int4", "serial", "mediumint":
		goType = "int"
	case "bigint", "int8", "bigserial":
		goType = "int64"
	case "smallint", "int2", "smallserial":
		goType = "int16"
	case "tinyint":
		goType = "int8"
	case "bool", "boolean", "bit":
		goType = "bool"
	case "numeric", "decimal", "real", "float", "float4", "float8", "double", "money":
		goType = "float64"
	case "date", "datetime", "datetime2", "timestamp", "timestamptz", "time", "timetz", "smalldatetime", "datetimeoffset":
		goType = "time.Time"
		needsTime = true
	case "bytea", "blob", "binary", "varbinary", "image", "longblob", "mediumblob":
		return "[]byte", false
	default:
		goType = "string"
	}
	if nullable {
		goType = "*" + goType
	}
	return goType, needsTime
}
