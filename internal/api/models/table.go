package models

// Table is a database table as seen by the generators
type Table struct {
	Schema  string   `json:"schema"`
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

// Column describes one table column. GoType is the Go type the model
// generator writes for it.
type Column struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	GoType    string `json:"goType"`
	Nullable  bool   `json:"nullable"`
	IsPrimary bool   `json:"isPrimary"`
	// Length is the maximum length for string types
	Length  int64  `json:"length,omitempty"`
	Comment string `json:"comment,omitempty"`
}

// PrimaryKeys returns the names of the primary key columns
func (slf Table) PrimaryKeys() []string {
	var keys []string
	for _, c := range slf.Columns {
		if c.IsPrimary {
			keys = append(keys, c.Name)
		}
	}
	return keys
}

// QualifiedName is schema.name, or just name for the default schema
func (slf Table) QualifiedName() string {
	if slf.Schema == "" {
		return slf.Name
	}
	return slf.Schema + "." + slf.Name
}
