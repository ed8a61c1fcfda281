package tabledb

// Attribute describes one column of a table schema.
type Attribute struct {
	Name          string
	Type          DType
	PrimaryKey    bool
	AutoIncrement bool
	NotNull       bool
	// HasDefault reports whether Default is set; a null default is valid.
	HasDefault bool
	Default    any
}

// WithDefault returns a copy of a with the given default value.
func (a Attribute) WithDefault(v any) Attribute {
	a.HasDefault = true
	a.Default = normalize(v)
	return a
}

// ForeignKey links a local column to a column of another table.
//
// It is checked on demand by [Database.ValidateForeignKeys], never on insert.
type ForeignKey struct {
	Column    string
	RefTable  string
	RefColumn string
}

// Row maps column names to values. Rows inserted through [Table.Insert] have
// one entry per schema column.
type Row map[string]Value

// Get returns the payload of column col, or nil if absent.
func (r Row) Get(col string) any {
	return r[col].Data
}

// Data returns the row as a flat JSON object.
func (r Row) Data() map[string]any {
	out := make(map[string]any, len(r))
	for k, v := range r {
		out[k] = v.Data
	}
	return out
}

// Clone returns a shallow copy of the row map.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
