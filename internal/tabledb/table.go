package tabledb

import (
	"fmt"
	"math"

	dberrors "github.com/maruel/tabdb/internal/errors"
)

// Table holds an ordered schema, rows in insertion order and one counter per
// auto-increment column.
type Table struct {
	name        string
	schema      []Attribute
	rows        []Row
	foreignKeys []ForeignKey
	counters    map[string]int64
}

func newTable(name string) *Table {
	return &Table{
		name:     name,
		counters: make(map[string]int64),
	}
}

// Name returns the table name.
func (t *Table) Name() string {
	return t.name
}

// Schema returns a copy of the column descriptors in declaration order.
func (t *Table) Schema() []Attribute {
	return append([]Attribute(nil), t.schema...)
}

// Columns returns column names in declaration order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.schema))
	for i, a := range t.schema {
		out[i] = a.Name
	}
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Rows returns clones of all rows in insertion order.
func (t *Table) Rows() []Row {
	out := make([]Row, len(t.rows))
	for i, r := range t.rows {
		out[i] = r.Clone()
	}
	return out
}

// HasColumn reports whether col is part of the schema.
func (t *Table) HasColumn(col string) bool {
	_, ok := t.Attribute(col)
	return ok
}

// Attribute returns the descriptor of column col.
func (t *Table) Attribute(col string) (Attribute, bool) {
	for _, a := range t.schema {
		if a.Name == col {
			return a, true
		}
	}
	return Attribute{}, false
}

// Counter returns the next value the auto-increment column col will assign.
func (t *Table) Counter(col string) (int64, bool) {
	v, ok := t.counters[col]
	return v, ok
}

// ForeignKeys returns a copy of the declared foreign keys.
func (t *Table) ForeignKeys() []ForeignKey {
	return append([]ForeignKey(nil), t.foreignKeys...)
}

// AddForeignKey declares a reference from a local column. The referenced
// table is resolved only at validation time.
func (t *Table) AddForeignKey(fk ForeignKey) error {
	if !t.HasColumn(fk.Column) {
		return dberrors.Schema(dberrors.ErrColumnNotFound, fk.Column).WithDetail("table", t.name)
	}
	if fk.RefTable == "" || fk.RefColumn == "" {
		return dberrors.Syntax("foreign key on %q needs a referenced table and column", fk.Column)
	}
	t.foreignKeys = append(t.foreignKeys, fk)
	return nil
}

// addAttribute appends a column. Auto-increment counters start at 1.
func (t *Table) addAttribute(a Attribute) error {
	if a.Name == "" {
		return dberrors.Syntax("column name is required")
	}
	if !a.Type.Valid() {
		return dberrors.Schema(dberrors.ErrUnknownType, fmt.Sprintf("%d", int(a.Type))).WithDetail("column", a.Name)
	}
	if t.HasColumn(a.Name) {
		return dberrors.Schema(dberrors.ErrDuplicateCol, a.Name).WithDetail("table", t.name)
	}
	if a.PrimaryKey {
		for _, b := range t.schema {
			if b.PrimaryKey {
				return dberrors.Schema(dberrors.ErrMultiplePrimaryKeys, a.Name).WithDetail("table", t.name)
			}
		}
	}
	if a.HasDefault {
		a.Default = normalize(a.Default)
	}
	t.schema = append(t.schema, a)
	if a.AutoIncrement {
		t.counters[a.Name] = 1
	}
	return nil
}

// nextCounter returns the current counter value for col and advances it.
func (t *Table) nextCounter(col string) (int64, error) {
	v := t.counters[col]
	if v < 1 || v == math.MaxInt64 {
		return 0, dberrors.Constraint(dberrors.ErrCounterExhausted, col).WithDetail("table", t.name)
	}
	t.counters[col] = v + 1
	return v, nil
}

// resetCounters moves every auto-increment counter to one past the largest
// numeric value stored in its column, with a minimum of 1.
//
// A stored value at or beyond the int64 limit leaves no room for the next
// generated value and is reported instead.
func (t *Table) resetCounters() error {
	for _, a := range t.schema {
		if !a.AutoIncrement {
			continue
		}
		var maxv int64
		for _, r := range t.rows {
			v, ok := r[a.Name]
			if !ok {
				continue
			}
			n, ok := v.Int64()
			if !ok {
				if f, isFloat := v.Data.(float64); isFloat && f >= maxInt64Float {
					return dberrors.Constraint(dberrors.ErrCounterExhausted, a.Name).WithDetail("table", t.name)
				}
				continue
			}
			if n > maxv {
				maxv = n
			}
		}
		if maxv == math.MaxInt64 {
			return dberrors.Constraint(dberrors.ErrCounterExhausted, a.Name).WithDetail("table", t.name)
		}
		t.counters[a.Name] = maxv + 1
	}
	return nil
}
