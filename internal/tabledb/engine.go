package tabledb

import (
	dberrors "github.com/maruel/tabdb/internal/errors"
)

// Insert resolves a value for every schema column and appends the row.
//
// Resolution order per column: explicit value in values, generated
// auto-increment value, declared default, error if NOT NULL, otherwise null.
// Keys of values that are not schema columns are ignored.
//
// Auto-increment counters advance while columns are resolved and are not
// rolled back when the primary key check later rejects the row.
func (t *Table) Insert(values map[string]any) (Row, error) {
	row := make(Row, len(t.schema))
	for _, a := range t.schema {
		if v, ok := values[a.Name]; ok {
			row[a.Name] = NewValue(a.Type, v)
			continue
		}
		if a.AutoIncrement {
			n, err := t.nextCounter(a.Name)
			if err != nil {
				return nil, err
			}
			row[a.Name] = Value{Type: a.Type, Data: n}
			continue
		}
		if a.HasDefault {
			row[a.Name] = Value{Type: a.Type, Data: a.Default}
			continue
		}
		if a.NotNull {
			return nil, dberrors.Constraint(dberrors.ErrMissingColumn, a.Name).WithDetail("table", t.name)
		}
		row[a.Name] = Value{Type: a.Type}
	}

	for _, a := range t.schema {
		if !a.PrimaryKey {
			continue
		}
		key := row[a.Name]
		for _, existing := range t.rows {
			if key.Equal(existing[a.Name]) {
				return nil, dberrors.Constraint(dberrors.ErrDuplicateKey, a.Name).
					WithDetail("table", t.name).
					WithDetail("value", key.Data)
			}
		}
	}

	t.rows = append(t.rows, row)
	return row.Clone(), nil
}

// InsertJSON decodes payload as a JSON object and inserts it.
func (t *Table) InsertJSON(payload []byte) (Row, error) {
	values, err := ParseObject(payload)
	if err != nil {
		return nil, dberrors.Payload("invalid INSERT payload", err)
	}
	return t.Insert(values)
}

// Select returns every row whose column col structurally equals value, in
// insertion order.
func (t *Table) Select(col string, value any) ([]Row, error) {
	if !t.HasColumn(col) {
		return nil, dberrors.Schema(dberrors.ErrColumnNotFound, col).WithDetail("table", t.name)
	}
	want := normalize(value)
	var out []Row
	for _, r := range t.rows {
		if equalJSON(r[col].Data, want) {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}

// ValidateForeignKeys reports whether every declared foreign key of table
// name resolves to an existing row of the referenced table.
//
// It returns an error when a table involved does not exist.
func (db *Database) ValidateForeignKeys(name string) (bool, error) {
	t, err := db.Table(name)
	if err != nil {
		return false, err
	}
	for _, fk := range t.foreignKeys {
		ref, err := db.Table(fk.RefTable)
		if err != nil {
			return false, err
		}
		for _, r := range t.rows {
			if !containsValue(ref.rows, fk.RefColumn, r[fk.Column].Data) {
				return false, nil
			}
		}
	}
	return true, nil
}

func containsValue(rows []Row, col string, v any) bool {
	for _, r := range rows {
		if equalJSON(r[col].Data, v) {
			return true
		}
	}
	return false
}
