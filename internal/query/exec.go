package query

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	dberrors "github.com/maruel/tabdb/internal/errors"
	"github.com/maruel/tabdb/internal/tabledb"
)

// Result is the outcome of one statement.
type Result struct {
	// Columns lists the table's columns in schema order.
	Columns []string
	// Rows holds the matched rows for SELECT and the new row for INSERT.
	Rows []tabledb.Row
	// Mutated reports whether the statement changed the database.
	Mutated bool
}

// JSON renders Rows as an indented JSON array. Object keys follow Columns.
func (r *Result) JSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, row := range r.Rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		for j, col := range r.Columns {
			if j > 0 {
				buf.WriteByte(',')
			}
			k, err := json.Marshal(col)
			if err != nil {
				return nil, err
			}
			v, err := json.Marshal(row.Get(col))
			if err != nil {
				return nil, fmt.Errorf("failed to marshal column %s: %w", col, err)
			}
			buf.Write(k)
			buf.WriteByte(':')
			buf.Write(v)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "    "); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Exec parses line and executes it against db. CREATE TABLE on an existing
// name fails with a table exists error even when its columns are invalid.
func Exec(ctx context.Context, db *tabledb.Database, line string) (*Result, error) {
	stmt, err := Parse(line)
	if err != nil {
		var cde *columnDefError
		if errors.As(err, &cde) {
			if _, terr := db.Table(cde.table); terr == nil {
				return nil, dberrors.Schema(dberrors.ErrTableExists, cde.table).WithDetail("table", cde.table)
			}
		}
		return nil, err
	}
	return Execute(ctx, db, stmt)
}

// Execute runs a parsed statement against db. A failing statement leaves db
// unchanged except for auto-increment counters consumed by a rejected insert.
func Execute(ctx context.Context, db *tabledb.Database, stmt Statement) (*Result, error) {
	switch s := stmt.(type) {
	case *CreateTableStmt:
		t, err := db.CreateTable(s.TableName, s.Columns...)
		if err != nil {
			return nil, err
		}
		slog.DebugContext(ctx, "Created table", "table", s.TableName, "columns", len(s.Columns))
		return &Result{Columns: t.Columns(), Mutated: true}, nil

	case *InsertStmt:
		t, err := db.Table(s.TableName)
		if err != nil {
			return nil, err
		}
		row, err := t.Insert(s.Payload)
		if err != nil {
			return nil, err
		}
		slog.DebugContext(ctx, "Inserted row", "table", s.TableName, "rows", t.Len())
		return &Result{Columns: t.Columns(), Rows: []tabledb.Row{row}, Mutated: true}, nil

	case *SelectStmt:
		t, err := db.Table(s.TableName)
		if err != nil {
			return nil, err
		}
		var rows []tabledb.Row
		if s.Where == nil {
			rows = t.Rows()
		} else if rows, err = t.Select(s.Where.Column, s.Where.Value); err != nil {
			return nil, err
		}
		slog.DebugContext(ctx, "Selected rows", "table", s.TableName, "rows", len(rows))
		return &Result{Columns: t.Columns(), Rows: rows}, nil

	default:
		return nil, fmt.Errorf("unsupported statement type %T", stmt)
	}
}
