package query

import (
	"strings"

	dberrors "github.com/maruel/tabdb/internal/errors"
	"github.com/maruel/tabdb/internal/tabledb"
)

// parseCreateTable parses:
//
//	CREATE TABLE users (id INT AUTO_INCREMENT PRIMARY KEY, name TEXT NOT NULL DEFAULT "anon")
//
// The column list spans from the first '(' to the last ')' of the line and is
// split on commas.
func parseCreateTable(line string, tokens []token) (Statement, error) {
	if len(tokens) < 3 || tokens[1].text != "TABLE" {
		return nil, dberrors.Syntax("CREATE: expected CREATE TABLE <name> (<columns>)")
	}
	open := strings.IndexByte(line, '(')
	end := strings.LastIndexByte(line, ')')
	if open == -1 || end == -1 || end < open {
		return nil, dberrors.Syntax("CREATE TABLE: column definitions must be in parentheses")
	}
	name := ""
	if tokens[2].pos < open {
		name = cutAt(tokens[2].text, '(')
	}
	if name == "" {
		return nil, dberrors.Syntax("CREATE TABLE: missing table name")
	}

	var cols []tabledb.Attribute
	for part := range strings.SplitSeq(line[open+1:end], ",") {
		def := strings.TrimSpace(part)
		if def == "" {
			continue
		}
		col, err := parseColumnDef(def)
		if err != nil {
			return nil, &columnDefError{table: name, err: err}
		}
		cols = append(cols, col)
	}
	return &CreateTableStmt{TableName: name, Columns: cols}, nil
}

// columnDefError is a column definition error found after the table name was
// read. Exec reports a name collision ahead of it.
type columnDefError struct {
	table string
	err   error
}

func (e *columnDefError) Error() string {
	return e.err.Error()
}

func (e *columnDefError) Unwrap() error {
	return e.err
}

// parseColumnDef parses "<name> <TYPE> [modifiers]". Modifiers are matched
// case-insensitively by substring anywhere after the type.
func parseColumnDef(def string) (tabledb.Attribute, error) {
	fields := tokenize(def)
	if len(fields) < 2 {
		return tabledb.Attribute{}, dberrors.Syntax("invalid column definition %q: expected <name> <TYPE>", def)
	}
	name := fields[0].text
	typ := fields[1]
	dt, ok := tabledb.ParseDType(typ.text)
	if !ok {
		return tabledb.Attribute{}, dberrors.Schema(dberrors.ErrUnknownType, strings.ToUpper(typ.text)).WithDetail("column", name)
	}
	attr := tabledb.Attribute{Name: name, Type: dt}

	mods := def[typ.pos+len(typ.text):]
	up := upperASCII(mods)
	attr.AutoIncrement = strings.Contains(up, "AUTO")
	attr.PrimaryKey = strings.Contains(up, "PRIMARY") && strings.Contains(up, "KEY")
	attr.NotNull = strings.Contains(up, "NOT") && strings.Contains(up, "NULL")

	if i := strings.Index(up, "DEFAULT"); i != -1 {
		v, ok, err := parseDefault(mods[i+len("DEFAULT"):])
		if err != nil {
			return tabledb.Attribute{}, err.WithDetail("column", name)
		}
		if ok {
			attr = attr.WithDefault(v)
		}
	}
	return attr, nil
}

// parseDefault reads the token following DEFAULT. A double-quoted token is a
// string verbatim; anything else is a JSON literal, or the raw text if it
// doesn't parse. ok is false when nothing follows DEFAULT.
func parseDefault(rest string) (any, bool, *dberrors.Error) {
	rest = strings.TrimLeft(rest, " \t\r\n\v\f")
	if rest == "" {
		return nil, false, nil
	}
	if rest[0] == '"' {
		end := strings.IndexByte(rest[1:], '"')
		if end == -1 {
			return nil, false, dberrors.Syntax("unterminated DEFAULT string %s", rest)
		}
		return rest[1 : end+1], true, nil
	}
	raw := rest
	if i := strings.IndexAny(rest, " \t\r\n\v\f"); i != -1 {
		raw = rest[:i]
	}
	if v, err := tabledb.ParseLiteral([]byte(raw)); err == nil {
		return v, true, nil
	}
	return raw, true, nil
}
