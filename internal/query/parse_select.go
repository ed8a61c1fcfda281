package query

import (
	"strings"

	dberrors "github.com/maruel/tabdb/internal/errors"
	"github.com/maruel/tabdb/internal/tabledb"
)

// parseSelect parses the two supported forms:
//
//	SELECT users
//	SELECT users WHERE name = "Alice"
//
// The WHERE form is checked positionally. The value is the remainder of the
// line after '=' so quoted strings may contain spaces.
func parseSelect(line string, tokens []token) (Statement, error) {
	if len(tokens) < 2 {
		return nil, dberrors.Syntax("SELECT: missing table name")
	}
	stmt := &SelectStmt{TableName: tokens[1].text}
	if len(tokens) == 2 {
		return stmt, nil
	}
	if len(tokens) < 6 || tokens[2].text != "WHERE" || tokens[4].text != "=" {
		return nil, dberrors.Syntax("SELECT: expected SELECT <table> [WHERE <col> = <value>]")
	}
	v, err := parseWhereValue(strings.TrimSpace(line[tokens[5].pos:]))
	if err != nil {
		return nil, err
	}
	stmt.Where = &WhereExpr{Column: tokens[3].text, Value: v}
	return stmt, nil
}

func parseWhereValue(s string) (any, error) {
	if s[0] == '"' {
		if len(s) < 2 || s[len(s)-1] != '"' {
			return nil, dberrors.Syntax("WHERE: unterminated string %s", s)
		}
		return s[1 : len(s)-1], nil
	}
	v, err := tabledb.ParseLiteral([]byte(s))
	if err != nil {
		return nil, dberrors.Payload("WHERE: invalid literal "+s, err)
	}
	return v, nil
}
