package query

import (
	"strings"

	dberrors "github.com/maruel/tabdb/internal/errors"
	"github.com/maruel/tabdb/internal/tabledb"
)

// parseInsert parses INSERT <table> {<json object>}.
//
// The payload spans from the first '{' to the last '}' of the line.
func parseInsert(line string, tokens []token) (Statement, error) {
	if len(tokens) < 2 {
		return nil, dberrors.Syntax("INSERT: expected INSERT <table> {<json object>}")
	}
	name := cutAt(tokens[1].text, '{')
	if name == "" {
		return nil, dberrors.Syntax("INSERT: missing table name")
	}
	open := strings.IndexByte(line, '{')
	end := strings.LastIndexByte(line, '}')
	if open == -1 || end == -1 || end < open {
		return nil, dberrors.Syntax("INSERT: requires a JSON object")
	}
	payload, err := tabledb.ParseObject([]byte(line[open : end+1]))
	if err != nil {
		return nil, dberrors.Payload("INSERT: invalid payload", err).WithDetail("table", name)
	}
	return &InsertStmt{TableName: name, Payload: payload}, nil
}
