// Package query parses and executes the line-oriented command language.
//
// Three commands are understood, with case-sensitive verbs:
//
//	CREATE TABLE <name> (<col> <TYPE> [modifiers], ...)
//	INSERT <table> {<json object>}
//	SELECT <table> [WHERE <col> = <value>]
package query

import (
	dberrors "github.com/maruel/tabdb/internal/errors"
)

// Parse parses a single command line into a Statement.
func Parse(line string) (Statement, error) {
	tokens := tokenize(line)
	if len(tokens) == 0 {
		return nil, dberrors.EmptyCommand()
	}
	switch tokens[0].text {
	case "CREATE":
		return parseCreateTable(line, tokens)
	case "INSERT":
		return parseInsert(line, tokens)
	case "SELECT":
		return parseSelect(line, tokens)
	default:
		return nil, dberrors.UnknownCommand(tokens[0].text)
	}
}
