package query

import "github.com/maruel/tabdb/internal/tabledb"

// Statement is the common interface for all parsed commands.
type Statement interface {
	stmtNode()
}

// CreateTableStmt represents a parsed CREATE TABLE command.
type CreateTableStmt struct {
	TableName string
	Columns   []tabledb.Attribute
}

func (*CreateTableStmt) stmtNode() {}

// InsertStmt represents INSERT <table> {<json object>}.
type InsertStmt struct {
	TableName string
	Payload   map[string]any
}

func (*InsertStmt) stmtNode() {}

// SelectStmt represents SELECT <table> with an optional equality filter.
type SelectStmt struct {
	TableName string
	Where     *WhereExpr // nil means no WHERE clause
}

func (*SelectStmt) stmtNode() {}

// WhereExpr is a single "column = literal" condition.
type WhereExpr struct {
	Column string
	Value  any
}
