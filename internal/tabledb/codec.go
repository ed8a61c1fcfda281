package tabledb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"

	dberrors "github.com/maruel/tabdb/internal/errors"
)

// fileAttribute is one schema entry in the file format.
type fileAttribute struct {
	Name    string          `json:"name" jsonschema:"minLength=1"`
	Type    DType           `json:"type" jsonschema:"minimum=0,maximum=5"`
	Primary bool            `json:"primary,omitempty"`
	Auto    bool            `json:"auto,omitempty"`
	NotNull bool            `json:"not_null,omitempty"`
	Default json.RawMessage `json:"default,omitempty"`
}

type fileForeignKey struct {
	Column    string `json:"column"`
	RefTable  string `json:"ref_table"`
	RefColumn string `json:"ref_column"`
}

// fileTable is the document stored under each table name.
type fileTable struct {
	Schema      []fileAttribute   `json:"schema"`
	Rows        []json.RawMessage `json:"rows"`
	ForeignKeys []fileForeignKey  `json:"foreign_keys,omitempty"`
}

type fileAuth struct {
	User string `json:"user"`
	Pass string `json:"pass"`
}

// fileMeta is stored under MetaKey.
type fileMeta struct {
	Auth *fileAuth `json:"auth,omitempty"`
}

// Serialize encodes db as an indented JSON document keyed by table name.
func Serialize(db *Database) ([]byte, error) {
	doc := make(map[string]any, len(db.tables)+1)
	for _, name := range db.TableNames() {
		ft, err := encodeTable(db.tables[name])
		if err != nil {
			return nil, fmt.Errorf("failed to encode table %s: %w", name, err)
		}
		doc[name] = ft
	}
	if db.HasCredentials() {
		doc[MetaKey] = fileMeta{Auth: &fileAuth{User: db.authUser, Pass: db.authHash}}
	}
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal database: %w", err)
	}
	return data, nil
}

func encodeTable(t *Table) (*fileTable, error) {
	ft := &fileTable{
		Schema: make([]fileAttribute, 0, len(t.schema)),
		Rows:   make([]json.RawMessage, 0, len(t.rows)),
	}
	for _, a := range t.schema {
		fa := fileAttribute{
			Name:    a.Name,
			Type:    a.Type,
			Primary: a.PrimaryKey,
			Auto:    a.AutoIncrement,
			NotNull: a.NotNull,
		}
		if a.HasDefault {
			raw, err := json.Marshal(a.Default)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal default of %s: %w", a.Name, err)
			}
			fa.Default = raw
		}
		ft.Schema = append(ft.Schema, fa)
	}
	for _, r := range t.rows {
		raw, err := json.Marshal(r.Data())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal row: %w", err)
		}
		ft.Rows = append(ft.Rows, raw)
	}
	for _, fk := range t.foreignKeys {
		ft.ForeignKeys = append(ft.ForeignKeys, fileForeignKey(fk))
	}
	return ft, nil
}

// Deserialize loads every table of data into db.
//
// Rows are replayed through [Table.Insert] so NOT NULL, defaults and
// auto-increment behave as for live commands. Afterwards each auto-increment
// counter is set to one past the largest numeric value in its column.
func Deserialize(data []byte, db *Database) error {
	var doc map[string]json.RawMessage
	if err := decodeStrict(data, &doc); err != nil {
		return dberrors.Payload("invalid database document", err)
	}
	if raw, ok := doc[MetaKey]; ok {
		if err := decodeMeta(raw, db); err != nil {
			return err
		}
	}
	names := make([]string, 0, len(doc))
	for name := range doc {
		if name != MetaKey {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	for _, name := range names {
		if err := decodeTable(name, doc[name], db); err != nil {
			return fmt.Errorf("table %s: %w", name, err)
		}
	}
	return nil
}

func decodeMeta(raw json.RawMessage, db *Database) error {
	var meta fileMeta
	if err := decodeStrict(raw, &meta); err != nil {
		return dberrors.Payload("invalid "+MetaKey, err)
	}
	if meta.Auth != nil && meta.Auth.User != "" {
		db.SetCredentialsHash(meta.Auth.User, meta.Auth.Pass)
	}
	return nil
}

func decodeTable(name string, raw json.RawMessage, db *Database) error {
	var ft fileTable
	if err := decodeStrict(raw, &ft); err != nil {
		return dberrors.Payload("invalid table document", err)
	}
	schema := make([]Attribute, 0, len(ft.Schema))
	for _, fa := range ft.Schema {
		if !fa.Type.Valid() {
			return dberrors.Schema(dberrors.ErrUnknownType, strconv.Itoa(int(fa.Type))).WithDetail("column", fa.Name)
		}
		a := Attribute{
			Name:          fa.Name,
			Type:          fa.Type,
			PrimaryKey:    fa.Primary,
			AutoIncrement: fa.Auto,
			NotNull:       fa.NotNull,
		}
		if len(fa.Default) != 0 {
			v, err := ParseLiteral(fa.Default)
			if err != nil {
				return dberrors.Payload("invalid default of "+fa.Name, err)
			}
			a = a.WithDefault(v)
		}
		schema = append(schema, a)
	}
	t, err := db.CreateTable(name, schema...)
	if err != nil {
		return err
	}
	for _, fk := range ft.ForeignKeys {
		if err := t.AddForeignKey(ForeignKey(fk)); err != nil {
			return err
		}
	}
	for i, rawRow := range ft.Rows {
		if _, err := t.InsertJSON(rawRow); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	return t.resetCounters()
}

// decodeStrict unmarshals data keeping numbers exact.
func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}
