package tabledb

import (
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"testing"

	dberrors "github.com/maruel/tabdb/internal/errors"
)

func TestSerializeRoundTrip(t *testing.T) {
	db := New("test")
	users, err := db.CreateTable("users",
		Attribute{Name: "id", Type: TypeInt, AutoIncrement: true, PrimaryKey: true},
		Attribute{Name: "name", Type: TypeText, NotNull: true}.WithDefault("anon"),
		Attribute{Name: "score", Type: TypeFloat}.WithDefault(1.5),
	)
	if err != nil {
		t.Fatal(err)
	}
	orders, err := db.CreateTable("orders",
		Attribute{Name: "id", Type: TypeInt, AutoIncrement: true},
		Attribute{Name: "user", Type: TypeRelation},
		Attribute{Name: "tags", Type: TypeText},
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := orders.AddForeignKey(ForeignKey{Column: "user", RefTable: "users", RefColumn: "id"}); err != nil {
		t.Fatal(err)
	}
	for _, v := range []map[string]any{{"name": "Alice"}, {}, {"name": "Carol", "score": 9}} {
		if _, err := users.Insert(v); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := orders.Insert(map[string]any{"user": 1, "tags": []any{"a", "b"}}); err != nil {
		t.Fatal(err)
	}
	if err := db.SetCredentials("root", "pw", plainHasher{}); err != nil {
		t.Fatal(err)
	}

	data, err := Serialize(db)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "\n    \"") {
		t.Errorf("expected 4 space indentation:\n%s", data)
	}

	got := New("copy")
	if err := Deserialize(data, got); err != nil {
		t.Fatalf("Deserialize failed: %v\n%s", err, data)
	}
	if !slices.Equal(got.TableNames(), []string{"orders", "users"}) {
		t.Fatalf("TableNames() = %v", got.TableNames())
	}
	for _, name := range db.TableNames() {
		want, _ := db.Table(name)
		have, _ := got.Table(name)
		if !slices.EqualFunc(want.Schema(), have.Schema(), func(a, b Attribute) bool {
			return a.Name == b.Name && a.Type == b.Type && a.PrimaryKey == b.PrimaryKey &&
				a.AutoIncrement == b.AutoIncrement && a.NotNull == b.NotNull &&
				a.HasDefault == b.HasDefault && equalJSON(a.Default, b.Default)
		}) {
			t.Errorf("%s schema = %+v, want %+v", name, have.Schema(), want.Schema())
		}
		wr, hr := want.Rows(), have.Rows()
		if len(wr) != len(hr) {
			t.Fatalf("%s has %d rows, want %d", name, len(hr), len(wr))
		}
		for i := range wr {
			if !equalJSON(wr[i].Data(), hr[i].Data()) {
				t.Errorf("%s row %d = %v, want %v", name, i, hr[i].Data(), wr[i].Data())
			}
		}
	}
	gotOrders, _ := got.Table("orders")
	if fks := gotOrders.ForeignKeys(); len(fks) != 1 || fks[0].RefTable != "users" {
		t.Errorf("ForeignKeys() = %+v", fks)
	}
	if ok, err := got.ValidateForeignKeys("orders"); err != nil || !ok {
		t.Errorf("ValidateForeignKeys = %v, %v", ok, err)
	}
	if !got.Authenticate("root", "pw", plainHasher{}) {
		t.Error("credentials lost in round trip")
	}

	// A reloaded table continues numbering after the stored rows.
	gotUsers, _ := got.Table("users")
	row, err := gotUsers.Insert(map[string]any{"name": "Dan"})
	if err != nil {
		t.Fatal(err)
	}
	if row.Get("id") != int64(4) {
		t.Errorf("id after reload = %v, want 4", row.Get("id"))
	}
}

func TestSerializeNoMeta(t *testing.T) {
	db := New("test")
	if _, err := db.CreateTable("t", Attribute{Name: "a", Type: TypeChar}); err != nil {
		t.Fatal(err)
	}
	data, err := Serialize(db)
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if _, ok := doc[MetaKey]; ok {
		t.Errorf("%s written without credentials", MetaKey)
	}
	if string(doc["t"]) == "" || !strings.Contains(string(doc["t"]), `"rows": []`) {
		t.Errorf("empty table should write an empty rows array:\n%s", data)
	}
}

func TestDeserialize(t *testing.T) {
	t.Run("hand edited counters", func(t *testing.T) {
		const doc = `{
    "items": {
        "schema": [
            {"name": "id", "type": 2, "auto": true, "primary": true},
            {"name": "label", "type": 0}
        ],
        "rows": [
            {"id": 7, "label": "x"},
            {"id": 3, "label": "y"},
            {"label": "z"}
        ]
    }
}`
		db := New("test")
		if err := Deserialize([]byte(doc), db); err != nil {
			t.Fatal(err)
		}
		tbl, _ := db.Table("items")
		rows := tbl.Rows()
		// The third row was numbered by the counter while replaying.
		if rows[2].Get("id") != int64(1) {
			t.Errorf("replayed id = %v, want 1", rows[2].Get("id"))
		}
		if c, _ := tbl.Counter("id"); c != 8 {
			t.Errorf("Counter(id) = %d, want 8", c)
		}
	})

	t.Run("meta", func(t *testing.T) {
		const doc = `{"__meta": {"auth": {"user": "root", "pass": "plain:pw"}}}`
		db := New("test")
		if err := Deserialize([]byte(doc), db); err != nil {
			t.Fatal(err)
		}
		if db.Len() != 0 {
			t.Errorf("%s loaded as a table", MetaKey)
		}
		if !db.Authenticate("root", "pw", plainHasher{}) {
			t.Error("Authenticate failed")
		}
	})

	tests := []struct {
		name string
		doc  string
		kind dberrors.Kind
		is   error
	}{
		{"not json", `{`, dberrors.KindPayload, dberrors.ErrMalformedJSON},
		{"bad type code", `{"t": {"schema": [{"name": "a", "type": 6}], "rows": []}}`, dberrors.KindSchema, dberrors.ErrUnknownType},
		{"duplicate key row", `{"t": {"schema": [{"name": "a", "type": 2, "primary": true}], "rows": [{"a": 1}, {"a": 1}]}}`, dberrors.KindConstraint, dberrors.ErrDuplicateKey},
		{"missing not null", `{"t": {"schema": [{"name": "a", "type": 0, "not_null": true}], "rows": [{}]}}`, dberrors.KindConstraint, dberrors.ErrMissingColumn},
		{"row not object", `{"t": {"schema": [], "rows": [1]}}`, dberrors.KindPayload, dberrors.ErrMalformedJSON},
		{"counter at int64 limit", `{"t": {"schema": [{"name": "id", "type": 2, "auto": true}], "rows": [{"id": 9223372036854775807}]}}`, dberrors.KindConstraint, dberrors.ErrCounterExhausted},
		{"counter beyond int64 range", `{"t": {"schema": [{"name": "id", "type": 2, "auto": true}], "rows": [{"id": 1e20}]}}`, dberrors.KindConstraint, dberrors.ErrCounterExhausted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Deserialize([]byte(tt.doc), New("test"))
			if dberrors.KindOf(err) != tt.kind || !errors.Is(err, tt.is) {
				t.Errorf("Deserialize error = %v, want %s %v", err, tt.kind, tt.is)
			}
		})
	}

	t.Run("existing table", func(t *testing.T) {
		db := New("test")
		if _, err := db.CreateTable("t"); err != nil {
			t.Fatal(err)
		}
		err := Deserialize([]byte(`{"t": {"schema": [], "rows": []}}`), db)
		if !errors.Is(err, dberrors.ErrTableExists) {
			t.Errorf("Deserialize error = %v, want table exists", err)
		}
	})
}

func TestFileSchema(t *testing.T) {
	s := FileSchema()
	if s.Type != "object" {
		t.Errorf("Type = %q", s.Type)
	}
	if _, ok := s.Properties.Get(MetaKey); !ok {
		t.Errorf("missing %s property", MetaKey)
	}
	if s.AdditionalProperties == nil {
		t.Fatal("missing table schema")
	}
	if _, ok := s.AdditionalProperties.Properties.Get("schema"); !ok {
		t.Error("table schema has no schema property")
	}
	if _, err := json.Marshal(s); err != nil {
		t.Fatal(err)
	}
}
