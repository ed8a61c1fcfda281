package tabledb

import (
	"errors"
	"slices"
	"strings"
	"testing"

	dberrors "github.com/maruel/tabdb/internal/errors"
)

// plainHasher prefixes passwords so tests don't pay for bcrypt.
type plainHasher struct{}

func (plainHasher) Hash(p string) (string, error) { return "plain:" + p, nil }

func (plainHasher) Verify(hash, p string) bool { return hash == "plain:"+p }

func TestCreateTable(t *testing.T) {
	t.Run("duplicate table", func(t *testing.T) {
		db := New("test")
		if _, err := db.CreateTable("a", Attribute{Name: "x", Type: TypeText}); err != nil {
			t.Fatal(err)
		}
		_, err := db.CreateTable("a", Attribute{Name: "y", Type: TypeInt})
		if !errors.Is(err, dberrors.ErrTableExists) || dberrors.KindOf(err) != dberrors.KindSchema {
			t.Fatalf("CreateTable error = %v, want table exists", err)
		}
		tbl, _ := db.Table("a")
		if got := tbl.Columns(); !slices.Equal(got, []string{"x"}) {
			t.Errorf("existing table was modified: %v", got)
		}
	})

	t.Run("reserved name", func(t *testing.T) {
		db := New("test")
		if _, err := db.CreateTable(MetaKey); !errors.Is(err, dberrors.ErrReservedName) {
			t.Errorf("CreateTable(%q) error = %v", MetaKey, err)
		}
	})

	t.Run("atomic", func(t *testing.T) {
		tests := []struct {
			name   string
			schema []Attribute
			want   error
		}{
			{
				"duplicate column",
				[]Attribute{{Name: "a", Type: TypeInt}, {Name: "a", Type: TypeText}},
				dberrors.ErrDuplicateCol,
			},
			{
				"two primary keys",
				[]Attribute{{Name: "a", Type: TypeInt, PrimaryKey: true}, {Name: "b", Type: TypeInt, PrimaryKey: true}},
				dberrors.ErrMultiplePrimaryKeys,
			},
			{
				"bad type",
				[]Attribute{{Name: "a", Type: DType(9)}},
				dberrors.ErrUnknownType,
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				db := New("test")
				if _, err := db.CreateTable("t", tt.schema...); !errors.Is(err, tt.want) {
					t.Fatalf("CreateTable error = %v, want %v", err, tt.want)
				}
				if db.Len() != 0 {
					t.Errorf("table registered after failed create")
				}
			})
		}
	})

	t.Run("counters start at one", func(t *testing.T) {
		db := New("test")
		tbl, err := db.CreateTable("t", Attribute{Name: "id", Type: TypeInt, AutoIncrement: true}, Attribute{Name: "n", Type: TypeInt})
		if err != nil {
			t.Fatal(err)
		}
		if c, ok := tbl.Counter("id"); !ok || c != 1 {
			t.Errorf("Counter(id) = %d, %v", c, ok)
		}
		if _, ok := tbl.Counter("n"); ok {
			t.Error("plain column has a counter")
		}
	})
}

func TestTableNames(t *testing.T) {
	db := New("test")
	for _, n := range []string{"zeta", "alpha", "mid"} {
		if _, err := db.CreateTable(n); err != nil {
			t.Fatal(err)
		}
	}
	if got, want := db.TableNames(), []string{"alpha", "mid", "zeta"}; !slices.Equal(got, want) {
		t.Errorf("TableNames() = %v, want %v", got, want)
	}
	_, err := db.Table("nope")
	if !errors.Is(err, dberrors.ErrTableNotFound) {
		t.Fatalf("Table(nope) error = %v", err)
	}
	if !strings.Contains(err.Error(), "nope") {
		t.Errorf("error %q does not name the table", err)
	}
}

func TestCredentials(t *testing.T) {
	db := New("test")
	if db.HasCredentials() {
		t.Fatal("new database has credentials")
	}
	if db.Authenticate("", "", plainHasher{}) {
		t.Error("Authenticate succeeded without credentials")
	}
	if err := db.SetCredentials("", "pw", plainHasher{}); err == nil {
		t.Error("SetCredentials accepted an empty user")
	}
	if err := db.SetCredentials("root", "s3cret", plainHasher{}); err != nil {
		t.Fatal(err)
	}
	user, hash := db.Credentials()
	if user != "root" || hash != "plain:s3cret" {
		t.Errorf("Credentials() = %q, %q", user, hash)
	}
	tests := []struct {
		user, pass string
		want       bool
	}{
		{"root", "s3cret", true},
		{"root", "wrong", false},
		{"admin", "s3cret", false},
	}
	for _, tt := range tests {
		if got := db.Authenticate(tt.user, tt.pass, plainHasher{}); got != tt.want {
			t.Errorf("Authenticate(%q, %q) = %v, want %v", tt.user, tt.pass, got, tt.want)
		}
	}
}
