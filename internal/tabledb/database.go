package tabledb

import (
	"fmt"
	"slices"

	dberrors "github.com/maruel/tabdb/internal/errors"
)

// MetaKey is the reserved top-level key of the file format holding database
// metadata. No table may use it as a name.
const MetaKey = "__meta"

// PasswordHasher hashes and verifies credential passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

// Database is the sole owner of its tables.
type Database struct {
	name   string
	tables map[string]*Table

	authUser string
	authHash string
}

// New returns an empty database.
func New(name string) *Database {
	return &Database{
		name:   name,
		tables: make(map[string]*Table),
	}
}

// Name returns the database name.
func (db *Database) Name() string {
	return db.name
}

// Len returns the number of tables.
func (db *Database) Len() int {
	return len(db.tables)
}

// TableNames returns table names sorted.
func (db *Database) TableNames() []string {
	names := make([]string, 0, len(db.tables))
	for name := range db.tables {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Table returns the table called name. The Database keeps ownership; callers
// must not retain the pointer past the current operation.
func (db *Database) Table(name string) (*Table, error) {
	t, ok := db.tables[name]
	if !ok {
		return nil, dberrors.TableNotFound(name)
	}
	return t, nil
}

// CreateTable registers a new table with the given schema. Nothing is
// registered if any column is rejected.
func (db *Database) CreateTable(name string, schema ...Attribute) (*Table, error) {
	if name == "" {
		return nil, dberrors.Syntax("table name is required")
	}
	if name == MetaKey {
		return nil, dberrors.Schema(dberrors.ErrReservedName, name).WithDetail("table", name)
	}
	if _, ok := db.tables[name]; ok {
		return nil, dberrors.Schema(dberrors.ErrTableExists, name).WithDetail("table", name)
	}
	t := newTable(name)
	for _, a := range schema {
		if err := t.addAttribute(a); err != nil {
			return nil, err
		}
	}
	db.tables[name] = t
	return t, nil
}

// HasCredentials reports whether a user is configured.
func (db *Database) HasCredentials() bool {
	return db.authUser != ""
}

// Credentials returns the stored user name and password hash.
func (db *Database) Credentials() (user, hash string) {
	return db.authUser, db.authHash
}

// SetCredentials stores user and the hash of password.
func (db *Database) SetCredentials(user, password string, h PasswordHasher) error {
	if user == "" {
		return dberrors.Syntax("user name is required")
	}
	hash, err := h.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	db.authUser = user
	db.authHash = hash
	return nil
}

// SetCredentialsHash stores an already hashed password, as read from disk.
func (db *Database) SetCredentialsHash(user, hash string) {
	db.authUser = user
	db.authHash = hash
}

// Authenticate reports whether user and password match the stored pair.
func (db *Database) Authenticate(user, password string, h PasswordHasher) bool {
	if !db.HasCredentials() || user != db.authUser {
		return false
	}
	return h.Verify(db.authHash, password)
}
