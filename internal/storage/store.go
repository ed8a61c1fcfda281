// Package storage persists a tabledb.Database to a single JSON file.
//
// Every save truncates and rewrites the whole file. Optionally each save is
// committed to a git repository in the file's directory, and external edits
// to the file are picked up by a watcher.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/maruel/tabdb/internal/tabledb"
)

// Credentials seed a newly initialized database.
type Credentials struct {
	User     string
	Password string
}

// Options configures Open.
type Options struct {
	// Init creates an empty database when the file does not exist.
	Init bool
	// Bootstrap credentials are set on a newly initialized database.
	Bootstrap *Credentials
	// Hasher hashes Bootstrap.Password. Required when Bootstrap is set.
	Hasher tabledb.PasswordHasher
	// History commits the file to git after every save.
	History bool
}

// Store owns a Database and the file it is loaded from.
type Store struct {
	path    string
	history *History

	mu       sync.Mutex
	db       *tabledb.Database
	lastData []byte
}

// Open loads the database at path, or initializes it when opts.Init is set
// and the file is missing.
func Open(ctx context.Context, path string, opts Options) (*Store, error) {
	path = filepath.Clean(path)
	s := &Store{path: path, db: tabledb.New(dbName(path))}
	data, err := os.ReadFile(path)
	initialized := false
	switch {
	case err == nil:
		if err := tabledb.Deserialize(data, s.db); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
		s.lastData = data
		slog.InfoContext(ctx, "Loaded database", "path", path, "tables", s.db.Len())
	case errors.Is(err, os.ErrNotExist) && opts.Init:
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
		if b := opts.Bootstrap; b != nil && b.User != "" {
			if opts.Hasher == nil {
				return nil, errors.New("bootstrap credentials need a password hasher")
			}
			if err := s.db.SetCredentials(b.User, b.Password, opts.Hasher); err != nil {
				return nil, err
			}
		}
		initialized = true
		user, _ := s.db.Credentials()
		slog.InfoContext(ctx, "Initialized database", "path", path, "user", user)
	default:
		return nil, fmt.Errorf("failed to read database: %w", err)
	}

	if opts.History {
		h, err := OpenHistory(ctx, filepath.Dir(path))
		if err != nil {
			return nil, err
		}
		s.history = h
	}
	if initialized {
		if err := s.Save(ctx, "Initialize database"); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func dbName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// History returns the git history, or nil when disabled.
func (s *Store) History() *History {
	return s.history
}

// With runs fn with exclusive access to the database.
func (s *Store) With(fn func(db *tabledb.Database) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.db)
}

// Save serializes the database and rewrites the file. When history is
// enabled the file is then committed with msg.
func (s *Store) Save(ctx context.Context, msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := tabledb.Serialize(s.db)
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write database: %w", err)
	}
	s.lastData = data
	slog.DebugContext(ctx, "Saved database", "path", s.path, "bytes", len(data))
	if s.history == nil {
		return nil
	}
	rel, err := filepath.Rel(s.history.Dir(), s.path)
	if err != nil {
		return fmt.Errorf("failed to locate database in repository: %w", err)
	}
	if _, err := s.history.Commit(ctx, filepath.ToSlash(rel), msg); err != nil {
		return err
	}
	return nil
}

// Reload reads the file again if its content differs from what was last
// loaded or saved. The current database is kept when the file is invalid.
func (s *Store) Reload(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path)
	if err != nil {
		return false, fmt.Errorf("failed to read database: %w", err)
	}
	if bytes.Equal(data, s.lastData) {
		return false, nil
	}
	db := tabledb.New(s.db.Name())
	if err := tabledb.Deserialize(data, db); err != nil {
		return false, fmt.Errorf("failed to load %s: %w", s.path, err)
	}
	s.db = db
	s.lastData = data
	slog.InfoContext(ctx, "Reloaded database", "path", s.path, "tables", db.Len())
	return true, nil
}
