package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/maruel/ksid"
)

const (
	historyName  = "tabdb"
	historyEmail = "tabdb@localhost"
)

// History records every save of the database file as a git commit.
type History struct {
	dir  string
	repo *gogit.Repository
	mu   sync.Mutex
}

// Commit is one entry of the history.
type Commit struct {
	Hash    string
	Message string
	When    time.Time
}

// OpenHistory opens the git repository in dir, initializing it if needed.
func OpenHistory(ctx context.Context, dir string) (*History, error) {
	repo, err := gogit.PlainOpen(dir)
	if errors.Is(err, gogit.ErrRepositoryNotExists) {
		repo, err = gogit.PlainInit(dir, false)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize git repo: %w", err)
		}
		cfg, err := repo.Config()
		if err != nil {
			return nil, fmt.Errorf("failed to read git config: %w", err)
		}
		cfg.User.Name = historyName
		cfg.User.Email = historyEmail
		if err := repo.SetConfig(cfg); err != nil {
			return nil, fmt.Errorf("failed to write git config: %w", err)
		}
		slog.InfoContext(ctx, "Initialized history", "dir", dir)
	} else if err != nil {
		return nil, fmt.Errorf("failed to open git repo: %w", err)
	}
	return &History{dir: dir, repo: repo}, nil
}

// Dir returns the repository root.
func (h *History) Dir() string {
	return h.dir
}

// Commit stages file, relative to Dir, and commits it. It returns false when
// the file did not change since the last commit.
func (h *History) Commit(ctx context.Context, file, msg string) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	w, err := h.repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("failed to get worktree: %w", err)
	}
	if _, err := w.Add(file); err != nil {
		return false, fmt.Errorf("failed to stage %s: %w", file, err)
	}
	status, err := w.Status()
	if err != nil {
		return false, fmt.Errorf("failed to get worktree status: %w", err)
	}
	if st, ok := status[file]; !ok || st.Staging == gogit.Unmodified {
		return false, nil
	}
	id := ksid.NewID()
	now := time.Now()
	sig := &object.Signature{Name: historyName, Email: historyEmail, When: now}
	hash, err := w.Commit(msg+"\n\nSave-ID: "+id.String(), &gogit.CommitOptions{Author: sig, Committer: sig})
	if err != nil {
		return false, fmt.Errorf("failed to commit: %w", err)
	}
	slog.DebugContext(ctx, "Committed database", "file", file, "commit", hash.String(), "save", id.String())
	return true, nil
}

// Log returns up to n commits, newest first. n <= 0 means all.
func (h *History) Log(_ context.Context, n int) ([]Commit, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	iter, err := h.repo.Log(&gogit.LogOptions{})
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	defer iter.Close()
	var out []Commit
	for n <= 0 || len(out) < n {
		c, err := iter.Next()
		if err != nil {
			break
		}
		subject, _, _ := strings.Cut(c.Message, "\n")
		out = append(out, Commit{Hash: c.Hash.String(), Message: subject, When: c.Committer.When})
	}
	return out, nil
}
