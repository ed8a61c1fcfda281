package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/maruel/ksid"

	"github.com/maruel/tabdb/internal/auth"
	dberrors "github.com/maruel/tabdb/internal/errors"
	"github.com/maruel/tabdb/internal/query"
	"github.com/maruel/tabdb/internal/storage"
	"github.com/maruel/tabdb/internal/tabledb"
)

const helpText = `Commands:
  CREATE TABLE <name> (<col> <TYPE> [AUTO_INCREMENT] [PRIMARY KEY] [NOT NULL] [DEFAULT <value>], ...)
  INSERT <table> {<json object>}
  SELECT <table> [WHERE <col> = <value>]
Types: TEXT, CHAR, INT, FLOAT, REAL, RELATION
Shell:
  tables     list tables
  save       write the database file
  history    show recent commits
  help | ?   show this help
  exit       save and quit
`

// errExit is returned by the login prompt when the user types exit.
var errExit = errors.New("exit")

// session is one interactive shell on a Store.
type session struct {
	id     ksid.ID
	store  *storage.Store
	hasher tabledb.PasswordHasher
	guard  *auth.Guard
	out    io.Writer
	user   string
}

func newSession(store *storage.Store, hasher tabledb.PasswordHasher, guard *auth.Guard, out io.Writer) *session {
	return &session{id: ksid.NewID(), store: store, hasher: hasher, guard: guard, out: out}
}

func newScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return sc
}

// run logs in then executes lines until exit, EOF or ctx is done. The
// database is saved before returning.
func (s *session) run(ctx context.Context, lines <-chan string) error {
	slog.InfoContext(ctx, "Session started", "session", s.id.String(), "path", s.store.Path())
	if err := s.login(ctx, lines); err != nil {
		if errors.Is(err, errExit) {
			return nil
		}
		return err
	}
	fmt.Fprintln(s.out, "Type ? or help for help.")
	defer func() {
		if err := s.store.Save(context.WithoutCancel(ctx), "Save on exit"); err != nil {
			slog.ErrorContext(ctx, "Failed to save database", "err", err)
		}
		slog.InfoContext(ctx, "Session ended", "session", s.id.String())
	}()
	for {
		fmt.Fprint(s.out, "tabdb> ")
		line, ok := next(ctx, lines)
		if !ok {
			fmt.Fprintln(s.out)
			return ctx.Err()
		}
		if s.handle(ctx, line) {
			return nil
		}
	}
}

func next(ctx context.Context, lines <-chan string) (string, bool) {
	select {
	case <-ctx.Done():
		return "", false
	case l, ok := <-lines:
		return l, ok
	}
}

func (s *session) prompt(ctx context.Context, lines <-chan string, p string) (string, error) {
	fmt.Fprint(s.out, p)
	l, ok := next(ctx, lines)
	if !ok {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return "", errors.New("login aborted")
	}
	l = strings.TrimSpace(l)
	if l == "exit" {
		return "", errExit
	}
	return l, nil
}

// login prompts until the credentials are accepted. Databases without
// credentials skip it.
func (s *session) login(ctx context.Context, lines <-chan string) error {
	var protected bool
	_ = s.store.With(func(db *tabledb.Database) error {
		protected = db.HasCredentials()
		return nil
	})
	if !protected {
		return nil
	}
	for {
		user, err := s.prompt(ctx, lines, "Username: ")
		if err != nil {
			return err
		}
		pass, err := s.prompt(ctx, lines, "Password: ")
		if err != nil {
			return err
		}
		err = s.store.With(func(db *tabledb.Database) error {
			return s.guard.Login(db, s.hasher, user, pass)
		})
		if err == nil {
			s.user = user
			slog.InfoContext(ctx, "Logged in", "session", s.id.String(), "user", user)
			fmt.Fprintf(s.out, "Login successful! Welcome %s\n", user)
			return nil
		}
		slog.WarnContext(ctx, "Login failed", "session", s.id.String(), "user", user, "err", err)
		fmt.Fprintf(s.out, "%v. Try again.\n", err)
	}
}

// handle executes one line and reports whether the session should end.
func (s *session) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	switch line {
	case "":
		return false
	case "help", "?":
		fmt.Fprint(s.out, helpText)
		return false
	case "exit", "quit":
		return true
	case "tables":
		s.listTables()
		return false
	case "history":
		s.printHistory(ctx)
		return false
	case "save":
		if err := s.store.Save(ctx, "Save"); err != nil {
			s.printError(err)
		} else {
			fmt.Fprintln(s.out, "Saved.")
		}
		return false
	}

	var res *query.Result
	err := s.store.With(func(db *tabledb.Database) error {
		var err error
		res, err = query.Exec(ctx, db, line)
		return err
	})
	if err != nil {
		slog.DebugContext(ctx, "Command failed", "session", s.id.String(), "kind", string(dberrors.KindOf(err)), "err", err)
		s.printError(err)
		return false
	}
	if res.Mutated {
		fmt.Fprintln(s.out, "OK")
		if err := s.store.Save(ctx, commitMessage(line)); err != nil {
			s.printError(err)
		}
		return false
	}
	data, err := res.JSON()
	if err != nil {
		s.printError(err)
		return false
	}
	fmt.Fprintf(s.out, "%s\n", data)
	return false
}

func (s *session) listTables() {
	_ = s.store.With(func(db *tabledb.Database) error {
		for _, name := range db.TableNames() {
			t, _ := db.Table(name)
			fmt.Fprintf(s.out, "%s (%d rows): %s\n", name, t.Len(), strings.Join(t.Columns(), ", "))
		}
		return nil
	})
}

// printHistory lists the latest commits of the history repository.
func (s *session) printHistory(ctx context.Context) {
	h := s.store.History()
	if h == nil {
		fmt.Fprintln(s.out, "History is disabled.")
		return
	}
	commits, err := h.Log(ctx, 10)
	if err != nil {
		s.printError(err)
		return
	}
	for _, c := range commits {
		fmt.Fprintf(s.out, "%.7s %s %s\n", c.Hash, c.When.Format(time.DateTime), c.Message)
	}
}

func (s *session) printError(err error) {
	if k := dberrors.KindOf(err); k != "" {
		fmt.Fprintf(s.out, "ERROR [%s]: %v\n", k, err)
		return
	}
	fmt.Fprintf(s.out, "ERROR: %v\n", err)
}

// commitMessage summarizes a command for the history log.
func commitMessage(line string) string {
	const maxLen = 72
	if len(line) > maxLen {
		cut := maxLen - 3
		for cut > 0 && !utf8.RuneStart(line[cut]) {
			cut--
		}
		return line[:cut] + "..."
	}
	return line
}
