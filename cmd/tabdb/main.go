// Command tabdb is an interactive shell over a single-file table database.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/maruel/tabdb/internal/auth"
	"github.com/maruel/tabdb/internal/config"
	"github.com/maruel/tabdb/internal/storage"
	"github.com/maruel/tabdb/internal/tabledb"
)

func main() {
	if err := mainImpl(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "tabdb: %v\n", err)
		os.Exit(1)
	}
}

func mainImpl() error {
	version := flag.Bool("version", false, "Print version and exit")
	configPath := flag.String("config", "", "YAML configuration file (optional)")
	dataFile := flag.String("data", "tabdb.json", "Database file")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	initDB := flag.Bool("init", true, "Create an empty database if the file is missing")
	history := flag.Bool("history", false, "Commit every save to a git repository in the database directory")
	watch := flag.Bool("watch", false, "Reload the database when the file is changed by another process")
	printSchema := flag.Bool("print-schema", false, "Print the JSON Schema of the database file and exit")
	flag.Parse()
	if len(flag.Args()) > 0 {
		return fmt.Errorf("unknown arguments: %v", flag.Args())
	}

	if *version {
		printVersion()
		return nil
	}
	if *printSchema {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(tabledb.FileSchema())
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return err
		}
	}
	// Flags override the config file only when explicitly set.
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	if set["data"] || *configPath == "" {
		cfg.DataFile = *dataFile
	}
	if set["log-level"] || *configPath == "" {
		cfg.LogLevel = *logLevel
	}
	if set["init"] || *configPath == "" {
		cfg.Init = *initDB
	}
	if set["history"] || *configPath == "" {
		cfg.History = *history
	}
	if set["watch"] || *configPath == "" {
		cfg.Watch = *watch
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()
	level, _ := config.ParseLevel(cfg.LogLevel)
	ll := &slog.LevelVar{}
	ll.Set(level)
	slog.SetDefault(newLogger(os.Stderr, ll))

	hasher := auth.Bcrypt{}
	opts := storage.Options{Init: cfg.Init, Hasher: hasher, History: cfg.History}
	if cfg.Bootstrap.User != "" {
		opts.Bootstrap = &storage.Credentials{User: cfg.Bootstrap.User, Password: cfg.Bootstrap.Password}
	}
	store, err := storage.Open(ctx, cfg.DataFile, opts)
	if err != nil {
		return err
	}
	if cfg.Watch {
		if err := store.Watch(ctx, nil); err != nil {
			return err
		}
	}

	s := newSession(store, hasher, auth.NewGuard(cfg.Login.MaxAttemptsPerMin, cfg.Login.Burst), os.Stdout)
	return s.run(ctx, readLines(ctx, os.Stdin))
}

// newLogger returns a tint handler on w. Zero valued attributes are dropped.
func newLogger(w *os.File, level slog.Leveler) *slog.Logger {
	return slog.New(tint.NewHandler(colorable.NewColorable(w), &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000", // Like time.TimeOnly plus milliseconds.
		NoColor:    !isatty.IsTerminal(w.Fd()),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			skip := false
			switch t := a.Value.Any().(type) {
			case string:
				skip = t == ""
			case bool:
				skip = !t
			case int64:
				skip = t == 0
			case uint64:
				skip = t == 0
			case float64:
				skip = t == 0
			case time.Duration:
				skip = t == 0
			case nil:
				skip = true
			}
			if skip {
				return slog.Attr{}
			}
			return a
		},
	}))
}

// readLines streams lines of r until EOF or ctx is done. The channel is
// closed at EOF.
func readLines(ctx context.Context, r io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		sc := newScanner(r)
		for sc.Scan() {
			select {
			case ch <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := sc.Err(); err != nil {
			slog.WarnContext(ctx, "Failed to read input", "err", err)
		}
	}()
	return ch
}

func printVersion() {
	version, goVersion, revision, dirty := getBuildInfo()
	fmt.Printf("tabdb %s\n", version)
	fmt.Printf("  Go version: %s\n", goVersion)
	fmt.Printf("  Revision:   %s\n", revision)
	if dirty {
		fmt.Printf("  Modified:   true\n")
	}
}

func getBuildInfo() (version, goVersion, revision string, dirty bool) {
	version = "unknown"
	goVersion = "unknown"
	revision = "unknown"
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	version = info.Main.Version
	if version == "" || version == "(devel)" {
		version = "dev"
	}
	goVersion = info.GoVersion
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}
	return
}
