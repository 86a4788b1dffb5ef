package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/locksync/internal/config"
	"git.home.luguber.info/inful/locksync/internal/journal"
	"git.home.luguber.info/inful/locksync/internal/logfields"
	syncengine "git.home.luguber.info/inful/locksync/internal/sync"
	"git.home.luguber.info/inful/locksync/internal/version"
	"git.home.luguber.info/inful/locksync/internal/watch"
	"git.home.luguber.info/inful/locksync/internal/workspace"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"locksync.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Sync struct {
		Journal string `short:"j" help:"Record sync outcomes to this SQLite journal (overrides config)"`
	} `cmd:"" help:"Patch every package lockfile and refresh the root lockfile"`

	Refresh struct{} `cmd:"" help:"Refresh only the project-root lockfile"`

	Watch struct{} `cmd:"" help:"Re-sync lockfiles whenever a package manifest changes"`

	Version struct{} `cmd:"" help:"Print version information"`
}

func main() {
	// Machine-local overrides (journal paths, manager selection) may live in
	// a .env next to the invocation; absence is fine.
	_ = godotenv.Load()

	ctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	switch ctx.Command() {
	case "sync":
		if err := runSync(CLI.Sync.Journal); err != nil {
			slog.Error("Sync failed", logfields.Error(err))
			os.Exit(1)
		}
	case "refresh":
		if err := runRefresh(); err != nil {
			slog.Error("Refresh failed", logfields.Error(err))
			os.Exit(1)
		}
	case "watch":
		if err := runWatch(); err != nil {
			slog.Error("Watch failed", logfields.Error(err))
			os.Exit(1)
		}
	case "version":
		fmt.Printf("locksync %s (built %s, commit %s)\n", version.Version, version.BuildTime, version.GitCommit)
	}
}

// setup loads configuration, resolves the repository root, and discovers the
// workspace packages with their already-bumped versions.
func setup() (*config.Config, string, []workspace.Package, error) {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return nil, "", nil, err
	}

	root := cfg.Root
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, "", nil, err
		}
		root = workspace.FindRoot(wd)
	}

	pkgs, err := workspace.Discover(root, cfg.Packages)
	if err != nil {
		return nil, "", nil, err
	}
	slog.Info("Discovered workspace packages", logfields.Count(len(pkgs)), logfields.Path(root))
	return cfg, root, pkgs, nil
}

func newEngine(cfg *config.Config, root, journalPath string) (*syncengine.Engine, func(), error) {
	engine := syncengine.New(root, cfg.Manager)

	cleanup := func() {}
	if journalPath == "" {
		journalPath = cfg.Journal
	}
	if journalPath != "" {
		j, err := journal.Open(journalPath)
		if err != nil {
			return nil, nil, err
		}
		engine = engine.WithJournal(j)
		cleanup = func() {
			if err := j.Close(); err != nil {
				slog.Warn("Failed to close journal", logfields.Error(err))
			}
		}
	}
	return engine, cleanup, nil
}

func runSync(journalPath string) error {
	cfg, root, pkgs, err := setup()
	if err != nil {
		return err
	}

	engine, cleanup, err := newEngine(cfg, root, journalPath)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	slog.Info("Starting lockfile sync",
		logfields.Manager(cfg.Manager),
		logfields.Count(len(pkgs)),
		logfields.ReleaseID(engine.ReleaseID()))
	return engine.Run(ctx, pkgs)
}

func runRefresh() error {
	cfg, root, pkgs, err := setup()
	if err != nil {
		return err
	}

	engine, cleanup, err := newEngine(cfg, root, "")
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	produced, err := engine.SyncRoot(ctx, pkgs)
	if err != nil {
		return err
	}
	if produced == "" {
		slog.Warn("No root lockfile was produced")
		return nil
	}
	slog.Info("Root lockfile refreshed", logfields.Lockfile(produced))
	return nil
}

func runWatch() error {
	cfg, root, pkgs, err := setup()
	if err != nil {
		return err
	}

	dirs := make([]string, 0, len(pkgs)+1)
	dirs = append(dirs, root)
	for _, pkg := range pkgs {
		dirs = append(dirs, pkg.Dir)
	}

	w, err := watch.New(dirs, func(ctx context.Context) error {
		// Re-discover so newly bumped manifest versions are picked up.
		pkgs, err := workspace.Discover(root, cfg.Packages)
		if err != nil {
			return err
		}
		engine, cleanup, err := newEngine(cfg, root, "")
		if err != nil {
			return err
		}
		defer cleanup()
		return engine.Run(ctx, pkgs)
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := w.Stop(); err != nil {
			slog.Warn("Failed to stop watcher", logfields.Error(err))
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err = w.Start(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
