package pm

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	lserr "git.home.luguber.info/inful/locksync/internal/errors"
	"git.home.luguber.info/inful/locksync/internal/lockfile"
	"git.home.luguber.info/inful/locksync/internal/logfields"
)

// Pnpm refreshes pnpm-lock.yaml via the pnpm binary. pnpm keeps a single
// lockfile at the project root; per-package lockfiles do not exist.
type Pnpm struct {
	runner CommandRunner
}

// NewPnpm creates the pnpm adapter.
func NewPnpm(runner CommandRunner) *Pnpm { return &Pnpm{runner: runner} }

// Manager implements Adapter.
func (p *Pnpm) Manager() string { return ManagerPnpm }

// Refresh runs a self-healing, lockfile-only install. When the root lockfile
// is missing, nothing is spawned: pnpm would perform a full resolution
// instead of a repair, so the condition is logged and reported as "no file
// produced" rather than treated as an error.
func (p *Pnpm) Refresh(ctx context.Context, root string) (string, error) {
	lockPath := filepath.Join(root, lockfile.PnpmFileName)
	if !lockfile.Exists(lockPath) {
		slog.Warn("pnpm lockfile not found at project root, skipping refresh",
			logfields.Tool("pnpm"),
			logfields.Lockfile(lockfile.PnpmFileName),
			logfields.Path(lockPath))
		return "", nil
	}

	out, err := p.runner.Run(ctx, root, "pnpm", "install", "--lockfile-only", "--fix-lockfile")
	if err != nil {
		return "", lserr.ToolError(err, "pnpm", out)
	}

	if err := validateYAML(lockPath); err != nil {
		return "", lserr.Wrap(err, lserr.CategoryTool, lserr.SeverityFatal, "pnpm produced an invalid lockfile").
			WithContext("path", lockPath)
	}
	return lockfile.PnpmFileName, nil
}

// validateYAML checks the refreshed lockfile still parses. The content is
// otherwise opaque to the engine.
func validateYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var node any
	return yaml.Unmarshal(data, &node)
}
