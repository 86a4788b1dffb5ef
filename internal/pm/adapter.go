// Package pm drives npm, pnpm, and yarn through lockfile-only refreshes.
//
// A refresh re-derives the project-root lockfile from the already-bumped
// manifests without touching installed dependencies or contacting a
// registry beyond what the tool itself decides to do.
package pm

import (
	"context"
	"fmt"

	lserr "git.home.luguber.info/inful/locksync/internal/errors"
)

// Supported package-manager identifiers.
const (
	ManagerNPM  = "npm"
	ManagerPnpm = "pnpm"
	ManagerYarn = "yarn"
)

// Adapter refreshes the project-root lockfile for one package manager.
type Adapter interface {
	// Manager returns the package-manager identifier this adapter drives.
	Manager() string

	// Refresh regenerates the root lockfile and returns its canonical file
	// name, or "" when no file was produced (a recoverable condition, not an
	// error). Tool failures return a fatal tool-category error carrying the
	// process output.
	Refresh(ctx context.Context, root string) (string, error)
}

// ForManager selects the adapter matching the configured package manager.
func ForManager(id string, runner CommandRunner) (Adapter, error) {
	switch id {
	case ManagerNPM:
		return NewNPM(runner), nil
	case ManagerPnpm:
		return NewPnpm(runner), nil
	case ManagerYarn:
		return NewYarn(runner), nil
	default:
		return nil, lserr.ConfigError(fmt.Sprintf("unsupported package manager %q (expected npm, pnpm, or yarn)", id))
	}
}
