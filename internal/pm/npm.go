package pm

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"

	lserr "git.home.luguber.info/inful/locksync/internal/errors"
	"git.home.luguber.info/inful/locksync/internal/lockfile"
	"git.home.luguber.info/inful/locksync/internal/logfields"
)

// minInstallLockOnly is the first npm release where `install
// --package-lock-only` regenerates the lockfile without an install step.
// Older releases need the legacy shrinkwrap path instead.
var minInstallLockOnly = semver.MustParse("8.5.0")

// NPM refreshes package-lock.json via the npm binary.
type NPM struct {
	runner CommandRunner

	// toolVersion is probed lazily, once per adapter. Never compared as a
	// string: "8.5.0" must sort below "8.50.0".
	toolVersion *semver.Version
}

// NewNPM creates the npm adapter.
func NewNPM(runner CommandRunner) *NPM { return &NPM{runner: runner} }

// Manager implements Adapter.
func (n *NPM) Manager() string { return ManagerNPM }

// Refresh re-derives package-lock.json from the updated manifests. npm >=
// 8.5.0 supports a lockfile-only install; older releases fall back to
// `shrinkwrap --package-lock-only`, which writes npm-shrinkwrap.json and
// requires a rename to the canonical name.
func (n *NPM) Refresh(ctx context.Context, root string) (string, error) {
	version, err := n.probeVersion(ctx, root)
	if err != nil {
		return "", err
	}

	if version.Compare(minInstallLockOnly) >= 0 {
		slog.Debug("Refreshing lockfile via npm install", logfields.Version(version.String()))
		out, err := n.runner.Run(ctx, root, "npm", "install", "--package-lock-only")
		if err != nil {
			return "", lserr.ToolError(err, "npm", out)
		}
		return lockfile.FileName, nil
	}

	slog.Debug("Refreshing lockfile via npm shrinkwrap", logfields.Version(version.String()))
	out, err := n.runner.Run(ctx, root, "npm", "shrinkwrap", "--package-lock-only")
	if err != nil {
		return "", lserr.ToolError(err, "npm", out)
	}

	// Shrinkwrap writes a differently named file; rename it back to the
	// canonical lockfile name.
	from := filepath.Join(root, lockfile.ShrinkwrapName)
	to := filepath.Join(root, lockfile.FileName)
	if err := os.Rename(from, to); err != nil {
		return "", lserr.WriteError(err, to)
	}
	return lockfile.FileName, nil
}

func (n *NPM) probeVersion(ctx context.Context, root string) (*semver.Version, error) {
	if n.toolVersion != nil {
		return n.toolVersion, nil
	}
	out, err := n.runner.Run(ctx, root, "npm", "--version")
	if err != nil {
		return nil, lserr.ToolError(err, "npm", out)
	}
	version, err := semver.NewVersion(strings.TrimSpace(string(out)))
	if err != nil {
		return nil, lserr.Wrap(err, lserr.CategoryTool, lserr.SeverityFatal, "could not parse npm version").
			WithContext("output", string(out))
	}
	n.toolVersion = version
	return version, nil
}
