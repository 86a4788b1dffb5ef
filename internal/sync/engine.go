// Package sync sequences lockfile patching and package-manager refreshes for
// one release of a multi-package repository.
package sync

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	lserr "git.home.luguber.info/inful/locksync/internal/errors"
	"git.home.luguber.info/inful/locksync/internal/journal"
	"git.home.luguber.info/inful/locksync/internal/lockfile"
	"git.home.luguber.info/inful/locksync/internal/logfields"
	"git.home.luguber.info/inful/locksync/internal/pm"
	"git.home.luguber.info/inful/locksync/internal/workspace"
)

// Status describes what happened to one package's lockfile.
type Status string

const (
	// StatusPatched means the lockfile was patched and written back.
	StatusPatched Status = "patched"
	// StatusSkipped means the package had no usable lockfile. Not an error.
	StatusSkipped Status = "skipped"
)

// PackageResult is the per-package outcome of SyncPackages.
type PackageResult struct {
	Package  workspace.Package
	Status   Status
	Lockfile string
}

// Engine drives the two sync flows: per-package lockfile patching, then a
// single root-aggregate patch plus manager-native refresh. It holds no state
// between releases beyond its configuration.
type Engine struct {
	root      string
	manager   string
	runner    pm.CommandRunner
	journal   *journal.Journal
	releaseID string
}

// New creates an engine for the repository rooted at root, driving the given
// package manager (npm, pnpm, or yarn).
func New(root, manager string) *Engine {
	return &Engine{
		root:      root,
		manager:   manager,
		runner:    pm.ExecRunner{},
		releaseID: uuid.NewString(),
	}
}

// WithRunner substitutes the process runner (fluent helper, used by tests).
func (e *Engine) WithRunner(r pm.CommandRunner) *Engine { e.runner = r; return e }

// WithJournal attaches an optional release journal (fluent helper).
func (e *Engine) WithJournal(j *journal.Journal) *Engine { e.journal = j; return e }

// ReleaseID returns the identifier attached to this engine's log and journal
// entries.
func (e *Engine) ReleaseID() string { return e.releaseID }

// Run executes a full sync: every package's own lockfile first, then the
// root aggregate. Per-package patches complete before any external tool is
// spawned, so the refresh observes already-correct manifests and lockfiles.
func (e *Engine) Run(ctx context.Context, pkgs []workspace.Package) error {
	if _, err := e.SyncPackages(ctx, pkgs); err != nil {
		return err
	}
	_, err := e.SyncRoot(ctx, pkgs)
	return err
}

// SyncPackages patches each package's own lockfile for its new version.
// Packages without a lockfile (or with an unparsable one) are skipped
// silently; a missing lockfile must not abort a multi-package release.
// Files are disjoint and the work is spawn-free, so the loop is sequential.
func (e *Engine) SyncPackages(ctx context.Context, pkgs []workspace.Package) ([]PackageResult, error) {
	results := make([]PackageResult, 0, len(pkgs))
	for _, pkg := range pkgs {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		lf := lockfile.Read(pkg.Dir)
		if lf == nil {
			slog.Debug("Package has no lockfile, skipping",
				logfields.Package(pkg.Name), logfields.ReleaseID(e.releaseID))
			results = append(results, PackageResult{Package: pkg, Status: StatusSkipped})
			e.record(ctx, pkg.Name, journal.ActionSkipped, "", "no lockfile")
			continue
		}

		lockfile.PatchOwnVersion(lf.Doc, pkg.Version)
		if err := lockfile.Write(lf.Path, lf.Doc); err != nil {
			return results, err
		}

		slog.Info("Patched package lockfile",
			logfields.Package(pkg.Name),
			logfields.Version(pkg.Version),
			logfields.Path(lf.Path),
			logfields.ReleaseID(e.releaseID))
		results = append(results, PackageResult{Package: pkg, Status: StatusPatched, Lockfile: lf.Path})
		e.record(ctx, pkg.Name, journal.ActionPatched, lf.Path, pkg.Version)
	}
	return results, nil
}

// SyncRoot brings the project-root lockfile back in line after all versions
// are finalized. When a modern root lockfile exists, its workspace entries
// are patched in one read-patch-write pass; independently, the configured
// package manager regenerates its native lockfile end to end. Returns the
// produced lockfile name, or "" when the manager produced none.
func (e *Engine) SyncRoot(ctx context.Context, pkgs []workspace.Package) (string, error) {
	if rootLock := lockfile.Read(e.root); rootLock != nil && rootLock.Kind == lockfile.ModernV2 {
		patched := lockfile.PatchWorkspaceVersions(rootLock.Doc, pkgs, e.root)
		if err := lockfile.Write(rootLock.Path, rootLock.Doc); err != nil {
			return "", err
		}
		slog.Info("Patched root aggregate lockfile",
			logfields.Path(rootLock.Path),
			logfields.Count(patched),
			logfields.ReleaseID(e.releaseID))
		e.record(ctx, "", journal.ActionRootPatched, rootLock.Path, "")
	}

	adapter, err := pm.ForManager(e.manager, e.runner)
	if err != nil {
		return "", err
	}

	produced, err := adapter.Refresh(ctx, e.root)
	if err != nil {
		e.record(ctx, "", journal.ActionNotProduced, "", err.Error())
		return "", err
	}
	if produced == "" {
		e.record(ctx, "", journal.ActionNotProduced, "", "")
		return "", nil
	}

	slog.Info("Refreshed root lockfile",
		logfields.Manager(adapter.Manager()),
		logfields.Lockfile(produced),
		logfields.ReleaseID(e.releaseID))
	e.record(ctx, "", journal.ActionRefreshed, filepath.Join(e.root, produced), "")
	return produced, nil
}

// record writes a journal entry when a journal is configured. Journal
// failures are logged, never escalated: an audit-trail hiccup must not fail
// a release that already succeeded on disk.
func (e *Engine) record(ctx context.Context, pkg, action, lockfilePath, detail string) {
	if e.journal == nil {
		return
	}
	err := e.journal.Record(ctx, journal.Entry{
		ReleaseID: e.releaseID,
		Package:   pkg,
		Action:    action,
		Lockfile:  lockfilePath,
		Detail:    detail,
	})
	if err != nil {
		slog.Warn("Failed to record journal entry",
			logfields.Error(lserr.Wrap(err, lserr.CategoryJournal, lserr.SeverityWarning, "journal record failed")),
			logfields.ReleaseID(e.releaseID))
	}
}
