package sync

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/locksync/internal/journal"
	"git.home.luguber.info/inful/locksync/internal/lockfile"
	"git.home.luguber.info/inful/locksync/internal/pm"
	"git.home.luguber.info/inful/locksync/internal/workspace"
)

// fakeRunner answers npm version probes and records every invocation. onRun
// lets a test observe on-disk state at spawn time.
type fakeRunner struct {
	version string
	calls   [][]string
	onRun   func(dir string, call []string)
}

func (f *fakeRunner) Run(_ context.Context, dir, name string, args ...string) ([]byte, error) {
	call := append([]string{name}, args...)
	f.calls = append(f.calls, call)
	if len(args) == 1 && args[0] == "--version" {
		return []byte(f.version + "\n"), nil
	}
	if f.onRun != nil {
		f.onRun(dir, call)
	}
	return nil, nil
}

// writeJSON writes v as JSON to path, creating parent directories.
func writeJSON(t *testing.T, path string, v string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(v), 0o644))
}

func readDoc(t *testing.T, path string) lockfile.Document {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	doc, err := lockfile.Parse(data)
	require.NoError(t, err)
	return doc
}

// fixture builds a workspace with one v1-locked, one v2-locked, and one
// lockfile-less package plus a modern root aggregate lockfile.
func fixture(t *testing.T) (string, []workspace.Package) {
	t.Helper()
	root := t.TempDir()

	writeJSON(t, filepath.Join(root, "packages", "pkg-1", "package-lock.json"), `{
		"name": "pkg-1", "version": "2.3.0", "lockfileVersion": 1,
		"dependencies": {"left-pad": {"version": "1.3.0"}}
	}`)
	writeJSON(t, filepath.Join(root, "packages", "pkg-2", "package-lock.json"), `{
		"name": "pkg-2", "version": "2.3.0", "lockfileVersion": 2,
		"packages": {"": {"version": "2.3.0"}, "node_modules/left-pad": {"version": "1.3.0"}}
	}`)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "packages", "pkg-3"), 0o750))

	writeJSON(t, filepath.Join(root, "package-lock.json"), `{
		"name": "monorepo", "version": "0.0.0", "lockfileVersion": 2,
		"packages": {
			"": {"version": "0.0.0"},
			"packages/pkg-1": {"version": "2.3.0"},
			"packages/pkg-2": {"version": "2.3.0"},
			"node_modules/left-pad": {"version": "1.3.0"}
		}
	}`)

	pkgs := []workspace.Package{
		{Name: "pkg-1", Version: "2.4.0", Dir: filepath.Join(root, "packages", "pkg-1")},
		{Name: "pkg-2", Version: "2.4.0", Dir: filepath.Join(root, "packages", "pkg-2")},
		{Name: "pkg-3", Version: "2.4.0", Dir: filepath.Join(root, "packages", "pkg-3")},
	}
	return root, pkgs
}

func TestSyncPackages_PatchesV1AndV2SkipsAbsent(t *testing.T) {
	root, pkgs := fixture(t)
	engine := New(root, pm.ManagerNPM).WithRunner(&fakeRunner{version: "9.0.0"})

	results, err := engine.SyncPackages(context.Background(), pkgs)
	require.NoError(t, err)
	require.Len(t, results, 3)
	require.Equal(t, StatusPatched, results[0].Status)
	require.Equal(t, StatusPatched, results[1].Status)
	require.Equal(t, StatusSkipped, results[2].Status)

	v1 := readDoc(t, filepath.Join(root, "packages", "pkg-1", "package-lock.json"))
	require.Equal(t, "2.4.0", v1.Version())
	deps := v1["dependencies"].(map[string]any)
	require.Equal(t, "1.3.0", deps["left-pad"].(map[string]any)["version"])

	v2 := readDoc(t, filepath.Join(root, "packages", "pkg-2", "package-lock.json"))
	require.Equal(t, "2.4.0", v2.Version())
	entries := v2["packages"].(map[string]any)
	require.Equal(t, "2.4.0", entries[""].(map[string]any)["version"])
	require.Equal(t, "1.3.0", entries["node_modules/left-pad"].(map[string]any)["version"])

	// Skipping never fabricates a lockfile.
	require.False(t, lockfile.Exists(filepath.Join(root, "packages", "pkg-3", "package-lock.json")))
}

func TestSyncRoot_PatchesAggregateAndRefreshes(t *testing.T) {
	root, pkgs := fixture(t)
	runner := &fakeRunner{version: "9.0.0"}
	engine := New(root, pm.ManagerNPM).WithRunner(runner)

	produced, err := engine.SyncRoot(context.Background(), pkgs)
	require.NoError(t, err)
	require.Equal(t, lockfile.FileName, produced)

	agg := readDoc(t, filepath.Join(root, "package-lock.json"))
	entries := agg["packages"].(map[string]any)
	require.Equal(t, "2.4.0", entries["packages/pkg-1"].(map[string]any)["version"])
	require.Equal(t, "2.4.0", entries["packages/pkg-2"].(map[string]any)["version"])
	require.Equal(t, "1.3.0", entries["node_modules/left-pad"].(map[string]any)["version"])

	require.Equal(t, []string{"npm", "install", "--package-lock-only"}, runner.calls[len(runner.calls)-1])
}

func TestRun_PatchesBeforeAnySpawn(t *testing.T) {
	root, pkgs := fixture(t)

	var versionAtSpawn string
	runner := &fakeRunner{
		version: "9.0.0",
		onRun: func(dir string, call []string) {
			doc := readDoc(t, filepath.Join(root, "packages", "pkg-2", "package-lock.json"))
			versionAtSpawn = doc.Version()
		},
	}
	engine := New(root, pm.ManagerNPM).WithRunner(runner)

	require.NoError(t, engine.Run(context.Background(), pkgs))

	// The external tool observed already-patched per-package lockfiles.
	require.Equal(t, "2.4.0", versionAtSpawn)
}

func TestSyncRoot_PnpmWithoutLockfile_ReportsNotProduced(t *testing.T) {
	root, pkgs := fixture(t)
	runner := &fakeRunner{}
	engine := New(root, pm.ManagerPnpm).WithRunner(runner)

	produced, err := engine.SyncRoot(context.Background(), pkgs)
	require.NoError(t, err)
	require.Empty(t, produced)
	require.Empty(t, runner.calls)
}

func TestRun_RecordsJournalEntriesPerRelease(t *testing.T) {
	root, pkgs := fixture(t)

	j, err := journal.Open(":memory:")
	require.NoError(t, err)
	defer j.Close()

	engine := New(root, pm.ManagerNPM).
		WithRunner(&fakeRunner{version: "9.0.0"}).
		WithJournal(j)

	require.NoError(t, engine.Run(context.Background(), pkgs))

	entries, err := j.ByRelease(context.Background(), engine.ReleaseID())
	require.NoError(t, err)

	actions := make([]string, 0, len(entries))
	for _, e := range entries {
		actions = append(actions, e.Action)
	}
	require.Equal(t, []string{
		journal.ActionPatched,
		journal.ActionPatched,
		journal.ActionSkipped,
		journal.ActionRootPatched,
		journal.ActionRefreshed,
	}, actions)
}

func TestSyncPackages_ContextCancelled_StopsEarly(t *testing.T) {
	root, pkgs := fixture(t)
	engine := New(root, pm.ManagerNPM).WithRunner(&fakeRunner{version: "9.0.0"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.SyncPackages(ctx, pkgs)
	require.ErrorIs(t, err, context.Canceled)
}

func TestEngine_ReleaseIDsAreUniquePerEngine(t *testing.T) {
	root := t.TempDir()
	a := New(root, pm.ManagerNPM)
	b := New(root, pm.ManagerNPM)
	require.NotEmpty(t, a.ReleaseID())
	require.NotEqual(t, a.ReleaseID(), b.ReleaseID())
	require.False(t, strings.ContainsAny(a.ReleaseID(), " \t"))
}

func TestSyncRoot_NoRootLockfile_StillInvokesAdapter(t *testing.T) {
	root := t.TempDir()
	runner := &fakeRunner{version: "9.0.0"}
	engine := New(root, pm.ManagerNPM).WithRunner(runner)

	produced, err := engine.SyncRoot(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, lockfile.FileName, produced)

	// Aggregate patch was skipped (nothing to patch), refresh still ran.
	var sawInstall bool
	for _, call := range runner.calls {
		if len(call) > 1 && call[1] == "install" {
			sawInstall = true
		}
	}
	require.True(t, sawInstall)
}
