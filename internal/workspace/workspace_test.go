package workspace

import (
	"os"
	"path/filepath"
	"testing"

	git "github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(content), 0o644))
}

func TestDiscover_ReadsNameAndVersionFromManifests(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, filepath.Join(root, "packages", "pkg-b"), `{"name":"pkg-b","version":"2.4.0"}`)
	writeManifest(t, filepath.Join(root, "packages", "pkg-a"), `{"name":"pkg-a","version":"2.4.0","private":true}`)

	pkgs, err := Discover(root, []string{"packages/*"})
	require.NoError(t, err)
	require.Len(t, pkgs, 2)

	// Sorted by name for deterministic release ordering.
	require.Equal(t, "pkg-a", pkgs[0].Name)
	require.True(t, pkgs[0].Private)
	require.Equal(t, "pkg-b", pkgs[1].Name)
	require.Equal(t, "2.4.0", pkgs[1].Version)
	require.Equal(t, filepath.Join(root, "packages", "pkg-b"), pkgs[1].Dir)
	require.Equal(t, filepath.Join(root, "packages", "pkg-b", "package.json"), pkgs[1].ManifestPath)
}

func TestDiscover_SkipsNamelessAndUnparsableManifests(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, filepath.Join(root, "packages", "ok"), `{"name":"ok","version":"1.0.0"}`)
	writeManifest(t, filepath.Join(root, "packages", "nameless"), `{"version":"1.0.0"}`)
	writeManifest(t, filepath.Join(root, "packages", "broken"), `{not json`)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "packages", "empty"), 0o750))

	pkgs, err := Discover(root, []string{"packages/*"})
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	require.Equal(t, "ok", pkgs[0].Name)
}

func TestDiscover_DuplicateGlobs_DeduplicatesDirectories(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, filepath.Join(root, "packages", "pkg-a"), `{"name":"pkg-a","version":"1.0.0"}`)

	pkgs, err := Discover(root, []string{"packages/*", "packages/pkg-a"})
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
}

func TestFindRoot_InsideGitWorktree_ReturnsWorktreeRoot(t *testing.T) {
	root := t.TempDir()
	_, err := git.PlainInit(root, false)
	require.NoError(t, err)

	nested := filepath.Join(root, "packages", "pkg-a")
	require.NoError(t, os.MkdirAll(nested, 0o750))

	got := FindRoot(nested)
	wantRoot, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	gotResolved, err := filepath.EvalSymlinks(got)
	require.NoError(t, err)
	require.Equal(t, wantRoot, gotResolved)
}

func TestFindRoot_NoRepository_FallsBackToStart(t *testing.T) {
	dir := t.TempDir()

	got := FindRoot(dir)
	abs, err := filepath.Abs(dir)
	require.NoError(t, err)
	require.Equal(t, abs, got)
}

func TestRelPath_SlashSeparated(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "packages", "pkg-a")

	rel, err := RelPath(root, dir)
	require.NoError(t, err)
	require.Equal(t, "packages/pkg-a", rel)
}
