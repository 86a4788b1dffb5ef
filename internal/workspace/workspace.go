// Package workspace models the publishable packages of a multi-package
// repository and discovers them from their manifests.
package workspace

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"git.home.luguber.info/inful/locksync/internal/logfields"
	git "github.com/go-git/go-git/v5"
)

// Package is one publishable unit within the repository. Version is decided
// upstream by the semantic-version engine; this engine only reads it.
type Package struct {
	Name         string
	Version      string
	Dir          string
	ManifestPath string
	Private      bool
}

// manifest is the subset of package.json the engine cares about.
type manifest struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Private bool   `json:"private"`
}

// Discover loads workspace packages by reading the package.json manifest in
// every directory matching one of the globs (relative to root). Manifests
// without a name are skipped; they cannot appear in any lockfile.
func Discover(root string, globs []string) ([]Package, error) {
	var pkgs []Package
	seen := map[string]bool{}

	for _, g := range globs {
		matches, err := filepath.Glob(filepath.Join(root, g))
		if err != nil {
			return nil, fmt.Errorf("invalid package glob %q: %w", g, err)
		}
		for _, dir := range matches {
			info, err := os.Stat(dir)
			if err != nil || !info.IsDir() || seen[dir] {
				continue
			}
			seen[dir] = true

			manifestPath := filepath.Join(dir, "package.json")
			data, err := os.ReadFile(manifestPath)
			if err != nil {
				continue // not a package directory
			}
			var m manifest
			if err := json.Unmarshal(data, &m); err != nil {
				slog.Warn("Skipping unparsable package manifest", logfields.Path(manifestPath), logfields.Error(err))
				continue
			}
			if m.Name == "" {
				slog.Debug("Skipping nameless package manifest", logfields.Path(manifestPath))
				continue
			}
			pkgs = append(pkgs, Package{
				Name:         m.Name,
				Version:      m.Version,
				Dir:          dir,
				ManifestPath: manifestPath,
				Private:      m.Private,
			})
		}
	}

	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].Name < pkgs[j].Name })
	return pkgs, nil
}

// FindRoot locates the repository root for a directory by walking up to the
// enclosing git worktree. When no repository encloses start (detached
// tarballs, tests), start itself is returned.
func FindRoot(start string) string {
	abs, err := filepath.Abs(start)
	if err != nil {
		return start
	}
	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return abs
	}
	wt, err := repo.Worktree()
	if err != nil {
		return abs
	}
	return wt.Filesystem.Root()
}

// RelPath returns a package directory's slash-separated path relative to the
// repository root, the form used as a key in the aggregate lockfile's
// "packages" map.
func RelPath(root, dir string) (string, error) {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return "", fmt.Errorf("package %s is not under root %s: %w", dir, root, err)
	}
	return filepath.ToSlash(rel), nil
}
