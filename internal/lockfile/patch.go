package lockfile

import (
	"git.home.luguber.info/inful/locksync/internal/workspace"
)

// PatchOwnVersion sets a package's own version in its lockfile document.
//
// The top-level "version" field is always set. When the document also carries
// a v2 "packages" map, the root entry (key "") is set identically. No other
// entries are touched. Applying the same version twice is a no-op.
func PatchOwnVersion(doc Document, version string) {
	doc["version"] = version

	pkgs := doc.packages()
	if pkgs == nil {
		return
	}
	root, ok := pkgs[""].(map[string]any)
	if !ok {
		root = map[string]any{}
		pkgs[""] = root
	}
	root["version"] = version
}

// PatchWorkspaceVersions updates the root-aggregate lockfile's entries for
// every released workspace package and returns how many entries were patched.
//
// Each package is looked up under "packages" by its root-relative path.
// Packages absent from the aggregate are silently skipped: they may be
// private, unpublished, or predate the lockfile. Unrelated entries are left
// untouched.
func PatchWorkspaceVersions(doc Document, pkgs []workspace.Package, root string) int {
	entries := doc.packages()
	if entries == nil {
		return 0
	}

	patched := 0
	for _, pkg := range pkgs {
		rel, err := workspace.RelPath(root, pkg.Dir)
		if err != nil {
			continue
		}
		entry, ok := entries[rel].(map[string]any)
		if !ok {
			continue
		}
		entry["version"] = pkg.Version
		patched++
	}
	return patched
}
