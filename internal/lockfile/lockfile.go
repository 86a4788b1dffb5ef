// Package lockfile reads, classifies, patches, and writes npm lockfiles.
//
// Two schemas are handled: the classic v1 shape (top-level version plus a
// dependencies tree) and the classic/modern v2+ shape, which adds a flat
// "packages" map keyed by root-relative path where the empty key is the root
// package. pnpm and yarn lockfiles are opaque to this package; they are only
// regenerated by re-invoking their tool (see internal/pm).
package lockfile

import "os"

// Canonical lockfile names per package manager.
const (
	FileName       = "package-lock.json"
	ShrinkwrapName = "npm-shrinkwrap.json"
	PnpmFileName   = "pnpm-lock.yaml"
	YarnFileName   = "yarn.lock"
)

// Kind classifies the schema of a parsed lockfile document.
type Kind string

const (
	// ClassicV1 is the older flat dependency-tree shape.
	ClassicV1 Kind = "npm-classic"
	// ModernV2 is the newer shape carrying a path-keyed "packages" map.
	// Both shapes may coexist in one file for backward compatibility.
	ModernV2 Kind = "npm-modern"
)

// Document is a parsed lockfile JSON tree. Fields the engine does not touch
// are preserved verbatim through a patch/write round trip.
type Document map[string]any

// Kind classifies the document by the presence of the v2 "packages" map.
func (d Document) Kind() Kind {
	if d.packages() != nil {
		return ModernV2
	}
	return ClassicV1
}

// Version returns the document's top-level version string, if any.
func (d Document) Version() string {
	v, _ := d["version"].(string)
	return v
}

func (d Document) packages() map[string]any {
	m, _ := d["packages"].(map[string]any)
	return m
}

// Exists reports whether a file exists at the given path. It guards reads,
// writes, and renames throughout the engine.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
