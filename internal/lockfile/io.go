package lockfile

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"

	lserr "git.home.luguber.info/inful/locksync/internal/errors"
	"git.home.luguber.info/inful/locksync/internal/logfields"
)

// filePermissions matches what npm itself writes for lockfiles.
const filePermissions = 0o644

// File is a lockfile loaded from disk, ready for patching.
type File struct {
	Path string
	Kind Kind
	Doc  Document
}

// Read loads the lockfile sitting next to a package manifest in dir.
//
// A package without a lockfile is valid and must not abort a multi-package
// release, so an absent or unparsable file yields nil rather than an error.
// Read has no side effects.
func Read(dir string) *File {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Debug("No lockfile for package", logfields.Path(path))
		return nil
	}

	doc, err := Parse(data)
	if err != nil {
		// Malformed lockfiles are treated like absent ones in the
		// per-package flow; the manager-native refresh rebuilds them.
		slog.Debug("Skipping unparsable lockfile", logfields.Path(path), logfields.Error(err))
		return nil
	}

	return &File{Path: path, Kind: doc.Kind(), Doc: doc}
}

// Parse parses lockfile JSON data.
func Parse(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Write serializes the document back to path as formatted JSON with a
// trailing newline, matching npm's own two-space output closely enough to
// avoid spurious diffs. Write failures are fatal: the release must halt
// rather than falsely succeed with a stale lockfile on disk.
func Write(path string, doc Document) error {
	data, err := Marshal(doc)
	if err != nil {
		return lserr.Wrap(err, lserr.CategoryLockfile, lserr.SeverityFatal, "failed to serialize lockfile").
			WithContext("path", path)
	}
	if err := os.WriteFile(path, data, filePermissions); err != nil {
		return lserr.WriteError(err, path)
	}
	return nil
}

// Marshal serializes the document as npm-style JSON: two-space indent,
// HTML escaping off, trailing newline. Map keys marshal in sorted order,
// which matches npm's sorted output for the maps the engine touches.
func Marshal(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
