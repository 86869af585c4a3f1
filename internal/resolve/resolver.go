// Package resolve turns user-supplied path strings into verified directory entries.
package resolve

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/samber/lo"

	"vr8-converter/internal/domain"
)

// Entry is one input file confirmed to exist in its parent directory listing.
type Entry struct {
	Path  string
	Entry os.DirEntry
}

// Resolver looks up each input path in its parent directory.
type Resolver struct {
	readDir func(name string) ([]os.DirEntry, error)
}

// NewResolver builds a resolver backed by the real filesystem.
func NewResolver() *Resolver {
	return &Resolver{readDir: os.ReadDir}
}

// NewResolverForTests builds a resolver with an injectable directory lister.
func NewResolverForTests(readDir func(name string) ([]os.DirEntry, error)) *Resolver {
	return &Resolver{readDir: readDir}
}

// Resolve verifies every path and returns entries in input order. Relative
// paths are joined onto baseDir. The first failing path aborts resolution.
func (r *Resolver) Resolve(baseDir string, paths []string) ([]Entry, error) {
	listings := make(map[string]map[string]os.DirEntry)
	entries := make([]Entry, 0, len(paths))

	for _, raw := range paths {
		target := Absolute(baseDir, raw)
		parent := filepath.Dir(target)

		listing, ok := listings[parent]
		if !ok {
			dirEntries, err := r.readDir(parent)
			if err != nil {
				return nil, domain.IOFailure("list directory "+parent, err)
			}
			listing = make(map[string]os.DirEntry, len(dirEntries))
			for _, entry := range dirEntries {
				listing[filepath.Join(parent, entry.Name())] = entry
			}
			listings[parent] = listing
		}

		entry, ok := listing[target]
		if !ok {
			return nil, domain.InvalidInput(fmt.Sprintf("file not found at %q", target))
		}
		if entry.IsDir() {
			return nil, domain.InvalidInput("not a regular file: " + target)
		}

		entries = append(entries, Entry{Path: target, Entry: entry})
	}

	return entries, nil
}

// Absolute joins a relative path onto baseDir and cleans the result.
func Absolute(baseDir, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(baseDir, path)
}

// AllAbsolute reports whether no path needs a base directory.
func AllAbsolute(paths []string) bool {
	return lo.EveryBy(paths, filepath.IsAbs)
}
