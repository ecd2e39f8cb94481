// Package layout defines the canonical Mergelytics workspace skeleton:
// which directories and files the tool owns, and the order they are
// provisioned in. Everything else under a workspace belongs to the user.
package layout

import (
	"path/filepath"
	"sort"
)

// Kind discriminates skeleton entries.
type Kind string

const (
	KindDir  Kind = "dir"
	KindFile Kind = "file"
)

// Entry is one element of the workspace skeleton. Path is
// workspace-relative and always uses forward slashes.
type Entry struct {
	Path string
	Kind Kind
}

// dirs are created first, in this order. Parents are implied.
var dirs = []string{
	"scraper",
	"dashboard/src/components",
	"dashboard/src/data",
	"dashboard/public",
	".github/workflows",
	"docs",
}

// files are written after all directories exist, in this order.
var files = []string{
	"scraper/requirements.txt",
	"dashboard/package.json",
	"README.md",
	".gitignore",
	"docs/SETUP.md",
}

// Dirs returns the skeleton directory paths in creation order.
func Dirs() []string {
	out := make([]string, len(dirs))
	copy(out, dirs)
	return out
}

// Files returns the skeleton file paths in write order.
func Files() []string {
	out := make([]string, len(files))
	copy(out, files)
	return out
}

// Entries returns every skeleton entry, directories first.
func Entries() []Entry {
	out := make([]Entry, 0, len(dirs)+len(files))
	for _, d := range dirs {
		out = append(out, Entry{Path: d, Kind: KindDir})
	}
	for _, f := range files {
		out = append(out, Entry{Path: f, Kind: KindFile})
	}
	return out
}

// Lookup returns the skeleton entry for a workspace-relative path.
func Lookup(rel string) (Entry, bool) {
	rel = filepath.ToSlash(rel)
	for _, e := range Entries() {
		if e.Path == rel {
			return e, true
		}
	}
	return Entry{}, false
}

// Abs resolves a skeleton path inside workspace using the platform
// separator.
func Abs(workspace, rel string) string {
	return filepath.Join(workspace, filepath.FromSlash(rel))
}

// WatchDirs returns the absolute directories a drift watcher must monitor
// to see every skeleton entry: the workspace root plus each skeleton
// directory, deduplicated.
func WatchDirs(workspace string) []string {
	seen := map[string]bool{filepath.Clean(workspace): true}
	for _, d := range dirs {
		seen[Abs(workspace, d)] = true
	}
	for _, f := range files {
		seen[filepath.Dir(Abs(workspace, f))] = true
	}

	out := make([]string, 0, len(seen))
	for dir := range seen {
		out = append(out, dir)
	}
	sort.Strings(out)
	return out
}
