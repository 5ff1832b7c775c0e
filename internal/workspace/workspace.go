// Package workspace loads the candidate directories shown by the selector
// and removes them on request.
package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/gobwas/glob"

	"github.com/amulcse/try/internal/fuzzy"
)

// Entry is one selectable workspace directory.
type Entry struct {
	// Name is the text shown and matched: the directory base name when
	// scanning, the full path when listing history.
	Name    string
	Key     string
	Path    string
	ModTime time.Time
}

// ScanOptions tunes Scan.
type ScanOptions struct {
	// Exclude holds glob patterns matched against directory base names.
	Exclude []string
}

func newEntry(name, path string, modTime time.Time) Entry {
	return Entry{
		Name:    name,
		Key:     fuzzy.Fold(name),
		Path:    path,
		ModTime: modTime,
	}
}

// Scan lists the immediate subdirectories of base. Hidden names and plain
// files are skipped. A missing base yields no entries and no error.
func Scan(base string, opts ScanOptions) ([]Entry, error) {
	excludes, err := compileExcludes(opts.Exclude)
	if err != nil {
		return nil, err
	}

	dirents, err := os.ReadDir(base)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("read workspace dir %s: %w", base, err)
	}

	entries := make([]Entry, 0, len(dirents))
	for _, d := range dirents {
		name := d.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		path := filepath.Join(base, name)

		// follow symlinks so linked workspaces still count as directories
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
		if !info.IsDir() {
			continue
		}
		if excluded(excludes, name) {
			continue
		}
		entries = append(entries, newEntry(name, path, info.ModTime()))
	}
	return entries, nil
}

// FromHistory turns the stored history (oldest first) into entries, most
// recently added first. Paths that no longer exist are dropped; a path
// whose metadata cannot be read is stamped with now.
func FromHistory(paths []string, now time.Time) []Entry {
	entries := make([]Entry, 0, len(paths))
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		info, err := os.Stat(p)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			entries = append(entries, newEntry(p, p, now))
			continue
		}
		entries = append(entries, newEntry(p, p, info.ModTime()))
	}
	slices.Reverse(entries)
	return entries
}

// Remove recursively deletes every path. Targets that are already gone are
// skipped. The first other failure stops the batch; earlier removals stay
// done.
func Remove(paths []string) (int, error) {
	removed := 0
	for _, p := range paths {
		if _, err := os.Lstat(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return removed, fmt.Errorf("stat %s: %w", p, err)
		}
		if err := os.RemoveAll(p); err != nil {
			return removed, fmt.Errorf("remove %s: %w", p, err)
		}
		removed++
	}
	return removed, nil
}

// Contained reports whether path lives strictly below base once symlinks
// are resolved.
func Contained(base, path string) bool {
	baseReal := resolve(base)
	targetReal := resolve(path)
	rel, err := filepath.Rel(baseReal, targetReal)
	if err != nil {
		return false
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	return !filepath.IsAbs(rel)
}

func resolve(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real
	}
	return filepath.Clean(abs)
}

func compileExcludes(patterns []string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", p, err)
		}
		out = append(out, g)
	}
	return out, nil
}

func excluded(globs []glob.Glob, name string) bool {
	for _, g := range globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// Items adapts entries for ranking.
func Items(entries []Entry) []fuzzy.Item {
	items := make([]fuzzy.Item, len(entries))
	for i, e := range entries {
		items[i] = fuzzy.Item{Name: e.Name, Key: e.Key, ModTime: e.ModTime}
	}
	return items
}
