// Package history persists the list of workspace paths picked with
// "try set" and "try init".
package history

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Store is the repository the CLI hands to the history picker. Paths are
// returned oldest first.
type Store interface {
	Entries() ([]string, error)
	Add(path string) error
	Close() error
}

// FileStore keeps one absolute path per line.
type FileStore struct {
	path string
}

// Open returns a store backed by path. The file is created lazily on the
// first Add.
func Open(path string) (*FileStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("history file path is empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve history file %s: %w", path, err)
	}
	return &FileStore{path: abs}, nil
}

// Path returns the backing file.
func (s *FileStore) Path() string { return s.path }

// Entries reads the whole file. A missing file is an empty history.
func (s *FileStore) Entries() ([]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("open history: %w", err)
	}
	defer f.Close()

	var paths []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		paths = append(paths, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	return paths, nil
}

// Add moves path to the most recent position, appending it when new.
func (s *FileStore) Add(path string) error {
	abs := canonical(path)

	paths, err := s.Entries()
	if err != nil {
		return err
	}
	kept := make([]string, 0, len(paths)+1)
	for _, p := range paths {
		if p != abs {
			kept = append(kept, p)
		}
	}
	kept = append(kept, abs)
	return s.write(kept)
}

// Close is a no-op; the file is never held open between calls.
func (s *FileStore) Close() error { return nil }

func (s *FileStore) write(paths []string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".workspaces-*")
	if err != nil {
		return fmt.Errorf("create history temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	w := bufio.NewWriter(tmp)
	for _, p := range paths {
		if _, err := w.WriteString(p + "\n"); err != nil {
			tmp.Close()
			return fmt.Errorf("write history: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("write history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close history temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace history file: %w", err)
	}
	return nil
}

func canonical(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real
	}
	return filepath.Clean(abs)
}

// Nop is used when no history location can be resolved.
type Nop struct{}

func (Nop) Entries() ([]string, error) { return []string{}, nil }
func (Nop) Add(string) error           { return nil }
func (Nop) Close() error               { return nil }
