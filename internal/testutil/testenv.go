package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// Env is an isolated home for one test: a workspace base directory plus
// config and state homes pointed at temp dirs.
type Env struct {
	Base       string
	ConfigHome string
	StateHome  string
}

func NewEnv(t *testing.T) Env {
	t.Helper()

	env := Env{
		Base:       filepath.Join(t.TempDir(), "tries"),
		ConfigHome: t.TempDir(),
		StateHome:  t.TempDir(),
	}
	t.Setenv("XDG_CONFIG_HOME", env.ConfigHome)
	t.Setenv("XDG_STATE_HOME", env.StateHome)
	t.Setenv("TRY_PATH", "")
	t.Setenv("TRY_DEBUG", "")
	t.Setenv("NO_COLOR", "1")
	mustMkdirAll(t, env.Base)
	return env
}

// Workspace creates base/name and stamps it with modTime.
func (e Env) Workspace(t *testing.T, name string, modTime time.Time) string {
	t.Helper()
	return MakeDir(t, filepath.Join(e.Base, name), modTime)
}

// MakeDir creates path (and parents) and stamps it with modTime.
func MakeDir(t *testing.T, path string, modTime time.Time) string {
	t.Helper()
	mustMkdirAll(t, path)
	if !modTime.IsZero() {
		if err := os.Chtimes(path, modTime, modTime); err != nil {
			t.Fatalf("Chtimes(%q): %v", path, err)
		}
	}
	return path
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	mustMkdirAll(t, filepath.Dir(path))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %q: %v", path, err)
	}
}

func mustMkdirAll(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("MkdirAll(%q): %v", path, err)
	}
}
