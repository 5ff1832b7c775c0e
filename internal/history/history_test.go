package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amulcse/try/internal/testutil"
)

func TestEntriesMissingFile(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "try", "workspaces"))
	require.NoError(t, err)

	got, err := s.Entries()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEntriesSkipsBlankLines(t *testing.T) {
	file := filepath.Join(t.TempDir(), "workspaces")
	testutil.WriteFile(t, file, "/a\n\n  /b  \n")

	s, err := Open(file)
	require.NoError(t, err)
	got, err := s.Entries()
	require.NoError(t, err)
	assert.Equal(t, []string{"/a", "/b"}, got)
}

func TestAddMovesExistingToEnd(t *testing.T) {
	root := t.TempDir()
	a := testutil.MakeDir(t, filepath.Join(root, "a"), time.Time{})
	b := testutil.MakeDir(t, filepath.Join(root, "b"), time.Time{})
	a, _ = filepath.EvalSymlinks(a)
	b, _ = filepath.EvalSymlinks(b)

	s, err := Open(filepath.Join(root, "config", "workspaces"))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Add(a))
	require.NoError(t, s.Add(b))
	require.NoError(t, s.Add(a))

	got, err := s.Entries()
	require.NoError(t, err)
	assert.Equal(t, []string{b, a}, got)

	raw, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, b+"\n"+a+"\n", string(raw))
}

func TestAddKeepsMissingPathsAbsolute(t *testing.T) {
	root := t.TempDir()
	s, err := Open(filepath.Join(root, "workspaces"))
	require.NoError(t, err)

	target := filepath.Join(root, "not", "..", "gone")
	require.NoError(t, s.Add(target))

	got, err := s.Entries()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, filepath.IsAbs(got[0]))
	assert.Equal(t, "gone", filepath.Base(got[0]))
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	var s Store = Nop{}
	require.NoError(t, s.Add("/x"))
	got, err := s.Entries()
	require.NoError(t, err)
	assert.Empty(t, got)
}
