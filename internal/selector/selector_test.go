package selector

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amulcse/try/internal/testutil"
	"github.com/amulcse/try/internal/tui"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func typeText(s string) []tui.Event {
	events := make([]tui.Event, 0, len(s))
	for _, r := range s {
		events = append(events, tui.RuneEvent(r))
	}
	return events
}

func keys(ks ...tui.Key) []tui.Event {
	events := make([]tui.Event, 0, len(ks))
	for _, k := range ks {
		events = append(events, tui.KeyEvent(k))
	}
	return events
}

func script(parts ...[]tui.Event) []tui.Event {
	var out []tui.Event
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// seedWorkspaces creates a base with a few workspaces of known age.
func seedWorkspaces(t *testing.T) testutil.Env {
	t.Helper()
	env := testutil.NewEnv(t)
	env.Workspace(t, "alpha-2024-05-01", testNow.Add(-24*time.Hour))
	env.Workspace(t, "beta", testNow.Add(-2*time.Hour))
	env.Workspace(t, "gamma-2024-05-20", testNow.Add(-time.Hour))
	return env
}

func newTestSelector(t *testing.T, opts Options, events ...tui.Event) (*Selector, *tui.ScriptDevice) {
	t.Helper()
	dev := tui.NewScriptDevice(80, 24, events...)
	opts.Now = func() time.Time { return testNow }
	return New(dev, opts), dev
}

func loaded(t *testing.T, opts Options) *Selector {
	t.Helper()
	s, _ := newTestSelector(t, opts)
	require.NoError(t, s.load())
	s.rescore()
	return s
}

func TestEmptyQueryHasNoCreateRow(t *testing.T) {
	env := seedWorkspaces(t)
	s := loaded(t, Options{Base: env.Base})

	assert.False(t, s.createAvailable())
	assert.Equal(t, 3, s.visible())
	for _, line := range tui.BuildFrame(s.frameView()).Plain() {
		assert.NotContains(t, line, "Create new")
	}
}

func TestViewSortedByScore(t *testing.T) {
	env := seedWorkspaces(t)
	s := loaded(t, Options{Base: env.Base})

	require.Len(t, s.view, 3)
	for i := 1; i < len(s.view); i++ {
		assert.GreaterOrEqual(t, s.view[i-1].Score, s.view[i].Score)
	}
	// date-suffixed and recent wins with an empty query
	assert.Equal(t, "gamma-2024-05-20", s.entries[s.view[0].Index].Name)
}

func TestQueryFiltersView(t *testing.T) {
	env := seedWorkspaces(t)
	s := loaded(t, Options{Base: env.Base})

	_, err := s.handle(context.Background(), tui.RuneEvent('b'))
	require.NoError(t, err)
	s.rescore()

	require.Len(t, s.view, 1)
	assert.Equal(t, "beta", s.entries[s.view[0].Index].Name)
	assert.Greater(t, s.view[0].Score, 0.0)
	assert.True(t, s.createAvailable())
	assert.Equal(t, 2, s.visible())
}

func TestMarkRoundTrip(t *testing.T) {
	env := seedWorkspaces(t)
	s := loaded(t, Options{Base: env.Base})
	ctx := context.Background()

	before := append([]string(nil), s.marked...)
	assert.Equal(t, Browsing, s.State())

	_, err := s.handle(ctx, tui.KeyEvent(tui.KeyDelete))
	require.NoError(t, err)
	assert.Len(t, s.marked, 1)
	assert.Equal(t, DeletePending, s.State())

	_, err = s.handle(ctx, tui.KeyEvent(tui.KeyCtrlD))
	require.NoError(t, err)
	assert.Equal(t, before, s.marked)
	assert.Equal(t, Browsing, s.State())
}

func TestMarkIgnoresCreateRow(t *testing.T) {
	env := seedWorkspaces(t)
	s := loaded(t, Options{Base: env.Base, Query: "zzz"})

	require.Empty(t, s.view)
	require.True(t, s.onCreateRow())
	assert.False(t, s.toggleMark())
	assert.Empty(t, s.marked)
}

func TestCursorInvariant(t *testing.T) {
	env := testutil.NewEnv(t)
	for i := 0; i < 40; i++ {
		env.Workspace(t, "ws-"+string(rune('a'+i%26))+strings.Repeat("x", i/26), testNow.Add(-time.Duration(i)*time.Hour))
	}
	s := loaded(t, Options{Base: env.Base})
	ctx := context.Background()

	rng := rand.New(rand.NewSource(7))
	choices := []tui.Event{
		tui.KeyEvent(tui.KeyUp), tui.KeyEvent(tui.KeyDown),
		tui.KeyEvent(tui.KeyCtrlP), tui.KeyEvent(tui.KeyCtrlN),
		tui.ResizeEvent(80, 12), tui.ResizeEvent(80, 30),
		tui.RuneEvent('w'), tui.KeyEvent(tui.KeyBackspace),
	}
	for i := 0; i < 500; i++ {
		st, err := s.handle(ctx, choices[rng.Intn(len(choices))])
		require.NoError(t, err)
		if st.recompute {
			s.rescore()
		}

		n := s.visible()
		rows := tui.ListRows(s.height)
		require.Positive(t, n)
		assert.GreaterOrEqual(t, s.cursor, 0)
		assert.Less(t, s.cursor, n)
		assert.LessOrEqual(t, s.scroll, s.cursor)
		assert.Less(t, s.cursor, s.scroll+rows)
	}
}

func TestCursorClampsWithoutWraparound(t *testing.T) {
	env := seedWorkspaces(t)
	s := loaded(t, Options{Base: env.Base})
	ctx := context.Background()

	st, err := s.handle(ctx, tui.KeyEvent(tui.KeyUp))
	require.NoError(t, err)
	assert.False(t, st.redraw)
	assert.Equal(t, 0, s.cursor)

	for i := 0; i < 5; i++ {
		_, err = s.handle(ctx, tui.KeyEvent(tui.KeyDown))
		require.NoError(t, err)
	}
	assert.Equal(t, 2, s.cursor)
}

func TestNavigationRedrawsWithoutRescoring(t *testing.T) {
	env := seedWorkspaces(t)
	s := loaded(t, Options{Base: env.Base})

	st, err := s.handle(context.Background(), tui.KeyEvent(tui.KeyDown))
	require.NoError(t, err)
	assert.True(t, st.redraw)
	assert.False(t, st.recompute)

	st, err = s.handle(context.Background(), tui.RuneEvent('a'))
	require.NoError(t, err)
	assert.True(t, st.recompute)
	assert.Equal(t, 0, s.cursor)
}

func TestQueryEditing(t *testing.T) {
	env := seedWorkspaces(t)
	s := loaded(t, Options{Base: env.Base, Query: "my new"})
	ctx := context.Background()
	assert.Equal(t, "my-new", s.Query())

	for _, ev := range script(typeText("!x"), keys(tui.KeyBackspace)) {
		_, err := s.handle(ctx, ev)
		require.NoError(t, err)
	}
	assert.Equal(t, "my-new", s.Query())

	_, err := s.handle(ctx, tui.KeyEvent(tui.KeyCtrlW))
	require.NoError(t, err)
	assert.Equal(t, "my-", s.Query())

	_, err = s.handle(ctx, tui.KeyEvent(tui.KeyCtrlU))
	require.NoError(t, err)
	assert.Equal(t, "", s.Query())

	_, err = s.handle(ctx, tui.KeyEvent(tui.KeyBackspace))
	require.NoError(t, err)
	assert.Equal(t, "", s.Query())
}

func TestDropWord(t *testing.T) {
	assert.Equal(t, "foo-", string(dropWord([]rune("foo-bar"))))
	assert.Equal(t, "foo-", string(dropWord([]rune("foo-bar--"))))
	assert.Equal(t, "", string(dropWord([]rune("foo"))))
	assert.Equal(t, "", string(dropWord(nil)))
}

func TestRunCreateNew(t *testing.T) {
	env := seedWorkspaces(t)
	s, dev := newTestSelector(t, Options{Base: env.Base},
		script(typeText("newproj"), keys(tui.KeyEnter))...)

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Cancelled)
	assert.Equal(t, Action{Kind: CreateAndEnter, Path: filepath.Join(env.Base, "newproj-2024-06-01")}, res.Action)
	assert.Equal(t, Exited, s.State())
	assert.Zero(t, dev.Remaining())
}

func TestRunCreateNewWithCtrlT(t *testing.T) {
	env := seedWorkspaces(t)
	s, _ := newTestSelector(t, Options{Base: env.Base, Query: "be ta"},
		keys(tui.KeyCtrlT)...)

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Action{Kind: CreateAndEnter, Path: filepath.Join(env.Base, "be-ta-2024-06-01")}, res.Action)
}

func TestRunChangeDirectory(t *testing.T) {
	env := seedWorkspaces(t)
	s, _ := newTestSelector(t, Options{Base: env.Base},
		script(typeText("beta"), keys(tui.KeyEnter))...)

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Action{Kind: ChangeDirectory, Path: filepath.Join(env.Base, "beta")}, res.Action)
}

func TestRunCancel(t *testing.T) {
	env := seedWorkspaces(t)
	s, dev := newTestSelector(t, Options{Base: env.Base}, keys(tui.KeyCtrlC)...)

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Cancelled)
	assert.Equal(t, []time.Duration{PollInterval}, dev.Polls())
}

func TestRunEscClearsMarksFirst(t *testing.T) {
	env := seedWorkspaces(t)
	s, dev := newTestSelector(t, Options{Base: env.Base},
		keys(tui.KeyDelete, tui.KeyEscape, tui.KeyDown, tui.KeyEnter)...)

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	require.False(t, res.Cancelled)
	assert.Equal(t, ChangeDirectory, res.Action.Kind)
	assert.Empty(t, s.marked)
	assert.Zero(t, dev.Remaining())
}

func TestRunDeleteConfirmed(t *testing.T) {
	env := seedWorkspaces(t)
	s, dev := newTestSelector(t, Options{Base: env.Base},
		script(
			typeText("beta"),
			keys(tui.KeyDelete, tui.KeyEnter),
			typeText("YES"),
			keys(tui.KeyEnter),
		)...)

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Cancelled) // script ran out, Escape exits
	assert.Equal(t, 1, res.Deleted)

	_, err = os.Stat(filepath.Join(env.Base, "beta"))
	assert.True(t, os.IsNotExist(err))
	assert.Contains(t, dev.Output(), "Deleted 1 items.")
	assert.Contains(t, dev.Output(), "Type YES to confirm")

	polls := dev.Polls()
	assert.Contains(t, polls, ConfirmPollInterval)
	assert.Equal(t, PollInterval, polls[0])
}

func TestRunDeleteCancelledByWrongWord(t *testing.T) {
	env := seedWorkspaces(t)
	s, dev := newTestSelector(t, Options{Base: env.Base},
		script(
			keys(tui.KeyDelete, tui.KeyDown, tui.KeyDelete, tui.KeyEnter),
			typeText("no"),
			keys(tui.KeyEnter),
		)...)

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Deleted)
	assert.Empty(t, s.marked)
	assert.Contains(t, dev.Output(), "Delete cancelled.")

	entries, err := os.ReadDir(env.Base)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestRunDeleteCancelledByEscape(t *testing.T) {
	env := seedWorkspaces(t)
	s, dev := newTestSelector(t, Options{Base: env.Base},
		script(
			keys(tui.KeyDelete, tui.KeyEnter),
			typeText("YES"),
			keys(tui.KeyEscape),
		)...)

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Deleted)
	assert.Contains(t, dev.Output(), "Delete cancelled.")

	entries, err := os.ReadDir(env.Base)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestConfirmBackspaceEditsInput(t *testing.T) {
	env := seedWorkspaces(t)
	s, _ := newTestSelector(t, Options{Base: env.Base},
		script(
			keys(tui.KeyDelete, tui.KeyEnter),
			typeText("YEX"),
			keys(tui.KeyBackspace),
			typeText("S"),
			keys(tui.KeyEnter),
		)...)

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Deleted)
}

func TestDeleteRefusesPathOutsideBase(t *testing.T) {
	env := testutil.NewEnv(t)
	outside := testutil.MakeDir(t, filepath.Join(t.TempDir(), "precious"), time.Time{})
	require.NoError(t, os.Symlink(outside, filepath.Join(env.Base, "link")))

	s, dev := newTestSelector(t, Options{Base: env.Base},
		script(keys(tui.KeyDelete, tui.KeyEnter), typeText("YES"), keys(tui.KeyEnter))...)

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Deleted)
	assert.Contains(t, dev.Output(), "Safety check failed")

	_, err = os.Stat(outside)
	assert.NoError(t, err)
}

func TestStatusClearedByNextKey(t *testing.T) {
	env := seedWorkspaces(t)
	s := loaded(t, Options{Base: env.Base})
	s.status = "Deleted 1 items."

	st, err := s.handle(context.Background(), tui.KeyEvent(tui.KeyUp))
	require.NoError(t, err)
	assert.True(t, st.redraw)
	assert.Empty(t, s.status)
}

func TestHistoryModeSelectsWorkspace(t *testing.T) {
	root := t.TempDir()
	older := testutil.MakeDir(t, filepath.Join(root, "older"), testNow.Add(-time.Hour))
	newer := testutil.MakeDir(t, filepath.Join(root, "newer"), testNow.Add(-time.Hour))

	s, _ := newTestSelector(t, Options{Mode: HistoryMode, Base: root, History: []string{older, newer}},
		keys(tui.KeyEnter)...)

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Action{Kind: SelectWorkspace, Path: newer}, res.Action)
}

func TestHistoryModeHasNoCreateRow(t *testing.T) {
	root := t.TempDir()
	only := testutil.MakeDir(t, filepath.Join(root, "only"), testNow)

	s, _ := newTestSelector(t, Options{Mode: HistoryMode, Base: root, History: []string{only}},
		script(typeText("zzz"), keys(tui.KeyEnter, tui.KeyCtrlT, tui.KeyEscape))...)

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Cancelled)
	assert.False(t, s.createAvailable())
}

func TestRunResizeRepaintsFully(t *testing.T) {
	env := seedWorkspaces(t)
	s, dev := newTestSelector(t, Options{Base: env.Base}, tui.ResizeEvent(100, 10))

	_, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 100, s.width)
	assert.Equal(t, 10, s.height)
	assert.Equal(t, 2, strings.Count(dev.Output(), "\x1b[2J"))
}

func TestRunStopsWhenContextDone(t *testing.T) {
	env := seedWorkspaces(t)
	s, _ := newTestSelector(t, Options{Base: env.Base}, typeText("abc")...)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := s.Run(ctx)
	require.NoError(t, err)
	assert.True(t, res.Cancelled)
}

func TestRunScanError(t *testing.T) {
	base := filepath.Join(t.TempDir(), "file")
	testutil.WriteFile(t, base, "x")

	s, _ := newTestSelector(t, Options{Base: base})
	_, err := s.Run(context.Background())
	assert.Error(t, err)
}

func TestRunMissingBaseStillOffersCreate(t *testing.T) {
	base := filepath.Join(t.TempDir(), "absent")
	s, _ := newTestSelector(t, Options{Base: base}, script(typeText("x"), keys(tui.KeyEnter))...)

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Action{Kind: CreateAndEnter, Path: filepath.Join(base, "x-2024-06-01")}, res.Action)
}
