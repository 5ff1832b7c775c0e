// Package selector is the interactive workspace picker: it owns the query,
// the ranked view over the loaded entries, the cursor and the delete marks,
// and turns key events into a committed Action.
package selector

import (
	"errors"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/sirupsen/logrus"

	"github.com/amulcse/try/internal/fuzzy"
	"github.com/amulcse/try/internal/logging"
	"github.com/amulcse/try/internal/tui"
	"github.com/amulcse/try/internal/workspace"
)

const (
	// PollInterval bounds each wait in the main loop.
	PollInterval = time.Second
	// ConfirmPollInterval bounds each wait in the delete confirmation.
	ConfirmPollInterval = 100 * time.Millisecond

	// ConfirmWord must be typed exactly to authorize a delete.
	ConfirmWord = "YES"
	dateLayout  = "2006-01-02"
)

// ErrNotInteractive is returned when the picker has no terminal to run on.
var ErrNotInteractive = errors.New("try requires an interactive terminal")

// Mode selects where entries come from.
type Mode int

const (
	// ScanMode lists the subdirectories of Options.Base.
	ScanMode Mode = iota
	// HistoryMode lists Options.History, most recent first.
	HistoryMode
)

func (m Mode) String() string {
	if m == HistoryMode {
		return "history"
	}
	return "scan"
}

// State is the picker's position in its state machine.
type State int

const (
	Browsing State = iota
	DeletePending
	ConfirmingDelete
	Exited
)

func (s State) String() string {
	switch s {
	case Browsing:
		return "browsing"
	case DeletePending:
		return "delete-pending"
	case ConfirmingDelete:
		return "confirming-delete"
	case Exited:
		return "exited"
	}
	return "unknown"
}

// ActionKind is what the shell should do with Action.Path.
type ActionKind int

const (
	ChangeDirectory ActionKind = iota + 1
	CreateAndEnter
	SelectWorkspace
)

func (k ActionKind) String() string {
	switch k {
	case ChangeDirectory:
		return "change-directory"
	case CreateAndEnter:
		return "create-and-enter"
	case SelectWorkspace:
		return "select-workspace"
	}
	return "none"
}

// Action is a committed selection.
type Action struct {
	Kind ActionKind
	Path string
}

// Result is how the picker ended. Action is meaningful only when
// Cancelled is false.
type Result struct {
	Action    Action
	Cancelled bool
	// Deleted counts directories removed during the session.
	Deleted int
}

// Options configures a Selector.
type Options struct {
	Mode Mode
	// Base is the scan directory; it is also shown in the header.
	Base    string
	History []string
	// Query seeds the search field; spaces become hyphens.
	Query   string
	Exclude []string

	Styles tui.Styles
	Logger logrus.FieldLogger
	Now    func() time.Time
}

// Selector is a single picker session. It is not safe for concurrent use.
type Selector struct {
	opts    Options
	dev     tui.Device
	painter *tui.Painter
	log     logrus.FieldLogger
	now     func() time.Time

	entries []workspace.Entry
	items   []fuzzy.Item
	view    []fuzzy.Match

	query  []rune
	cursor int
	scroll int
	marked []string
	status string

	confirming bool
	exited     bool

	width, height int
}

// New prepares a picker drawing on dev. Entries are loaded by Run.
func New(dev tui.Device, opts Options) *Selector {
	s := &Selector{
		opts:    opts,
		dev:     dev,
		painter: tui.NewPainter(dev, opts.Styles),
		log:     opts.Logger,
		now:     opts.Now,
		query:   []rune(strings.ReplaceAll(opts.Query, " ", "-")),
	}
	if s.log == nil {
		s.log = logging.Discard()
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.width, s.height = dev.Size()
	return s
}

// State reports where the picker is in its state machine.
func (s *Selector) State() State {
	switch {
	case s.exited:
		return Exited
	case s.confirming:
		return ConfirmingDelete
	case len(s.marked) > 0:
		return DeletePending
	}
	return Browsing
}

// Query returns the current search text.
func (s *Selector) Query() string { return string(s.query) }

func (s *Selector) load() error {
	var entries []workspace.Entry
	switch s.opts.Mode {
	case HistoryMode:
		entries = workspace.FromHistory(s.opts.History, s.now())
	default:
		var err error
		entries, err = workspace.Scan(s.opts.Base, workspace.ScanOptions{Exclude: s.opts.Exclude})
		if err != nil {
			return err
		}
	}
	s.entries = entries
	s.items = workspace.Items(entries)
	s.log.WithFields(logrus.Fields{"mode": s.opts.Mode, "entries": len(entries)}).Debug("entries loaded")
	return nil
}

// rescore ranks every entry against the query and re-clamps the cursor.
func (s *Selector) rescore() {
	s.view = fuzzy.Rank(s.items, string(s.query), s.now())
	s.clamp()
}

func (s *Selector) createAvailable() bool {
	return s.opts.Mode == ScanMode && len(s.query) > 0
}

// visible is the number of selectable rows, including the create row.
func (s *Selector) visible() int {
	n := len(s.view)
	if s.createAvailable() {
		n++
	}
	return n
}

func (s *Selector) onCreateRow() bool {
	return s.createAvailable() && s.cursor == len(s.view)
}

func (s *Selector) listRows() int { return tui.ListRows(s.height) }

// clamp restores 0 <= cursor < visible and keeps the cursor inside the
// scroll window.
func (s *Selector) clamp() {
	n := s.visible()
	switch {
	case n == 0:
		s.cursor = 0
	case s.cursor >= n:
		s.cursor = n - 1
	case s.cursor < 0:
		s.cursor = 0
	}

	rows := s.listRows()
	if s.cursor < s.scroll {
		s.scroll = s.cursor
	} else if s.cursor >= s.scroll+rows {
		s.scroll = s.cursor - rows + 1
	}
	if limit := max(n-rows, 0); s.scroll > limit {
		s.scroll = limit
	}
	if s.scroll < 0 {
		s.scroll = 0
	}
}

func (s *Selector) moveCursor(delta int) bool {
	next := s.cursor + delta
	if next < 0 || next >= s.visible() {
		return false
	}
	s.cursor = next
	s.clamp()
	return true
}

// toggleMark flips the delete mark on the current real row.
func (s *Selector) toggleMark() bool {
	if s.cursor >= len(s.view) {
		return false
	}
	path := s.entries[s.view[s.cursor].Index].Path
	for i, p := range s.marked {
		if p == path {
			s.marked = append(s.marked[:i], s.marked[i+1:]...)
			if len(s.marked) == 0 {
				s.marked = nil
			}
			return true
		}
	}
	s.marked = append(s.marked, path)
	return true
}

func (s *Selector) isMarked(path string) bool {
	for _, p := range s.marked {
		if p == path {
			return true
		}
	}
	return false
}

func (s *Selector) clearMarks() { s.marked = nil }

// newName is the directory created from the current query.
func (s *Selector) newName() string {
	return strings.ReplaceAll(string(s.query), " ", "-") + "-" + s.now().Format(dateLayout)
}

// selection commits the row under the cursor. ok is false when there is
// nothing to select.
func (s *Selector) selection() (Action, bool) {
	if s.onCreateRow() {
		return Action{Kind: CreateAndEnter, Path: filepath.Join(s.opts.Base, s.newName())}, true
	}
	if s.cursor >= len(s.view) {
		return Action{}, false
	}
	path := s.entries[s.view[s.cursor].Index].Path
	if s.opts.Mode == HistoryMode {
		return Action{Kind: SelectWorkspace, Path: path}, true
	}
	return Action{Kind: ChangeDirectory, Path: path}, true
}

// isQueryRune is the set of characters accepted into the search field.
func isQueryRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '.' || r == ' '
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// dropWord removes trailing separators and then the word before them.
func dropWord(q []rune) []rune {
	i := len(q)
	for i > 0 && !isWordRune(q[i-1]) {
		i--
	}
	for i > 0 && isWordRune(q[i-1]) {
		i--
	}
	return q[:i]
}

func (s *Selector) frameView() tui.View {
	rows := make([]tui.Row, 0, s.visible())
	for _, m := range s.view {
		e := s.entries[m.Index]
		rows = append(rows, tui.Row{
			Name:      e.Name,
			Positions: m.Positions,
			Marked:    s.isMarked(e.Path),
			ModTime:   e.ModTime,
			Score:     m.Score,
		})
	}
	if s.createAvailable() {
		rows = append(rows, tui.Row{Name: s.newName(), Create: true})
	}
	return tui.View{
		Width:    s.width,
		Height:   s.height,
		Location: s.opts.Base,
		Query:    string(s.query),
		Rows:     rows,
		Cursor:   s.cursor,
		Scroll:   s.scroll,
		Marked:   len(s.marked),
		Status:   s.status,
		Now:      s.now(),
	}
}

func (s *Selector) paint() error {
	return s.painter.Paint(tui.BuildFrame(s.frameView()), s.width, s.height)
}
