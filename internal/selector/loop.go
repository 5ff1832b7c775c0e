package selector

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/amulcse/try/internal/tui"
	"github.com/amulcse/try/internal/workspace"
)

// step is the outcome of one handled event.
type step struct {
	redraw    bool
	recompute bool
	full      bool
	done      bool
	result    Result
}

// Run loads the entries, paints the picker and processes events until a
// selection is committed, the user cancels or ctx is done. Only filesystem
// and device errors are returned; cancellation is reported in Result.
func (s *Selector) Run(ctx context.Context) (Result, error) {
	if err := s.load(); err != nil {
		return Result{}, err
	}
	s.rescore()
	s.painter.Invalidate()
	if err := s.paint(); err != nil {
		return Result{}, err
	}

	deleted := 0
	for {
		if err := ctx.Err(); err != nil {
			s.log.WithError(err).Debug("context done")
			s.exited = true
			return Result{Cancelled: true, Deleted: deleted}, nil
		}

		ev, ok, err := s.dev.PollEvent(PollInterval)
		if err != nil {
			return Result{}, fmt.Errorf("read input: %w", err)
		}
		if !ok {
			continue
		}

		st, err := s.handle(ctx, ev)
		if err != nil {
			return Result{}, err
		}
		deleted += st.result.Deleted
		if st.done {
			s.exited = true
			st.result.Deleted = deleted
			s.log.WithFields(logrus.Fields{
				"cancelled": st.result.Cancelled,
				"action":    st.result.Action.Kind,
				"path":      st.result.Action.Path,
			}).Debug("selector exited")
			return st.result, nil
		}

		if st.recompute {
			s.rescore()
		}
		if st.full {
			s.painter.Invalidate()
		}
		if st.redraw || st.recompute || st.full {
			if err := s.paint(); err != nil {
				return Result{}, err
			}
		}
	}
}

// handle applies one event to the state.
func (s *Selector) handle(ctx context.Context, ev tui.Event) (step, error) {
	if ev.Type == tui.EventResize {
		s.width, s.height = ev.Width, ev.Height
		s.clamp()
		s.log.WithFields(logrus.Fields{"width": s.width, "height": s.height}).Debug("resize")
		return step{full: true}, nil
	}

	s.log.WithFields(logrus.Fields{"key": ev.String(), "state": s.State()}).Debug("key")

	var st step
	if s.status != "" {
		s.status = ""
		st.redraw = true
	}

	switch ev.Key {
	case tui.KeyRune:
		if isQueryRune(ev.Rune) {
			s.query = append(s.query, ev.Rune)
			s.cursor = 0
			st.recompute = true
		}

	case tui.KeyBackspace:
		if n := len(s.query); n > 0 {
			s.query = s.query[:n-1]
		}
		s.cursor = 0
		st.recompute = true

	case tui.KeyCtrlW:
		s.query = dropWord(s.query)
		s.cursor = 0
		st.recompute = true

	case tui.KeyCtrlU:
		s.query = s.query[:0]
		s.cursor = 0
		st.recompute = true

	case tui.KeyUp, tui.KeyCtrlP:
		if s.moveCursor(-1) {
			st.redraw = true
		}

	case tui.KeyDown, tui.KeyCtrlN:
		if s.moveCursor(1) {
			st.redraw = true
		}

	case tui.KeyDelete, tui.KeyCtrlD:
		if s.toggleMark() {
			s.log.WithField("marked", len(s.marked)).Debug("toggled delete mark")
			st.redraw = true
		}

	case tui.KeyCtrlT:
		if s.createAvailable() {
			s.cursor = len(s.view)
			a, _ := s.selection()
			return step{done: true, result: Result{Action: a}}, nil
		}

	case tui.KeyEnter:
		if len(s.marked) > 0 {
			deleted, err := s.confirmDelete(ctx)
			if err != nil {
				return step{}, err
			}
			return step{full: true, result: Result{Deleted: deleted}}, nil
		}
		if a, ok := s.selection(); ok {
			return step{done: true, result: Result{Action: a}}, nil
		}

	case tui.KeyEscape, tui.KeyCtrlC:
		if len(s.marked) > 0 {
			s.clearMarks()
			st.redraw = true
			break
		}
		return step{done: true, result: Result{Cancelled: true}}, nil
	}
	return st, nil
}

// confirmDelete runs the modal confirmation for the marked paths. Typing
// exactly ConfirmWord deletes them; anything else cancels. Either way the
// entries are reloaded and the marks cleared.
func (s *Selector) confirmDelete(ctx context.Context) (int, error) {
	s.confirming = true
	defer func() { s.confirming = false }()

	names := make([]string, 0, len(s.marked))
	for _, path := range s.marked {
		names = append(names, s.displayName(path))
	}

	var input []rune
	s.painter.Invalidate()
	paint := func() error {
		f := tui.BuildConfirmFrame(tui.ConfirmView{Width: s.width, Height: s.height, Names: names, Input: string(input)})
		return s.painter.Paint(f, s.width, s.height)
	}
	if err := paint(); err != nil {
		return 0, err
	}

	submitted := false
	for !submitted {
		if ctx.Err() != nil {
			input = nil
			break
		}
		ev, ok, err := s.dev.PollEvent(ConfirmPollInterval)
		if err != nil {
			return 0, fmt.Errorf("read input: %w", err)
		}
		if !ok {
			continue
		}

		if ev.Type == tui.EventResize {
			s.width, s.height = ev.Width, ev.Height
			s.painter.Invalidate()
		} else {
			switch ev.Key {
			case tui.KeyEnter:
				submitted = true
				continue
			case tui.KeyEscape, tui.KeyCtrlC:
				input = nil
				submitted = true
				continue
			case tui.KeyBackspace:
				if n := len(input); n > 0 {
					input = input[:n-1]
				}
			case tui.KeyRune:
				input = append(input, ev.Rune)
			default:
				continue
			}
		}
		if err := paint(); err != nil {
			return 0, err
		}
	}

	deleted := 0
	switch {
	case string(input) != ConfirmWord:
		s.status = "Delete cancelled."
		s.log.WithField("marked", len(s.marked)).Debug("delete cancelled")
	default:
		if bad, ok := s.outsideBase(); !ok {
			s.status = fmt.Sprintf("Safety check failed: %s is not inside %s", bad, s.opts.Base)
			s.log.WithField("path", bad).Warn("refused delete outside base")
			break
		}
		n, err := workspace.Remove(s.marked)
		deleted = n
		if err != nil {
			s.log.WithError(err).WithField("deleted", n).Error("delete failed")
			return deleted, err
		}
		s.status = fmt.Sprintf("Deleted %d items.", n)
		s.log.WithField("deleted", n).Info("deleted workspaces")
	}

	s.clearMarks()
	if err := s.load(); err != nil {
		return deleted, err
	}
	s.rescore()
	s.painter.Invalidate()
	return deleted, nil
}

// outsideBase returns the first marked path that escapes the scan base.
// History entries have no base and always pass.
func (s *Selector) outsideBase() (string, bool) {
	if s.opts.Mode != ScanMode {
		return "", true
	}
	for _, p := range s.marked {
		if !workspace.Contained(s.opts.Base, p) {
			return p, false
		}
	}
	return "", true
}

func (s *Selector) displayName(path string) string {
	for _, e := range s.entries {
		if e.Path == path {
			return e.Name
		}
	}
	return path
}
