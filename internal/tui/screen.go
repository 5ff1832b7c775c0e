package tui

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
)

// screen is the output half of a Terminal.
type screen struct {
	out *os.File
}

func (s screen) Write(p []byte) (int, error) { return s.out.Write(p) }

// Size reports the terminal size. TRY_WIDTH and TRY_HEIGHT override it.
func (s screen) Size() (int, int) {
	w, h, err := term.GetSize(int(s.out.Fd()))
	if err != nil || w <= 0 || h <= 0 {
		w, h = defaultWidth, defaultHeight
	}
	if v, err := strconv.Atoi(os.Getenv("TRY_WIDTH")); err == nil && v > 0 {
		w = v
	}
	if v, err := strconv.Atoi(os.Getenv("TRY_HEIGHT")); err == nil && v > 0 {
		h = v
	}
	return w, h
}

func (s screen) enter() error {
	return s.seq(
		termenv.AltScreenSeq,
		termenv.HideCursorSeq,
		fmt.Sprintf(termenv.EraseDisplaySeq, 2),
		fmt.Sprintf(termenv.CursorPositionSeq, 1, 1),
	)
}

func (s screen) leave() error {
	var errs []error
	for _, seq := range []string{
		termenv.ShowCursorSeq,
		fmt.Sprintf(termenv.EraseDisplaySeq, 2),
		fmt.Sprintf(termenv.CursorPositionSeq, 1, 1),
		termenv.ExitAltScreenSeq,
	} {
		errs = append(errs, s.seq(seq))
	}
	return errors.Join(errs...)
}

func (s screen) seq(seqs ...string) error {
	for _, seq := range seqs {
		if _, err := io.WriteString(s.out, termenv.CSI+seq); err != nil {
			return fmt.Errorf("write terminal control: %w", err)
		}
	}
	return nil
}
