package tui

import (
	"bytes"
	"fmt"
	"io"

	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
)

// Painter writes frames to a device, touching only the rows that changed
// since the previous frame.
type Painter struct {
	w      io.Writer
	styles Styles
	prev   []string
	full   bool
}

func NewPainter(w io.Writer, styles Styles) *Painter {
	return &Painter{w: w, styles: styles, full: true}
}

// Invalidate makes the next Paint clear the screen and redraw every row.
func (p *Painter) Invalidate() {
	p.full = true
	p.prev = nil
}

// Paint draws f on a width x height screen. Rows past height are dropped.
func (p *Painter) Paint(f Frame, width, height int) error {
	rows := len(f.Lines)
	if height > 0 && rows > height {
		rows = height
	}

	next := make([]string, rows)
	for i := 0; i < rows; i++ {
		s := p.styles.Render(f.Lines[i])
		if width > 0 {
			s = ansi.Truncate(s, width, "")
		}
		next[i] = s
	}

	var buf bytes.Buffer
	if p.full {
		buf.WriteString(termenv.CSI + fmt.Sprintf(termenv.EraseDisplaySeq, 2))
	}
	for i, line := range next {
		if !p.full && i < len(p.prev) && p.prev[i] == line {
			continue
		}
		moveTo(&buf, i)
		buf.WriteString(line)
		buf.WriteString(termenv.CSI + termenv.EraseLineRightSeq)
	}
	// rows left over from a taller frame
	for i := len(next); !p.full && i < len(p.prev); i++ {
		moveTo(&buf, i)
		buf.WriteString(termenv.CSI + termenv.EraseLineRightSeq)
	}

	p.prev = next
	p.full = false
	if buf.Len() == 0 {
		return nil
	}
	if _, err := p.w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("paint frame: %w", err)
	}
	return nil
}

func moveTo(buf *bytes.Buffer, row int) {
	buf.WriteString(termenv.CSI + fmt.Sprintf(termenv.CursorPositionSeq, row+1, 1))
}
