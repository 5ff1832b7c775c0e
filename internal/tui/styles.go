package tui

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Role names what a piece of text is; Styles decides how it looks.
type Role uint8

const (
	RolePlain Role = iota
	RoleTitle
	RoleMuted
	RolePath
	RoleQuery
	RoleCursor
	RoleArrow
	RoleSelected
	RoleMatch
	RoleDate
	RoleMarked
	RoleDanger
	RoleStatus
	RoleMeta
)

// Styles maps roles to lipgloss styles bound to one renderer. The zero
// value renders plain text.
type Styles struct {
	byRole map[Role]lipgloss.Style
}

// NewStyles builds the palette for output written to w. With colors off
// every role renders as plain text.
func NewStyles(w io.Writer, colors bool) Styles {
	r := lipgloss.NewRenderer(w)
	if !colors {
		r.SetColorProfile(termenv.Ascii)
	}
	return newStyles(r)
}

// PlainStyles renders every role without escape sequences.
func PlainStyles() Styles {
	r := lipgloss.NewRenderer(io.Discard, termenv.WithProfile(termenv.Ascii))
	r.SetColorProfile(termenv.Ascii)
	return newStyles(r)
}

func newStyles(r *lipgloss.Renderer) Styles {
	muted := lipgloss.Color("245")
	highlight := lipgloss.Color("11")
	accent := lipgloss.Color("214")

	return Styles{byRole: map[Role]lipgloss.Style{
		RolePlain:    r.NewStyle(),
		RoleTitle:    r.NewStyle().Bold(true).Foreground(accent),
		RoleMuted:    r.NewStyle().Foreground(muted),
		RolePath:     r.NewStyle().Foreground(lipgloss.Color("6")),
		RoleQuery:    r.NewStyle().Bold(true).Foreground(highlight),
		RoleCursor:   r.NewStyle().Reverse(true),
		RoleArrow:    r.NewStyle().Bold(true).Foreground(highlight),
		RoleSelected: r.NewStyle().Bold(true),
		RoleMatch:    r.NewStyle().Bold(true).Foreground(highlight),
		RoleDate:     r.NewStyle().Foreground(muted),
		RoleMarked:   r.NewStyle().Strikethrough(true).Foreground(lipgloss.Color("9")),
		RoleDanger:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("52")),
		RoleStatus:   r.NewStyle().Bold(true),
		RoleMeta:     r.NewStyle().Faint(true).Foreground(muted),
	}}
}

// Render styles one line.
func (s Styles) Render(line Line) string {
	var out []byte
	for _, seg := range line {
		if seg.Text == "" {
			continue
		}
		st, ok := s.byRole[seg.Role]
		if !ok || seg.Role == RolePlain {
			out = append(out, seg.Text...)
			continue
		}
		out = append(out, st.Render(seg.Text)...)
	}
	return string(out)
}
