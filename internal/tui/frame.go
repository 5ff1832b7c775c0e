package tui

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
)

// chrome is the number of frame rows that are not list rows.
const chrome = 8

const (
	glyphArrow  = "→ "
	glyphFolder = "📁 "
	glyphMarked = "🗑️ "
	glyphCreate = "📂 "
	glyphTitle  = "🏠 "
	ruleRune    = "─"
	ellipsis    = "…"
)

var dateSuffix = regexp.MustCompile(`^(.+)-(\d{4}-\d{2}-\d{2})$`)

// Segment is a run of text sharing one role.
type Segment struct {
	Text string
	Role Role
}

// Line is one terminal row.
type Line []Segment

// Plain returns the text of the line without styling.
func (l Line) Plain() string {
	var b strings.Builder
	for _, seg := range l {
		b.WriteString(seg.Text)
	}
	return b.String()
}

// Width returns the display width of the line in cells.
func (l Line) Width() int {
	w := 0
	for _, seg := range l {
		w += runewidth.StringWidth(seg.Text)
	}
	return w
}

// Frame is a full screen of lines, top to bottom.
type Frame struct {
	Lines []Line
}

// Plain returns every line as unstyled text.
func (f Frame) Plain() []string {
	out := make([]string, len(f.Lines))
	for i, l := range f.Lines {
		out[i] = l.Plain()
	}
	return out
}

// Row is one list row as the selector sees it.
type Row struct {
	Name      string
	Positions []int
	Marked    bool
	ModTime   time.Time
	Score     float64

	// Create marks the virtual "create new" row; Name holds the
	// directory name that would be created.
	Create bool
}

// View is everything BuildFrame needs to draw the picker.
type View struct {
	Width, Height int
	Location      string
	Query         string
	Rows          []Row
	Cursor        int
	Scroll        int
	Marked        int
	Status        string
	Now           time.Time
}

// ListRows is the height of the list area for a terminal of the given
// height.
func ListRows(height int) int {
	return max(height-chrome, 3)
}

// BuildFrame lays out the picker screen. It does no I/O.
func BuildFrame(v View) Frame {
	width := max(v.Width, 1)
	rows := ListRows(v.Height)

	lines := make([]Line, 0, max(v.Height, 4+rows+2))
	lines = append(lines,
		Line{{glyphTitle + "Try Selector", RoleTitle}, {" @ ", RoleMuted}, {v.Location, RolePath}},
		rule(width),
		Line{{"Search: ", RoleMuted}, {v.Query, RoleQuery}, {" ", RoleCursor}},
		rule(width),
	)

	end := min(v.Scroll+rows, len(v.Rows))
	for i := v.Scroll; i < end; i++ {
		if i < 0 {
			continue
		}
		lines = append(lines, rowLine(v.Rows[i], i == v.Cursor, width, v.Now))
	}
	for len(lines) < 4+rows {
		lines = append(lines, Line{})
	}
	for len(lines) < v.Height-2 {
		lines = append(lines, Line{})
	}

	footer := []Line{rule(width), footerLine(v)}
	if v.Height >= 2 && len(lines) > v.Height-2 {
		// footer stays pinned to the bottom of small terminals
		lines = lines[:v.Height-2]
	}
	lines = append(lines, footer...)

	for i := range lines {
		lines[i] = truncate(lines[i], width-1)
	}
	return Frame{Lines: lines}
}

func footerLine(v View) Line {
	switch {
	case v.Status != "":
		return Line{{v.Status, RoleStatus}}
	case v.Marked > 0:
		return Line{{fmt.Sprintf("DELETE MODE (%d marked) | Enter: Confirm | Esc: Cancel", v.Marked), RoleDanger}}
	default:
		return Line{{"↑↓: Navigate  Enter: Select  Del/^D: Delete  Esc: Cancel", RoleMuted}}
	}
}

func rule(width int) Line {
	return Line{{strings.Repeat(ruleRune, max(width-1, 0)), RoleMuted}}
}

func rowLine(r Row, selected bool, width int, now time.Time) Line {
	line := Line{}
	if selected {
		line = append(line, Segment{glyphArrow, RoleArrow})
	} else {
		line = append(line, Segment{"  ", RolePlain})
	}

	if r.Create {
		role := RolePlain
		if selected {
			role = RoleSelected
		}
		return append(line, Segment{glyphCreate + "Create new: " + r.Name, role})
	}

	base := RolePlain
	switch {
	case r.Marked:
		line = append(line, Segment{glyphMarked, RolePlain})
		base = RoleMarked
	default:
		line = append(line, Segment{glyphFolder, RolePlain})
		if selected {
			base = RoleSelected
		}
	}
	line = append(line, nameSegments(r.Name, r.Positions, base)...)

	meta := metaText(r, now)
	gap := width - 1 - line.Width() - runewidth.StringWidth(meta)
	if meta != "" && gap >= 2 {
		line = append(line, Segment{strings.Repeat(" ", gap), RolePlain}, Segment{meta, RoleMeta})
	}
	return line
}

func metaText(r Row, now time.Time) string {
	if r.ModTime.IsZero() || now.IsZero() {
		return fmt.Sprintf("%.1f", r.Score)
	}
	age := "just now"
	if now.Sub(r.ModTime) >= time.Second {
		age = humanize.RelTime(r.ModTime, now, "ago", "from now")
	}
	return fmt.Sprintf("%s, %.1f", age, r.Score)
}

// nameSegments splits a workspace name into styled runs: matched runes
// are highlighted and a trailing -YYYY-MM-DD is dimmed.
func nameSegments(name string, positions []int, base Role) Line {
	runes := []rune(name)
	dateFrom := len(runes)
	if m := dateSuffix.FindStringSubmatch(name); m != nil {
		dateFrom = len([]rune(m[1]))
	}

	matched := make(map[int]bool, len(positions))
	for _, p := range positions {
		matched[p] = true
	}

	var line Line
	for i, r := range runes {
		role := base
		switch {
		case matched[i]:
			role = RoleMatch
		case i >= dateFrom && base != RoleMarked:
			role = RoleDate
		}
		if n := len(line); n > 0 && line[n-1].Role == role {
			line[n-1].Text += string(r)
			continue
		}
		line = append(line, Segment{string(r), role})
	}
	return line
}

// truncate cuts a line to limit display cells, ending it with an ellipsis
// when anything was dropped.
func truncate(l Line, limit int) Line {
	if limit <= 0 {
		return Line{}
	}
	if l.Width() <= limit {
		return l
	}

	budget := limit - runewidth.StringWidth(ellipsis)
	out := Line{}
	used := 0
	for _, seg := range l {
		w := runewidth.StringWidth(seg.Text)
		if used+w <= budget {
			out = append(out, seg)
			used += w
			continue
		}
		if rest := budget - used; rest > 0 {
			out = append(out, Segment{runewidth.Truncate(seg.Text, rest, ""), seg.Role})
		}
		break
	}
	return append(out, Segment{ellipsis, RoleMuted})
}

// ConfirmView is the delete confirmation dialog state.
type ConfirmView struct {
	Width, Height int
	Names         []string
	Input         string
}

// BuildConfirmFrame lays out the delete confirmation dialog.
func BuildConfirmFrame(v ConfirmView) Frame {
	width := max(v.Width, 1)
	count := len(v.Names)
	noun := "directories"
	if count == 1 {
		noun = "directory"
	}

	lines := []Line{
		{{glyphMarked, RolePlain}, {fmt.Sprintf("Delete %d %s?", count, noun), RoleTitle}},
		rule(width),
	}

	// header, rule, two blanks, prompt, rule, hint
	room := max(v.Height-7, 1)
	shown := v.Names
	if len(shown) > room {
		shown = shown[:room-1]
	}
	for _, name := range shown {
		lines = append(lines, Line{{glyphMarked + name, RoleDanger}})
	}
	if hidden := count - len(shown); hidden > 0 {
		lines = append(lines, Line{{fmt.Sprintf("… and %d more", hidden), RoleMuted}})
	}

	lines = append(lines,
		Line{},
		Line{},
		Line{{"Type YES to confirm: ", RoleMuted}, {v.Input, RoleQuery}, {" ", RoleCursor}},
	)
	for len(lines) < v.Height-2 {
		lines = append(lines, Line{})
	}
	lines = append(lines, rule(width), Line{{"Enter: Confirm  Esc: Cancel", RoleMuted}})

	for i := range lines {
		lines[i] = truncate(lines[i], width-1)
	}
	return Frame{Lines: lines}
}
