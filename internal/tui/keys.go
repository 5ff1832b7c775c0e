package tui

import "fmt"

// Key identifies a decoded key press.
type Key uint16

const (
	KeyNone Key = iota
	KeyRune     // printable character, see Event.Rune

	KeyEscape
	KeyEnter
	KeyTab
	KeyBackspace
	KeyDelete

	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown

	// Ctrl+letter, contiguous so KeyCtrlA+n is Ctrl+(A+n)
	KeyCtrlA
	KeyCtrlB
	KeyCtrlC
	KeyCtrlD
	KeyCtrlE
	KeyCtrlF
	KeyCtrlG
	KeyCtrlH
	KeyCtrlI
	KeyCtrlJ
	KeyCtrlK
	KeyCtrlL
	KeyCtrlM
	KeyCtrlN
	KeyCtrlO
	KeyCtrlP
	KeyCtrlQ
	KeyCtrlR
	KeyCtrlS
	KeyCtrlT
	KeyCtrlU
	KeyCtrlV
	KeyCtrlW
	KeyCtrlX
	KeyCtrlY
	KeyCtrlZ
)

// EventType distinguishes key presses from terminal resizes.
type EventType uint8

const (
	EventKey EventType = iota
	EventResize
)

// Event is one input event delivered by a Device.
type Event struct {
	Type EventType
	Key  Key
	Rune rune

	// set for EventResize
	Width  int
	Height int
}

// KeyEvent is shorthand for a non-rune key press.
func KeyEvent(k Key) Event { return Event{Type: EventKey, Key: k} }

// RuneEvent is shorthand for a printable character.
func RuneEvent(r rune) Event { return Event{Type: EventKey, Key: KeyRune, Rune: r} }

// ResizeEvent reports a new terminal size.
func ResizeEvent(width, height int) Event {
	return Event{Type: EventResize, Width: width, Height: height}
}

var keyNames = map[Key]string{
	KeyNone:      "none",
	KeyRune:      "rune",
	KeyEscape:    "esc",
	KeyEnter:     "enter",
	KeyTab:       "tab",
	KeyBackspace: "backspace",
	KeyDelete:    "delete",
	KeyUp:        "up",
	KeyDown:      "down",
	KeyLeft:      "left",
	KeyRight:     "right",
	KeyHome:      "home",
	KeyEnd:       "end",
	KeyPageUp:    "pgup",
	KeyPageDown:  "pgdn",
}

func (k Key) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	if k >= KeyCtrlA && k <= KeyCtrlZ {
		return fmt.Sprintf("ctrl-%c", 'a'+rune(k-KeyCtrlA))
	}
	return fmt.Sprintf("key(%d)", uint16(k))
}

func (e Event) String() string {
	switch {
	case e.Type == EventResize:
		return fmt.Sprintf("resize(%dx%d)", e.Width, e.Height)
	case e.Key == KeyRune:
		return fmt.Sprintf("rune(%q)", e.Rune)
	default:
		return e.Key.String()
	}
}
