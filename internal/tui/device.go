package tui

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
)

// ErrNotTerminal is returned when raw mode is requested on a non-tty.
var ErrNotTerminal = errors.New("not a terminal")

// Device is the terminal as seen by the selector loop.
type Device interface {
	// Size returns the current width and height in cells.
	Size() (width, height int)
	// PollEvent waits up to timeout for input. ok is false on timeout.
	PollEvent(timeout time.Duration) (ev Event, ok bool, err error)
	Write(p []byte) (int, error)
}

// IsInteractive reports whether both ends are terminals.
func IsInteractive(in, out *os.File) bool {
	return isTTY(in) && isTTY(out)
}

func isTTY(f *os.File) bool {
	if f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ScriptDevice replays a fixed list of events and records everything
// written to it. Once the script is exhausted it keeps returning Escape so
// a selector always terminates.
type ScriptDevice struct {
	width, height int
	events        []Event
	out           bytes.Buffer
	polls         []time.Duration
}

func NewScriptDevice(width, height int, events ...Event) *ScriptDevice {
	return &ScriptDevice{width: width, height: height, events: events}
}

func (d *ScriptDevice) Size() (int, int) { return d.width, d.height }

func (d *ScriptDevice) PollEvent(timeout time.Duration) (Event, bool, error) {
	d.polls = append(d.polls, timeout)
	if len(d.events) == 0 {
		return KeyEvent(KeyEscape), true, nil
	}
	ev := d.events[0]
	d.events = d.events[1:]
	if ev.Type == EventResize {
		d.width, d.height = ev.Width, ev.Height
	}
	return ev, true, nil
}

func (d *ScriptDevice) Write(p []byte) (int, error) { return d.out.Write(p) }

// Output returns everything written so far.
func (d *ScriptDevice) Output() string { return d.out.String() }

// Polls returns the timeouts passed to PollEvent, in order.
func (d *ScriptDevice) Polls() []time.Duration { return d.polls }

// Remaining returns the number of scripted events not yet delivered.
func (d *ScriptDevice) Remaining() int { return len(d.events) }

var (
	tokenSpec  = regexp.MustCompile(`^[A-Z\-]+$`)
	resizeSpec = regexp.MustCompile(`^RESIZE=(\d+)[xX](\d+)$`)
)

// ParseKeys turns a key script into events. A script containing commas, or
// made only of upper-case letters and dashes, is a token list such as
// "TYPE=foo,DOWN,ENTER"; anything else is raw terminal input.
func ParseKeys(spec string) ([]Event, error) {
	if spec == "" {
		return nil, nil
	}
	if !strings.Contains(spec, ",") && !tokenSpec.MatchString(spec) {
		var d Decoder
		events := d.Feed([]byte(spec))
		return append(events, d.Flush()...), nil
	}

	var events []Event
	for _, part := range strings.Split(spec, ",") {
		tok := strings.TrimSpace(part)
		if tok == "" {
			continue
		}
		if text, ok := cutPrefixFold(tok, "TYPE="); ok {
			for _, r := range text {
				events = append(events, RuneEvent(r))
			}
			continue
		}
		if m := resizeSpec.FindStringSubmatch(strings.ToUpper(tok)); m != nil {
			w, _ := strconv.Atoi(m[1])
			h, _ := strconv.Atoi(m[2])
			events = append(events, ResizeEvent(w, h))
			continue
		}
		ev, err := parseToken(tok)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

func parseToken(tok string) (Event, error) {
	up := strings.ToUpper(tok)
	switch up {
	case "UP":
		return KeyEvent(KeyUp), nil
	case "DOWN":
		return KeyEvent(KeyDown), nil
	case "LEFT":
		return KeyEvent(KeyLeft), nil
	case "RIGHT":
		return KeyEvent(KeyRight), nil
	case "ENTER", "RETURN":
		return KeyEvent(KeyEnter), nil
	case "ESC", "ESCAPE":
		return KeyEvent(KeyEscape), nil
	case "BACKSPACE", "BS":
		return KeyEvent(KeyBackspace), nil
	case "DEL", "DELETE":
		return KeyEvent(KeyDelete), nil
	case "SPACE":
		return RuneEvent(' '), nil
	}

	letter := ""
	switch {
	case strings.HasPrefix(up, "CTRL-"):
		letter = up[len("CTRL-"):]
	case strings.HasPrefix(up, "CTRL"):
		letter = up[len("CTRL"):]
	}
	if len(letter) == 1 && letter[0] >= 'A' && letter[0] <= 'Z' {
		return KeyEvent(KeyCtrlA + Key(letter[0]-'A')), nil
	}

	if r := []rune(tok); len(r) == 1 {
		return RuneEvent(r[0]), nil
	}
	return Event{}, fmt.Errorf("unknown key token %q", tok)
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return s[len(prefix):], true
	}
	return "", false
}
