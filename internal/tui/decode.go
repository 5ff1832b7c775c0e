package tui

import "unicode/utf8"

// maxCSI bounds how far a CSI sequence is scanned for its terminator.
const maxCSI = 16

// Decoder turns raw terminal bytes into key events. Incomplete escape
// sequences and partial UTF-8 are kept until the next Feed.
type Decoder struct {
	buf []byte
}

// Feed appends data and returns every event that can be decoded so far.
func (d *Decoder) Feed(data []byte) []Event {
	d.buf = append(d.buf, data...)
	events, consumed := decode(d.buf)
	d.buf = append(d.buf[:0], d.buf[consumed:]...)
	return events
}

// Pending reports whether bytes are held back waiting for more input.
func (d *Decoder) Pending() bool { return len(d.buf) > 0 }

// Flush resolves held bytes once no more input is coming: a lone ESC is
// the Escape key, anything else is dropped.
func (d *Decoder) Flush() []Event {
	if len(d.buf) == 0 {
		return nil
	}
	var events []Event
	if d.buf[0] == 0x1b {
		events = append(events, KeyEvent(KeyEscape))
	}
	d.buf = d.buf[:0]
	return events
}

func decode(data []byte) ([]Event, int) {
	var events []Event
	i := 0
	n := len(data)
	for i < n {
		b := data[i]

		switch {
		case b >= 0x20 && b < 0x7f:
			events = append(events, RuneEvent(rune(b)))
			i++

		case b == 0x1b:
			if i+1 >= n {
				return events, i
			}
			consumed, ev := decodeEscape(data[i:])
			if consumed == 0 {
				return events, i
			}
			if ev.Key != KeyNone {
				events = append(events, ev)
			}
			i += consumed

		case b == 0x7f:
			events = append(events, KeyEvent(KeyBackspace))
			i++

		case b < 0x20:
			if ev := controlKey(b); ev.Key != KeyNone {
				events = append(events, ev)
			}
			i++

		default:
			if !utf8.FullRune(data[i:]) {
				return events, i
			}
			r, size := utf8.DecodeRune(data[i:])
			if r != utf8.RuneError {
				events = append(events, RuneEvent(r))
			}
			i += size
		}
	}
	return events, i
}

// decodeEscape parses a sequence starting with ESC; 0 means incomplete.
func decodeEscape(data []byte) (int, Event) {
	switch data[1] {
	case 0x1b:
		// ESC ESC: the first one stands alone
		return 1, KeyEvent(KeyEscape)
	case '[':
		return decodeCSI(data)
	case 'O':
		if len(data) < 3 {
			return 0, Event{}
		}
		return 3, KeyEvent(finalKey(data[2]))
	}
	// Alt+key is not bound to anything
	return 2, Event{}
}

func decodeCSI(data []byte) (int, Event) {
	limit := len(data)
	if limit > maxCSI {
		limit = maxCSI
	}
	for end := 2; end < limit; end++ {
		b := data[end]
		switch {
		case (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z'):
			return end + 1, KeyEvent(finalKey(b))
		case b == '~':
			return end + 1, KeyEvent(tildeKey(data[2:end]))
		case b < 0x20 || b > 0x7e:
			// garbage inside the sequence: drop what we have
			return end, Event{}
		}
	}
	if len(data) >= maxCSI {
		return maxCSI, Event{}
	}
	return 0, Event{}
}

// finalKey maps the final byte of CSI/SS3 cursor sequences, ignoring any
// modifier parameters.
func finalKey(b byte) Key {
	switch b {
	case 'A':
		return KeyUp
	case 'B':
		return KeyDown
	case 'C':
		return KeyRight
	case 'D':
		return KeyLeft
	case 'H':
		return KeyHome
	case 'F':
		return KeyEnd
	}
	return KeyNone
}

func tildeKey(params []byte) Key {
	num := 0
	for _, b := range params {
		if b == ';' {
			break
		}
		if b < '0' || b > '9' {
			return KeyNone
		}
		num = num*10 + int(b-'0')
	}
	switch num {
	case 1, 7:
		return KeyHome
	case 4, 8:
		return KeyEnd
	case 3:
		return KeyDelete
	case 5:
		return KeyPageUp
	case 6:
		return KeyPageDown
	}
	return KeyNone
}

func controlKey(b byte) Event {
	switch b {
	case 0x08:
		return KeyEvent(KeyBackspace)
	case 0x09:
		return KeyEvent(KeyTab)
	case 0x0a, 0x0d:
		return KeyEvent(KeyEnter)
	}
	if b >= 0x01 && b <= 0x1a {
		return KeyEvent(KeyCtrlA + Key(b-0x01))
	}
	return KeyEvent(KeyNone)
}
