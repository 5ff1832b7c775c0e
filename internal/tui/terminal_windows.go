package tui

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"
)

const (
	escapeTimeout = 50 * time.Millisecond
	sizeInterval  = 250 * time.Millisecond
)

// Terminal is a raw-mode console. Windows has no pollable console handle
// or SIGWINCH, so a reader goroutine feeds input and size changes are
// sampled while waiting.
type Terminal struct {
	screen
	inFd          int
	state         *term.State
	dec           Decoder
	queue         []Event
	input         chan []byte
	readErr       chan error
	width, height int
}

func OpenTerminal(in, out *os.File) (*Terminal, error) {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("open terminal: stdin: %w", ErrNotTerminal)
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("enable raw mode: %w", err)
	}

	t := &Terminal{
		screen:  screen{out: out},
		inFd:    fd,
		state:   state,
		input:   make(chan []byte, 16),
		readErr: make(chan error, 1),
	}
	t.width, t.height = t.Size()
	go t.readLoop(in)

	if err := t.enter(); err != nil {
		return nil, errors.Join(err, t.Close())
	}
	return t, nil
}

func (t *Terminal) Close() error {
	err := t.leave()
	if t.state != nil {
		if rerr := term.Restore(t.inFd, t.state); rerr != nil {
			err = errors.Join(err, fmt.Errorf("restore terminal mode: %w", rerr))
		}
		t.state = nil
	}
	return err
}

func (t *Terminal) readLoop(in io.Reader) {
	for {
		buf := make([]byte, 256)
		n, err := in.Read(buf)
		if n > 0 {
			t.input <- buf[:n]
		}
		if err != nil {
			t.readErr <- err
			return
		}
	}
}

func (t *Terminal) PollEvent(timeout time.Duration) (Event, bool, error) {
	deadline := time.Now().Add(timeout)
	for {
		if len(t.queue) > 0 {
			ev := t.queue[0]
			t.queue = t.queue[1:]
			return ev, true, nil
		}
		if w, h := t.Size(); w != t.width || h != t.height {
			t.width, t.height = w, h
			return ResizeEvent(w, h), true, nil
		}

		wait := min(time.Until(deadline), sizeInterval)
		if t.dec.Pending() {
			wait = escapeTimeout
		}
		if wait < 0 {
			wait = 0
		}

		timer := time.NewTimer(wait)
		select {
		case data := <-t.input:
			timer.Stop()
			t.queue = append(t.queue, t.dec.Feed(data)...)
		case err := <-t.readErr:
			timer.Stop()
			return Event{}, false, fmt.Errorf("read terminal: %w", err)
		case <-timer.C:
			if t.dec.Pending() {
				t.queue = append(t.queue, t.dec.Flush()...)
				continue
			}
			if !time.Now().Before(deadline) {
				return Event{}, false, nil
			}
		}
	}
}
