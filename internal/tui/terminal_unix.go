//go:build !windows

package tui

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// escapeTimeout separates a lone Escape from the start of a sequence.
const escapeTimeout = 50 * time.Millisecond

// Terminal is a raw-mode tty. Input is read from in, all drawing goes
// to out.
type Terminal struct {
	screen
	in    *os.File
	inFd  int
	state *term.State
	winch chan os.Signal
	dec   Decoder
	queue []Event
	buf   []byte
}

// OpenTerminal switches in to raw mode and takes over out with the
// alternate screen. Close undoes both.
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
		screen: screen{out: out},
		in:     in,
		inFd:   fd,
		state:  state,
		winch:  make(chan os.Signal, 1),
		buf:    make([]byte, 256),
	}
	watchResize(t.winch)
	if err := t.enter(); err != nil {
		return nil, errors.Join(err, t.Close())
	}
	return t, nil
}

// Close restores the terminal. Every step runs even if an earlier one
// fails.
func (t *Terminal) Close() error {
	stopResize(t.winch)
	err := t.leave()
	if t.state != nil {
		if rerr := term.Restore(t.inFd, t.state); rerr != nil {
			err = errors.Join(err, fmt.Errorf("restore terminal mode: %w", rerr))
		}
		t.state = nil
	}
	return err
}

func (t *Terminal) PollEvent(timeout time.Duration) (Event, bool, error) {
	deadline := time.Now().Add(timeout)
	for {
		if len(t.queue) > 0 {
			ev := t.queue[0]
			t.queue = t.queue[1:]
			return ev, true, nil
		}
		select {
		case <-t.winch:
			w, h := t.Size()
			return ResizeEvent(w, h), true, nil
		default:
		}

		remaining := time.Until(deadline)
		if remaining < 0 {
			remaining = 0
		}
		ready, err := t.readable(remaining)
		if err != nil {
			return Event{}, false, err
		}
		if !ready {
			if t.dec.Pending() {
				t.queue = append(t.queue, t.dec.Flush()...)
				continue
			}
			if time.Now().Before(deadline) {
				// interrupted, most likely by SIGWINCH
				continue
			}
			return Event{}, false, nil
		}

		if err := t.read(); err != nil {
			return Event{}, false, err
		}
		if t.dec.Pending() {
			more, err := t.readable(escapeTimeout)
			if err != nil {
				return Event{}, false, err
			}
			if more {
				if err := t.read(); err != nil {
					return Event{}, false, err
				}
			}
			if t.dec.Pending() && !more {
				t.queue = append(t.queue, t.dec.Flush()...)
			}
		}
	}
}

// readable waits up to timeout for input. An interrupted wait reports
// false with no error.
func (t *Terminal) readable(timeout time.Duration) (bool, error) {
	fds := []unix.PollFd{{Fd: int32(t.inFd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, int(timeout/time.Millisecond))
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return false, nil
		}
		return false, fmt.Errorf("poll terminal: %w", err)
	}
	return n > 0, nil
}

func (t *Terminal) read() error {
	for {
		n, err := unix.Read(t.inFd, t.buf)
		if err != nil {
			if errors.Is(err, unix.EINTR) || errors.Is(err, unix.EAGAIN) {
				continue
			}
			return fmt.Errorf("read terminal: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("read terminal: %w", io.EOF)
		}
		t.queue = append(t.queue, t.dec.Feed(t.buf[:n])...)
		return nil
	}
}
