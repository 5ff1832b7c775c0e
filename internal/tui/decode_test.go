package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecoderKeys(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []Event
	}{
		{"printable", "ab-", []Event{RuneEvent('a'), RuneEvent('b'), RuneEvent('-')}},
		{"enter cr", "\r", []Event{KeyEvent(KeyEnter)}},
		{"enter lf", "\n", []Event{KeyEvent(KeyEnter)}},
		{"backspace del", "\x7f", []Event{KeyEvent(KeyBackspace)}},
		{"backspace ctrl-h", "\x08", []Event{KeyEvent(KeyBackspace)}},
		{"ctrl-c", "\x03", []Event{KeyEvent(KeyCtrlC)}},
		{"ctrl-n ctrl-p", "\x0e\x10", []Event{KeyEvent(KeyCtrlN), KeyEvent(KeyCtrlP)}},
		{"arrows", "\x1b[A\x1b[B", []Event{KeyEvent(KeyUp), KeyEvent(KeyDown)}},
		{"ss3 arrows", "\x1bOA\x1bOB", []Event{KeyEvent(KeyUp), KeyEvent(KeyDown)}},
		{"modified arrow", "\x1b[1;5A", []Event{KeyEvent(KeyUp)}},
		{"delete", "\x1b[3~", []Event{KeyEvent(KeyDelete)}},
		{"home end", "\x1b[H\x1b[4~", []Event{KeyEvent(KeyHome), KeyEvent(KeyEnd)}},
		{"unknown csi swallowed", "\x1b[99~x", []Event{RuneEvent('x')}},
		{"double escape", "\x1b\x1b[A", []Event{KeyEvent(KeyEscape), KeyEvent(KeyUp)}},
		{"utf8", "é", []Event{RuneEvent('é')}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Decoder
			got := d.Feed([]byte(tt.in))
			assert.Equal(t, tt.want, got)
			assert.False(t, d.Pending())
		})
	}
}

func TestDecoderHoldsIncompleteInput(t *testing.T) {
	var d Decoder

	assert.Empty(t, d.Feed([]byte("\x1b")))
	assert.True(t, d.Pending())
	assert.Empty(t, d.Feed([]byte("[")))
	assert.Equal(t, []Event{KeyEvent(KeyDown)}, d.Feed([]byte("B")))
	assert.False(t, d.Pending())

	utf := []byte("é")
	assert.Empty(t, d.Feed(utf[:1]))
	assert.Equal(t, []Event{RuneEvent('é')}, d.Feed(utf[1:]))
}

func TestDecoderFlushLoneEscape(t *testing.T) {
	var d Decoder
	assert.Empty(t, d.Feed([]byte("\x1b")))
	assert.Equal(t, []Event{KeyEvent(KeyEscape)}, d.Flush())
	assert.False(t, d.Pending())
	assert.Nil(t, d.Flush())
}
