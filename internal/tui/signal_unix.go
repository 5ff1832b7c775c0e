//go:build !windows

package tui

import (
	"os"
	"os/signal"
	"syscall"
)

// watchResize delivers SIGWINCH on ch.
func watchResize(ch chan os.Signal) {
	signal.Notify(ch, syscall.SIGWINCH)
}

func stopResize(ch chan os.Signal) {
	signal.Stop(ch)
}
