package tui

import "os"

// watchResize is a no-op on Windows; size changes are detected by polling.
func watchResize(ch chan os.Signal) {}

func stopResize(ch chan os.Signal) {}
