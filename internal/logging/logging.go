// Package logging sets up the optional debug log. The picker owns stderr
// while it runs, so log output only ever goes to a file.
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// EnvDebug turns on debug logging without the --debug flag.
const EnvDebug = "TRY_DEBUG"

// Session is one debug log file.
type Session struct {
	Logger *logrus.Logger
	Path   string
	file   *os.File
}

// Discard returns a logger that drops everything.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return l
}

// Enabled reports whether debug logging was requested by flag or env.
func Enabled(flag bool) bool {
	if flag {
		return true
	}
	v := strings.TrimSpace(os.Getenv(EnvDebug))
	if v == "" {
		return false
	}
	on, err := strconv.ParseBool(v)
	return err != nil || on
}

// Dir returns the log directory under the XDG state home.
func Dir() (string, error) {
	if state := os.Getenv("XDG_STATE_HOME"); state != "" {
		return filepath.Join(state, "try", "logs"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve log dir: %w", err)
	}
	return filepath.Join(home, ".local", "state", "try", "logs"), nil
}

// Open starts a session writing to dir/<utc-timestamp>-<pid>.log. When
// enabled is false the session logs nowhere and no file is created.
func Open(dir string, enabled bool, now time.Time) (*Session, error) {
	if !enabled {
		return &Session{Logger: Discard()}, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create debug log dir: %w", err)
	}

	name := fmt.Sprintf("%s-%d.log", now.UTC().Format("20060102-150405"), os.Getpid())
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open debug log file: %w", err)
	}

	l := logrus.New()
	l.SetOutput(f)
	l.SetLevel(logrus.DebugLevel)
	l.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339Nano,
	})
	l.WithField("pid", os.Getpid()).Debug("debug started")
	return &Session{Logger: l, Path: path, file: f}, nil
}

// Close flushes and closes the log file, if any.
func (s *Session) Close() error {
	if s == nil || s.file == nil {
		return nil
	}
	s.Logger.Debug("debug ended")
	s.Logger.SetOutput(io.Discard)
	err := s.file.Close()
	s.file = nil
	if err != nil && !errors.Is(err, os.ErrClosed) {
		return fmt.Errorf("close debug log: %w", err)
	}
	return nil
}
