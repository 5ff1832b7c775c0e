// Package cli is the try command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/amulcse/try/internal/config"
	"github.com/amulcse/try/internal/history"
	"github.com/amulcse/try/internal/logging"
)

const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

// errCancelled is returned after the picker was dismissed and the
// Cancelled marker has been printed.
var errCancelled = errors.New("cancelled")

type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func usageArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

type globalFlags struct {
	path     string
	noColors bool
	debug    bool
	andKeys  string
}

// CLI holds the process streams and the state shared by all commands for
// one invocation.
type CLI struct {
	Stdin *os.File
	// Stdout receives the shell script and nothing else.
	Stdout io.Writer
	Stderr io.Writer
	// TTY is where the picker draws.
	TTY *os.File
	Now func() time.Time

	flags   globalFlags
	cfg     config.Config
	log     *logrus.Logger
	session *logging.Session
	store   history.Store
}

// New returns a CLI bound to the process streams. The picker draws on
// stderr so stdout stays free for the script.
func New() *CLI {
	return &CLI{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		TTY:    os.Stderr,
		Now:    time.Now,
	}
}

// Run executes args and returns the process exit code.
func (c *CLI) Run(ctx context.Context, args []string) int {
	if c.Now == nil {
		c.Now = time.Now
	}
	c.log = logging.Discard()
	c.store = history.Nop{}

	root := c.rootCommand()
	root.SetArgs(args)
	root.SetOut(c.Stderr)
	root.SetErr(c.Stderr)

	err := root.ExecuteContext(ctx)
	if cerr := c.close(); cerr != nil {
		c.warn("%v", cerr)
	}
	return c.exitCode(err)
}

func (c *CLI) exitCode(err error) int {
	var usage usageError
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errCancelled):
		return exitFail
	case errors.As(err, &usage):
		fmt.Fprintf(c.Stderr, "Error: %v\n", err)
		fmt.Fprintln(c.Stderr, "Run 'try --help' for usage.")
		return exitUsage
	}
	c.log.WithError(err).Error("command failed")
	fmt.Fprintf(c.Stderr, "Error: %v\n", err)
	return exitFail
}

// setup resolves config and opens the debug log and history store. It
// runs before every command.
func (c *CLI) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Resolve(config.Overrides{Path: c.flags.path, NoColors: c.flags.noColors})
	if err != nil {
		return err
	}
	c.cfg = cfg
	for _, w := range cfg.Warnings {
		c.warn("%s", w)
	}

	enabled := logging.Enabled(c.flags.debug)
	dir, err := logging.Dir()
	if err != nil && enabled {
		c.warn("debug log disabled: %v", err)
		enabled = false
	}
	session, err := logging.Open(dir, enabled, c.Now())
	if err != nil {
		c.warn("debug log disabled: %v", err)
		session = &logging.Session{Logger: logging.Discard()}
	}
	c.session = session
	c.log = session.Logger
	c.log.WithFields(logrus.Fields{
		"command": cmd.CommandPath(),
		"path":    cfg.Path,
		"config":  cfg.ConfigFile,
		"history": cfg.HistoryFile,
		"colors":  cfg.Colors,
	}).Debug("config resolved")

	if cfg.HistoryFile != "" {
		store, err := history.Open(cfg.HistoryFile)
		if err != nil {
			c.warn("history disabled: %v", err)
		} else {
			c.store = store
		}
	}
	return nil
}

func (c *CLI) close() error {
	var err error
	if c.store != nil {
		err = c.store.Close()
	}
	if c.session != nil {
		err = errors.Join(err, c.session.Close())
	}
	return err
}

func (c *CLI) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	c.log.Warn(msg)
	fmt.Fprintf(c.Stderr, "Warning: %s\n", msg)
}
