package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/amulcse/try/internal/selector"
	"github.com/amulcse/try/internal/tui"
)

const (
	scriptWidth  = 80
	scriptHeight = 24
)

// pick runs the selector on the terminal, or on a scripted device when
// --and-keys is set.
func (c *CLI) pick(ctx context.Context, opts selector.Options) (selector.Result, error) {
	opts.Exclude = c.cfg.Exclude
	opts.Logger = c.log
	opts.Now = c.Now

	if c.flags.andKeys != "" {
		events, err := tui.ParseKeys(c.flags.andKeys)
		if err != nil {
			return selector.Result{}, usageError{fmt.Errorf("--and-keys: %w", err)}
		}
		opts.Styles = tui.PlainStyles()
		dev := tui.NewScriptDevice(scriptWidth, scriptHeight, events...)
		return selector.New(dev, opts).Run(ctx)
	}

	if !tui.IsInteractive(c.Stdin, c.TTY) {
		return selector.Result{}, selector.ErrNotInteractive
	}
	term, err := tui.OpenTerminal(c.Stdin, c.TTY)
	if err != nil {
		return selector.Result{}, err
	}
	opts.Styles = tui.NewStyles(c.TTY, c.cfg.Colors)

	res, err := selector.New(term, opts).Run(ctx)
	if cerr := term.Close(); cerr != nil {
		err = errors.Join(err, cerr)
	}
	return res, err
}
