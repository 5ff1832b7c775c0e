package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amulcse/try/internal/config"
	"github.com/amulcse/try/internal/selector"
	"github.com/amulcse/try/internal/shell"
)

const longHelp = `try - ephemeral workspace manager

To use try, add to your shell config:

  # bash/zsh (~/.bashrc or ~/.zshrc)
  eval "$(try init ~/src/tries)"

  # fish (~/.config/fish/config.fish)
  eval (try init ~/src/tries | string collect)

The picker lists the directories under the tries path, newest and best
matching first. Type to filter, Enter to jump in, or pick "Create new" to
make a dated directory from the query. Del or Ctrl-D marks entries for
deletion; Enter then asks you to type YES.

Configuration is read from $XDG_CONFIG_HOME/try/config.yaml (path, colors,
exclude, history_file). The tries path comes from --path, then TRY_PATH,
then the config file, then ~/src/tries.`

const examples = `  try                       Open the picker
  try project               Picker with an initial filter
  try clone https://github.com/user/repo
  try worktree feature-branch
  try set                   Switch between recorded workspace roots`

func (c *CLI) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:               "try [query...]",
		Short:             "Interactive picker for dated scratch workspaces",
		Long:              longHelp,
		Example:           examples,
		Args:              cobra.ArbitraryArgs,
		Version:           config.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
		RunE:              c.runQuery,
	}
	root.SetVersionTemplate(config.VersionString() + "\n")
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&c.flags.path, "path", "", "tries directory (default $TRY_PATH or ~/src/tries)")
	pf.BoolVar(&c.flags.noColors, "no-colors", false, "disable colors")
	pf.BoolVar(&c.flags.debug, "debug", false, "write a debug log under $XDG_STATE_HOME/try/logs")
	pf.StringVar(&c.flags.andKeys, "and-keys", "", "drive the picker with scripted keys, e.g. TYPE=foo,DOWN,ENTER")
	_ = pf.MarkHidden("and-keys")

	exec := &cobra.Command{
		Use:   "exec [query...]",
		Short: "Print the shell script for a selection (used by the shell function)",
		Args:  cobra.ArbitraryArgs,
		RunE:  c.runQuery,
	}
	exec.AddCommand(c.actionCommands()...)

	root.AddCommand(exec, c.initCommand())
	root.AddCommand(c.actionCommands()...)
	return root
}

// actionCommands builds the commands reachable both directly and under
// exec.
func (c *CLI) actionCommands() []*cobra.Command {
	cd := &cobra.Command{
		Use:    "cd [query...]",
		Short:  "Open the picker",
		Hidden: true,
		Args:   cobra.ArbitraryArgs,
		RunE:   c.runQuery,
	}

	set := &cobra.Command{
		Use:   "set",
		Short: "Pick a recorded workspace root and make it current",
		Args:  usageArgs(cobra.NoArgs),
		RunE:  c.runSet,
	}

	clone := &cobra.Command{
		Use:   "clone <git-uri> [name]",
		Short: "Clone a repository into a dated workspace",
		Args:  usageArgs(cobra.RangeArgs(1, 2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) > 1 {
				name = args[1]
			}
			return c.emitClone(args[0], name)
		},
	}

	var repo string
	worktree := &cobra.Command{
		Use:   "worktree <name>",
		Short: "Add a detached git worktree in a dated workspace",
		Args:  usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")
			if strings.TrimSpace(name) == "" {
				return usageError{fmt.Errorf("worktree name is empty")}
			}
			if repo != "" {
				repo = config.ExpandPath(repo)
			}
			path := shell.WorktreePath(c.cfg.Path, name, c.Now())
			c.log.WithField("path", path).Debug("worktree")
			return shell.Emit(c.Stdout, shell.Worktree(path, repo))
		},
	}
	worktree.Flags().StringVar(&repo, "repo", "", "repository to branch from (default: current directory)")

	return []*cobra.Command{cd, set, clone, worktree}
}

func (c *CLI) initCommand() *cobra.Command {
	var shellName string
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Print the shell function that wraps try",
		Args:  usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := shell.DetectKind()
			if shellName != "" {
				k, err := shell.ParseKind(shellName)
				if err != nil {
					return usageError{err}
				}
				kind = k
			}

			path := c.cfg.Path
			if len(args) > 0 {
				path = config.ExpandPath(args[0])
			}
			if err := c.store.Add(path); err != nil {
				c.warn("failed to save workspace: %v", err)
			}

			exe, err := os.Executable()
			if err != nil {
				exe = os.Args[0]
			}
			_, err = fmt.Fprint(c.Stdout, shell.InitScript(kind, config.ExpandPath(exe), path))
			return err
		},
	}
	cmd.Flags().StringVar(&shellName, "shell", "", "bash, zsh or fish (default: detected)")
	return cmd
}

func (c *CLI) runQuery(cmd *cobra.Command, args []string) error {
	fields := strings.Fields(strings.Join(args, " "))
	if len(fields) > 0 && shell.IsGitURI(fields[0]) {
		return c.emitClone(fields[0], strings.Join(fields[1:], " "))
	}

	res, err := c.pick(cmd.Context(), selector.Options{
		Mode:  selector.ScanMode,
		Base:  c.cfg.Path,
		Query: strings.Join(fields, " "),
	})
	if err != nil {
		return err
	}
	return c.finish(res)
}

func (c *CLI) runSet(cmd *cobra.Command, _ []string) error {
	paths, err := c.store.Entries()
	if err != nil {
		return err
	}
	res, err := c.pick(cmd.Context(), selector.Options{
		Mode:    selector.HistoryMode,
		Base:    c.cfg.Path,
		History: paths,
	})
	if err != nil {
		return err
	}
	return c.finish(res)
}

func (c *CLI) emitClone(uri, name string) error {
	cmds, err := shell.Clone(c.cfg.Path, uri, name, c.Now())
	if err != nil {
		return err
	}
	c.log.WithField("uri", uri).Debug("clone")
	return shell.Emit(c.Stdout, cmds)
}

// finish turns the picker result into the script on stdout.
func (c *CLI) finish(res selector.Result) error {
	if res.Cancelled {
		fmt.Fprintln(c.Stdout, "Cancelled.")
		return errCancelled
	}

	p := res.Action.Path
	var cmds []string
	switch res.Action.Kind {
	case selector.ChangeDirectory:
		cmds = shell.ChangeDirectory(p)
	case selector.CreateAndEnter:
		cmds = shell.CreateAndEnter(p)
	case selector.SelectWorkspace:
		if err := c.store.Add(p); err != nil {
			c.warn("failed to save workspace: %v", err)
		}
		cmds = shell.SelectWorkspace(p)
	default:
		return fmt.Errorf("unexpected action %v", res.Action.Kind)
	}
	return shell.Emit(c.Stdout, cmds)
}
