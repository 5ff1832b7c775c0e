// Package shell builds the command lists that the try shell function evals.
package shell

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// ScriptWarning heads every emitted script so a user running the binary
// directly sees why nothing happened.
const ScriptWarning = "# if you can read this, you didn't launch try from an alias. run try --help."

// Quote wraps s in single quotes for POSIX shells.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

// Emit writes the warning line followed by cmds chained with && and
// backslash continuations.
func Emit(w io.Writer, cmds []string) error {
	var b strings.Builder
	b.WriteString(ScriptWarning)
	b.WriteByte('\n')
	for i, cmd := range cmds {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(cmd)
		if i < len(cmds)-1 {
			b.WriteString(" && \\")
		}
		b.WriteByte('\n')
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("emit script: %w", err)
	}
	return nil
}

// ChangeDirectory bumps the workspace mtime and enters it.
func ChangeDirectory(path string) []string {
	return []string{
		"touch " + Quote(path),
		"cd " + Quote(path),
	}
}

// CreateAndEnter creates the workspace first.
func CreateAndEnter(path string) []string {
	return append([]string{"mkdir -p " + Quote(path)}, ChangeDirectory(path)...)
}

// SelectWorkspace makes path the active workspace root for the calling
// shell.
func SelectWorkspace(path string) []string {
	return []string{
		"export TRY_PATH=" + Quote(path),
		"cd " + Quote(path),
	}
}

// Kind is a supported interactive shell.
type Kind int

const (
	Bash Kind = iota
	Zsh
	Fish
)

func (k Kind) String() string {
	switch k {
	case Zsh:
		return "zsh"
	case Fish:
		return "fish"
	}
	return "bash"
}

// ParseKind maps a shell name or path such as /usr/bin/fish to a Kind.
func ParseKind(name string) (Kind, error) {
	base := name
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	base = strings.TrimPrefix(base, "-")
	switch {
	case base == "bash" || base == "sh":
		return Bash, nil
	case base == "zsh":
		return Zsh, nil
	case strings.HasPrefix(base, "fish"):
		return Fish, nil
	}
	return Bash, fmt.Errorf("unsupported shell %q", name)
}

// DetectKind guesses the user's shell from $SHELL, falling back to the
// parent process name.
func DetectKind() Kind {
	name := os.Getenv("SHELL")
	if name == "" {
		out, err := exec.Command("ps", "-p", strconv.Itoa(os.Getppid()), "-o", "comm=").Output()
		if err == nil {
			name = strings.TrimSpace(string(out))
		}
	}
	k, err := ParseKind(name)
	if err != nil {
		return Bash
	}
	return k
}

// InitScript returns the shell function that runs exe and evals its
// stdout on success. A non-empty path is passed along as --path.
func InitScript(kind Kind, exe, path string) string {
	pathArg := ""
	if path != "" {
		pathArg = " --path " + Quote(path)
	}

	if kind == Fish {
		return fmt.Sprintf(`function try
  set -l out (%s exec%s $argv 2>/dev/tty | string collect)
  if test $status -eq 0
    eval $out
  else
    echo $out
  end
end
`, Quote(exe), pathArg)
	}

	return fmt.Sprintf(`try() {
  local out
  out=$(%s exec%s "$@" 2>/dev/tty)
  if [ $? -eq 0 ]; then
    eval "$out"
  else
    echo "$out"
  fi
}
`, Quote(exe), pathArg)
}
