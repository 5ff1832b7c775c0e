package shell

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Remote is the interesting part of a git URI.
type Remote struct {
	Host string
	User string
	Repo string
}

var remotePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^https?://([^/]+)/([^/]+)/([^/]+)`),
	regexp.MustCompile(`^ssh://(?:[^@/]+@)?([^/:]+)(?::\d+)?/([^/]+)/([^/]+)`),
	regexp.MustCompile(`^[^@/]+@([^:/]+):([^/]+)/([^/]+)`),
}

// ParseGitURI understands https, ssh:// and scp-style remotes.
func ParseGitURI(uri string) (Remote, bool) {
	uri = strings.TrimSuffix(strings.TrimSuffix(strings.TrimSpace(uri), "/"), ".git")
	if uri == "" {
		return Remote{}, false
	}
	for _, re := range remotePatterns {
		if m := re.FindStringSubmatch(uri); m != nil {
			return Remote{Host: m[1], User: m[2], Repo: m[3]}, true
		}
	}
	return Remote{}, false
}

// IsGitURI reports whether arg looks like something git can clone.
func IsGitURI(arg string) bool {
	if arg == "" {
		return false
	}
	return strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") ||
		strings.HasPrefix(arg, "ssh://") || strings.HasPrefix(arg, "git@") ||
		strings.Contains(arg, "github.com") || strings.Contains(arg, "gitlab.com") ||
		strings.HasSuffix(arg, ".git")
}

// Hyphenate turns spaces into hyphens the way workspace names are built.
func Hyphenate(name string) string {
	return strings.Join(strings.Fields(name), "-")
}

var trailingNumber = regexp.MustCompile(`^(.*?)(\d+)$`)

// UniqueName returns "<stem>-<date>" under base, versioning the stem when
// that directory already exists: a trailing number is incremented,
// otherwise -2, -3, ... is appended.
func UniqueName(base, stem string, now time.Time) string {
	date := now.Format(dateLayout)
	name := func(s string) string { return s + "-" + date }
	free := func(s string) bool {
		_, err := os.Lstat(filepath.Join(base, name(s)))
		return errors.Is(err, fs.ErrNotExist)
	}

	if free(stem) {
		return name(stem)
	}
	if m := trailingNumber.FindStringSubmatch(stem); m != nil {
		n, err := strconv.Atoi(m[2])
		if err == nil {
			for i := n + 1; ; i++ {
				if candidate := m[1] + strconv.Itoa(i); free(candidate) {
					return name(candidate)
				}
			}
		}
	}
	for i := 2; ; i++ {
		if candidate := fmt.Sprintf("%s-%d", stem, i); free(candidate) {
			return name(candidate)
		}
	}
}

// CloneName is custom when given, else a unique "<repo>-<date>".
func CloneName(base, uri, custom string, now time.Time) (string, error) {
	if custom = strings.TrimSpace(custom); custom != "" {
		return Hyphenate(custom), nil
	}
	r, ok := ParseGitURI(uri)
	if !ok {
		return "", fmt.Errorf("unable to parse git URI %q", uri)
	}
	return UniqueName(base, r.Repo, now), nil
}

// Clone returns the script that clones uri into a new workspace below base.
func Clone(base, uri, custom string, now time.Time) ([]string, error) {
	name, err := CloneName(base, uri, custom, now)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(base, name)
	cmds := []string{
		"mkdir -p " + Quote(path),
		"echo " + Quote("Using git clone to create this trial from "+uri+"."),
		"git clone " + Quote(uri) + " " + Quote(path),
	}
	return append(cmds, ChangeDirectory(path)...), nil
}

// WorktreePath is the directory a worktree named name lands in.
func WorktreePath(base, name string, now time.Time) string {
	return filepath.Join(base, UniqueName(base, Hyphenate(name), now))
}

// Worktree returns the script that adds a detached worktree of repo (the
// current directory when empty) at path. Outside a git repository the
// directory is simply created.
func Worktree(path, repo string) []string {
	git := "git"
	src := "the current repository"
	if repo != "" {
		git = "git -C " + Quote(repo)
		src = repo
	}
	add := fmt.Sprintf(
		`/usr/bin/env sh -c 'if %[1]s rev-parse --is-inside-work-tree >/dev/null 2>&1; then repo=$(%[1]s rev-parse --show-toplevel); git -C "$repo" worktree add --detach %[2]s >/dev/null 2>&1 || true; fi; exit 0'`,
		strings.ReplaceAll(git, "'", `'"'"'`), strings.ReplaceAll(Quote(path), "'", `'"'"'`),
	)
	cmds := []string{
		"mkdir -p " + Quote(path),
		"echo " + Quote("Using git worktree to create this trial from "+src+"."),
		add,
	}
	return append(cmds, ChangeDirectory(path)...)
}
