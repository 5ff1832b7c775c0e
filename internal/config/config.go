// Package config resolves where try keeps its workspaces and how it looks.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"
)

// Version info - set via ldflags during build
var (
	Version   = "1.8.0"
	BuildTime = ""
)

const (
	EnvPath    = "TRY_PATH"
	EnvNoColor = "NO_COLOR"

	DefaultPath = "~/src/tries"
	fileName    = "config.yaml"
	historyName = "workspaces"
)

// File is the on-disk config.yaml.
type File struct {
	Path        string   `yaml:"path"`
	Colors      *bool    `yaml:"colors"`
	Exclude     []string `yaml:"exclude"`
	HistoryFile string   `yaml:"history_file"`
}

// Overrides are the command-line values that beat everything else.
type Overrides struct {
	Path     string
	NoColors bool
}

// Config is the resolved configuration.
type Config struct {
	// Path is the absolute scan base.
	Path    string
	Colors  bool
	Exclude []string
	// HistoryFile is empty when no location could be resolved.
	HistoryFile string
	// ConfigFile is the file that was looked at, if any.
	ConfigFile string
	// Warnings are non-fatal problems to surface on stderr.
	Warnings []string
}

// Dir returns $XDG_CONFIG_HOME/try or the platform equivalent.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(base, "try"), nil
}

// LoadFile reads path. A missing or empty file yields the zero File.
func LoadFile(path string) (File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return File{}, nil
		}
		return File{}, fmt.Errorf("read config file: %w", err)
	}
	if strings.TrimSpace(string(b)) == "" {
		return File{}, nil
	}

	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return File{}, fmt.Errorf("parse %s: %w", path, err)
	}
	f.Normalize()
	if err := f.Validate(); err != nil {
		return File{}, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

func (f *File) Normalize() {
	f.Path = strings.TrimSpace(f.Path)
	f.HistoryFile = strings.TrimSpace(f.HistoryFile)
	exclude := f.Exclude[:0]
	for _, p := range f.Exclude {
		if p = strings.TrimSpace(p); p != "" {
			exclude = append(exclude, p)
		}
	}
	f.Exclude = exclude
}

func (f File) Validate() error {
	var issues []string
	for _, p := range f.Exclude {
		if _, err := glob.Compile(p); err != nil {
			issues = append(issues, fmt.Sprintf("exclude pattern %q: %v", p, err))
		}
	}
	if len(issues) == 0 {
		return nil
	}
	return fmt.Errorf("invalid config: %s", strings.Join(issues, "; "))
}

// Resolve merges the config file, the environment and o. The base path
// comes from o.Path, then TRY_PATH, then the file, then DefaultPath.
func Resolve(o Overrides) (Config, error) {
	cfg := Config{Colors: true}

	var f File
	dir, err := Dir()
	if err != nil {
		cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("%v; history is disabled", err))
	} else {
		cfg.ConfigFile = filepath.Join(dir, fileName)
		if f, err = LoadFile(cfg.ConfigFile); err != nil {
			return Config{}, err
		}
	}

	switch {
	case o.Path != "":
		cfg.Path = ExpandPath(o.Path)
	case os.Getenv(EnvPath) != "":
		cfg.Path = ExpandPath(os.Getenv(EnvPath))
	case f.Path != "":
		cfg.Path = ExpandPath(f.Path)
	default:
		cfg.Path = ExpandPath(DefaultPath)
	}

	if f.Colors != nil {
		cfg.Colors = *f.Colors
	}
	if o.NoColors || os.Getenv(EnvNoColor) != "" {
		cfg.Colors = false
	}

	cfg.Exclude = f.Exclude
	switch {
	case f.HistoryFile != "":
		cfg.HistoryFile = ExpandPath(f.HistoryFile)
	case dir != "":
		cfg.HistoryFile = filepath.Join(dir, historyName)
	}
	return cfg, nil
}

// ExpandPath expands ~ and returns absolute path
func ExpandPath(path string) string {
	if path == "" {
		return path
	}
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err == nil {
			if path == "~" {
				path = home
			} else if strings.HasPrefix(path, "~/") {
				path = filepath.Join(home, path[2:])
			}
		}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

// VersionString is what --version prints.
func VersionString() string {
	if BuildTime != "" {
		return fmt.Sprintf("try %s (built %s)", Version, BuildTime)
	}
	return "try " + Version
}
