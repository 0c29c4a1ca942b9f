package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

const (
	rcName      = "gofi.rc"
	historyName = ".gofi_history"
)

// Config holds everything the launcher reads from the environment and the rc file.
// It is built once at startup and passed explicitly to the components that need it.
type Config struct {
	DataDir        string `envconfig:"GOFI_DATA_DIR"`
	Terminal       string `envconfig:"GOFI_TERMINAL"`
	NumRows        int    `envconfig:"GOFI_NUM_ROWS" default:"20"`
	ScanPath       bool   `envconfig:"GOFI_SCAN_PATH" default:"false"`
	Watch          bool   `envconfig:"GOFI_WATCH" default:"true"`
	Path           string `envconfig:"PATH"`
	Lang           string `envconfig:"LANG"`
	CurrentDesktop string `envconfig:"XDG_CURRENT_DESKTOP"`
	DataHome       string `envconfig:"XDG_DATA_HOME"`
	DataDirs       string `envconfig:"XDG_DATA_DIRS" default:"/usr/local/share:/usr/share"`
	ConfigHome     string `envconfig:"XDG_CONFIG_HOME"`

	// ExtraAppDirs are read from the rc file, one directory per line.
	ExtraAppDirs []string `ignored:"true"`
	// Debug is set from the command line, not the environment.
	Debug bool `ignored:"true"`
}

// Load reads the environment and the rc file.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if cfg.DataHome == "" {
		cfg.DataHome = expandPath("~/.local/share")
	}
	if cfg.ConfigHome == "" {
		cfg.ConfigHome = expandPath("~/.config")
	}
	if cfg.DataDir == "" {
		cfg.DataDir = filepath.Join(cfg.DataHome, "gofi")
	}
	cfg.DataDir = expandPath(cfg.DataDir)

	dirs, err := readRC(cfg.RCPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", cfg.RCPath(), err)
	}
	cfg.ExtraAppDirs = dirs

	return cfg, nil
}

// ReloadRC re-reads the rc file into ExtraAppDirs.
func (c *Config) ReloadRC() error {
	dirs, err := readRC(c.RCPath())
	if err != nil {
		return err
	}
	c.ExtraAppDirs = dirs
	return nil
}

// RCPath returns the location of the rc file.
func (c *Config) RCPath() string {
	return filepath.Join(c.ConfigHome, "gofi", rcName)
}

// HistoryPath returns the per-user history database location.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.DataDir, historyName)
}

// ApplicationDirs returns the directories searched for .desktop files, highest
// precedence first: XDG_DATA_HOME, each XDG_DATA_DIRS entry, then rc directories.
func (c *Config) ApplicationDirs() []string {
	dirs := []string{filepath.Join(c.DataHome, "applications")}
	for _, d := range strings.Split(c.DataDirs, ":") {
		if d != "" {
			dirs = append(dirs, filepath.Join(expandPath(d), "applications"))
		}
	}
	dirs = append(dirs, c.ExtraAppDirs...)
	return dedupe(dirs)
}

// ExecutableDirs returns the PATH entries to scan, or nil when PATH scanning is off.
func (c *Config) ExecutableDirs() []string {
	if !c.ScanPath {
		return nil
	}
	paths := strings.Split(c.Path, ":")
	filtered := make([]string, 0, len(paths))
	for _, p := range paths {
		if p != "" {
			filtered = append(filtered, p)
		}
	}
	return dedupe(filtered)
}

// TerminalCommand returns the terminal used for Terminal=true applications.
func (c *Config) TerminalCommand() string {
	if c.Terminal != "" {
		return c.Terminal
	}
	if term := os.Getenv("TERMINAL"); term != "" {
		return term
	}
	return "xterm"
}

// Rows returns the number of rows the list shows.
func (c *Config) Rows() int {
	if c.NumRows <= 0 {
		return 20
	}
	return c.NumRows
}

// Desktops returns the colon-separated XDG_CURRENT_DESKTOP as a list.
func (c *Config) Desktops() []string {
	var out []string
	for _, d := range strings.Split(c.CurrentDesktop, ":") {
		if d = strings.TrimSpace(d); d != "" {
			out = append(out, d)
		}
	}
	return out
}

func readRC(rcPath string) ([]string, error) {
	file, err := os.Open(rcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var dirs []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		dirs = append(dirs, expandPath(line))
	}
	return dirs, scanner.Err()
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = filepath.Clean(s)
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return strings.Replace(path, "~", home, 1)
	}
	return path
}
