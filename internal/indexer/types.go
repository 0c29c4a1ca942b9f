package indexer

import (
	"path/filepath"
	"strings"

	"github.com/google/shlex"
)

// Show-in ordinals reported by enumeration sources.
const (
	ShowInHidden  = 0 // hidden, or excluded from the current desktop
	ShowInCurrent = 1 // shown in the current desktop
)

// Application is one launchable application as reported by an enumeration
// source. Entries keep a pointer to it as the handle passed to the launcher.
type Application struct {
	ID          string   // Desktop file ID, or "exe:" + path for PATH executables
	Name        string   // Name key
	DisplayName string   // Name shown to the user
	Icon        string   // Icon name or path, may be empty
	Keywords    []string // Keywords key
	Exec        string   // Command line, field codes not expanded
	Terminal    bool     // Whether to run in terminal
	ShowIn      int      // ShowInHidden or ShowInCurrent
	NoDisplay   bool     // NoDisplay key
	Path        string   // Source .desktop file or executable
}

// Entry is an Application merged with its usage history. Entries are built by
// NewEntry and shared read-only afterwards: SearchText is fixed at construction,
// so writing to SearchTokens does not change how the entry scores.
type Entry struct {
	ID           string
	Name         string
	DisplayName  string
	Icon         string
	SearchTokens []string
	Popularity   uint64
	LastUsed     int64
	Visibility   int
	App          *Application

	searchText string
}

// NewEntry derives an Entry from app and its history.
func NewEntry(app *Application, useCount uint64, lastUsed int64) *Entry {
	if app == nil {
		app = &Application{}
	}

	tokens := searchTokens(app)
	return &Entry{
		ID:           app.ID,
		Name:         app.Name,
		DisplayName:  app.DisplayName,
		Icon:         app.Icon,
		SearchTokens: tokens,
		Popularity:   useCount,
		LastUsed:     lastUsed,
		Visibility:   visibility(app),
		App:          app,
		searchText:   strings.Join(tokens, " "),
	}
}

// SearchText returns the search tokens joined by single spaces.
func (e *Entry) SearchText() string {
	return e.searchText
}

// Displayable reports whether the entry may ever be shown.
func (e *Entry) Displayable() bool {
	return e.Visibility > 1
}

func (e *Entry) String() string {
	return e.Name + " (" + e.ID + ")"
}

// searchTokens lower-cases and deduplicates the display name, name, keywords and
// executable basename, in that order.
func searchTokens(app *Application) []string {
	candidates := make([]string, 0, len(app.Keywords)+3)
	candidates = append(candidates, app.DisplayName, app.Name)
	candidates = append(candidates, app.Keywords...)
	candidates = append(candidates, executableName(app.Exec))

	seen := make(map[string]struct{}, len(candidates))
	tokens := make([]string, 0, len(candidates))
	for _, c := range candidates {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		tokens = append(tokens, c)
	}
	return tokens
}

// executableName returns the basename of the first word of an Exec line.
func executableName(exec string) string {
	var first string
	if words, err := shlex.Split(exec); err == nil && len(words) > 0 {
		first = words[0]
	} else if fields := strings.Fields(exec); len(fields) > 0 {
		first = fields[0]
	}
	if first == "" {
		return ""
	}
	return filepath.Base(strings.ReplaceAll(first, "%%", "%"))
}

func visibility(app *Application) int {
	v := app.ShowIn
	if !app.NoDisplay {
		v++
	}
	switch {
	case v < 0:
		return 0
	case v > 2:
		return 2
	}
	return v
}
