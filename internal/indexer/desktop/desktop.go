package desktop

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// maxLineSize bounds a single line of a .desktop file.
const maxLineSize = 1024 * 1024

// DesktopEntry represents a parsed .desktop file
type DesktopEntry struct {
	ID          string              // Desktop file ID
	Type        string              // Type key, "Application" if absent
	Name        string              // Default name
	Names       map[string]string   // Localized names (locale -> name)
	FullName    string              // X-GNOME-FullName
	FullNames   map[string]string   // Localized full names
	Keywords    []string            // Default keywords
	KeywordsL10 map[string][]string // Localized keywords
	Exec        string              // Exec command
	Icon        string              // Icon name or path
	Terminal    bool                // Whether to run in terminal
	NoDisplay   bool                // NoDisplay key
	Hidden      bool                // Hidden key, the entry is deleted
	OnlyShowIn  []string            // Desktops the entry is restricted to
	NotShowIn   []string            // Desktops the entry is hidden in
	Path        string              // Path to .desktop file
}

// Scan walks dirs in order and sends every application entry on resultChan.
// Dirs come highest precedence first: once an ID is seen, later files with the
// same ID are ignored. Unreadable directories and invalid files are skipped.
func Scan(ctx context.Context, dirs []string, resultChan chan<- *DesktopEntry) error {
	defer close(resultChan)

	seen := make(map[string]struct{})
	for _, dir := range dirs {
		if err := scanDir(ctx, dir, seen, resultChan); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}
	}
	return nil
}

func scanDir(ctx context.Context, root string, seen map[string]struct{}, resultChan chan<- *DesktopEntry) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".desktop") {
			return nil
		}

		id := FileID(root, path)
		if _, ok := seen[id]; ok {
			return nil
		}

		entry, err := ParseDesktopFile(path)
		if err != nil {
			return nil
		}
		// A higher precedence file shadows lower ones even when it is not an application.
		seen[id] = struct{}{}
		if entry.Type != "Application" {
			return nil
		}
		entry.ID = id

		select {
		case resultChan <- entry:
		case <-ctx.Done():
			return ctx.Err()
		}
		return nil
	})
}

// FileID returns the desktop file ID of path below an applications directory:
// the relative path with "/" replaced by "-".
func FileID(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	return strings.ReplaceAll(filepath.ToSlash(rel), "/", "-")
}

// ParseDesktopFile parses a single .desktop file
func ParseDesktopFile(path string) (*DesktopEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	entry := &DesktopEntry{
		Path:        path,
		Names:       make(map[string]string),
		FullNames:   make(map[string]string),
		KeywordsL10: make(map[string][]string),
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	var inDesktopEntry, sawSection bool

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			inDesktopEntry = strings.Trim(line, "[]") == "Desktop Entry"
			sawSection = sawSection || inDesktopEntry
			continue
		}

		if !inDesktopEntry {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		key, locale := splitLocale(key)
		switch key {
		case "Type":
			entry.Type = value
		case "Name":
			if locale != "" {
				entry.Names[locale] = unescape(value)
			} else {
				entry.Name = unescape(value)
			}
		case "X-GNOME-FullName":
			if locale != "" {
				entry.FullNames[locale] = unescape(value)
			} else {
				entry.FullName = unescape(value)
			}
		case "Keywords":
			if locale != "" {
				entry.KeywordsL10[locale] = splitList(value)
			} else {
				entry.Keywords = splitList(value)
			}
		case "Exec":
			entry.Exec = unescape(value)
		case "Icon":
			entry.Icon = unescape(value)
		case "Terminal":
			entry.Terminal = parseBool(value)
		case "NoDisplay":
			entry.NoDisplay = parseBool(value)
		case "Hidden":
			entry.Hidden = parseBool(value)
		case "OnlyShowIn":
			entry.OnlyShowIn = splitList(value)
		case "NotShowIn":
			entry.NotShowIn = splitList(value)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if !sawSection {
		return nil, fmt.Errorf("missing [Desktop Entry] section")
	}
	if entry.Name == "" && entry.Exec == "" {
		return nil, fmt.Errorf("missing required fields")
	}
	if entry.Type == "" {
		entry.Type = "Application"
	}
	if entry.Name == "" {
		entry.Name = strings.TrimSuffix(filepath.Base(path), ".desktop")
	}

	return entry, nil
}

// GetLocalizedName returns the localized name for the given locale, or default name
func (d *DesktopEntry) GetLocalizedName(locale string) string {
	return lookupLocale(d.Names, locale, d.Name)
}

// DisplayName prefers the full name over the plain name.
func (d *DesktopEntry) DisplayName(locale string) string {
	if full := lookupLocale(d.FullNames, locale, d.FullName); full != "" {
		return full
	}
	return d.GetLocalizedName(locale)
}

// LocalizedKeywords returns the default keywords plus those for locale.
func (d *DesktopEntry) LocalizedKeywords(locale string) []string {
	kws := append([]string(nil), d.Keywords...)
	for _, candidate := range localeCandidates(locale) {
		if l10n, ok := d.KeywordsL10[candidate]; ok {
			return append(kws, l10n...)
		}
	}
	return kws
}

// ShownIn reports whether the entry should appear in any of the given desktops.
func (d *DesktopEntry) ShownIn(desktops []string) bool {
	if d.Hidden {
		return false
	}
	for _, current := range desktops {
		if containsFold(d.NotShowIn, current) {
			return false
		}
	}
	if len(d.OnlyShowIn) == 0 {
		return true
	}
	for _, current := range desktops {
		if containsFold(d.OnlyShowIn, current) {
			return true
		}
	}
	return false
}

// ExpandExec expands %c, %i and %k and drops the file and URL codes, since the
// launcher never passes files.
func ExpandExec(exec, name, icon, path string) string {
	var result strings.Builder
	for i := 0; i < len(exec); i++ {
		if exec[i] != '%' || i+1 >= len(exec) {
			result.WriteByte(exec[i])
			continue
		}
		i++
		switch exec[i] {
		case '%':
			result.WriteByte('%')
		case 'c':
			result.WriteString(quote(name))
		case 'k':
			result.WriteString(quote(path))
		case 'i':
			if icon != "" {
				result.WriteString("--icon " + quote(icon))
			}
		default:
			// %f %F %u %U and deprecated codes expand to nothing
		}
	}
	return strings.TrimSpace(result.String())
}

// QuoteArg makes s a single Exec argument: '%' is doubled and the result is
// single-quoted, so spaces and quotes survive ExpandExec and splitting.
func QuoteArg(s string) string {
	return quote(strings.ReplaceAll(s, "%", "%%"))
}

// quote wraps s in single quotes for the Exec splitter.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// splitLocale splits "Name[de_DE]" into "Name" and "de_DE".
func splitLocale(key string) (string, string) {
	if strings.HasSuffix(key, "]") {
		if i := strings.Index(key, "["); i > 0 {
			return key[:i], key[i+1 : len(key)-1]
		}
	}
	return key, ""
}

// localeCandidates turns "de_DE.UTF-8@euro" into ["de_DE@euro", "de_DE", "de@euro", "de"].
func localeCandidates(locale string) []string {
	if locale == "" || locale == "C" || locale == "POSIX" {
		return nil
	}

	modifier := ""
	if i := strings.Index(locale, "@"); i >= 0 {
		modifier = locale[i:]
		locale = locale[:i]
	}
	if i := strings.Index(locale, "."); i >= 0 {
		locale = locale[:i]
	}

	lang := locale
	if i := strings.IndexAny(locale, "_-"); i > 0 {
		lang = locale[:i]
	}

	var out []string
	add := func(s string) {
		for _, o := range out {
			if o == s {
				return
			}
		}
		out = append(out, s)
	}
	if modifier != "" {
		add(locale + modifier)
	}
	add(locale)
	if modifier != "" {
		add(lang + modifier)
	}
	add(lang)
	return out
}

func lookupLocale(values map[string]string, locale, fallback string) string {
	for _, candidate := range localeCandidates(locale) {
		if v, ok := values[candidate]; ok && v != "" {
			return v
		}
	}
	return fallback
}

// splitList splits a ';'-separated list value. "\;" is a literal semicolon
// inside an element.
func splitList(value string) []string {
	var (
		out  []string
		elem strings.Builder
	)
	flush := func() {
		if p := strings.TrimSpace(unescape(elem.String())); p != "" {
			out = append(out, p)
		}
		elem.Reset()
	}
	for i := 0; i < len(value); i++ {
		switch c := value[i]; {
		case c == '\\' && i+1 < len(value):
			i++
			if value[i] != ';' {
				elem.WriteByte('\\')
			}
			elem.WriteByte(value[i])
		case c == ';':
			flush()
		default:
			elem.WriteByte(c)
		}
	}
	flush()
	if out == nil {
		out = []string{}
	}
	return out
}

// unescape resolves the \s, \n, \t, \r and \\ escapes of a string value.
// Unknown escapes are kept as written.
func unescape(value string) string {
	if !strings.Contains(value, `\`) {
		return value
	}
	var b strings.Builder
	for i := 0; i < len(value); i++ {
		if value[i] != '\\' || i+1 >= len(value) {
			b.WriteByte(value[i])
			continue
		}
		i++
		switch value[i] {
		case 's':
			b.WriteByte(' ')
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '\\':
			b.WriteByte('\\')
		default:
			b.WriteByte('\\')
			b.WriteByte(value[i])
		}
	}
	return b.String()
}

func parseBool(value string) bool {
	return strings.EqualFold(value, "true")
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}
