package indexer

import (
	"slices"
)

// HistorySource supplies the usage history attached to entries at build time.
type HistorySource interface {
	Get(id string) (useCount uint64, lastUsed int64)
}

// Index is the ordered collection of entries for one process. Entries are kept
// most recently used first; ties keep enumeration order.
type Index struct {
	entries []*Entry
}

// Build creates an Entry for each application, attaches its history and sorts
// the result by recency. Applications whose ID was already seen are skipped.
func Build(apps []*Application, history HistorySource) *Index {
	entries := make([]*Entry, 0, len(apps))
	seen := make(map[string]struct{}, len(apps))
	for _, app := range apps {
		if app == nil {
			continue
		}
		if _, ok := seen[app.ID]; ok {
			continue
		}
		seen[app.ID] = struct{}{}

		var (
			count uint64
			last  int64
		)
		if history != nil {
			count, last = history.Get(app.ID)
		}
		entries = append(entries, NewEntry(app, count, last))
	}

	SortByRecency(entries)
	return &Index{entries: entries}
}

// SortByRecency stable-sorts entries by descending LastUsed.
func SortByRecency(entries []*Entry) {
	slices.SortStableFunc(entries, func(a, b *Entry) int {
		switch {
		case a.LastUsed > b.LastUsed:
			return -1
		case a.LastUsed < b.LastUsed:
			return 1
		}
		return 0
	})
}

// All returns a copy of every entry in default order.
func (idx *Index) All() []*Entry {
	return slices.Clone(idx.entries)
}

// Visible returns a new slice of the displayable entries in default order.
func (idx *Index) Visible() []*Entry {
	result := make([]*Entry, 0, len(idx.entries))
	for _, e := range idx.entries {
		if e.Displayable() {
			result = append(result, e)
		}
	}
	return result
}

// Get retrieves an entry by ID.
func (idx *Index) Get(id string) (*Entry, bool) {
	for _, e := range idx.entries {
		if e.ID == id {
			return e, true
		}
	}
	return nil, false
}

// Count returns the number of entries in the index.
func (idx *Index) Count() int {
	return len(idx.entries)
}
