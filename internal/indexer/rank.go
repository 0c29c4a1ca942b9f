package indexer

import (
	"slices"
	"strings"
	"unicode/utf8"
)

// Score rates how well token matches e. A prefix match of the joined search
// text is worth the token length in runes; every non-overlapping occurrence adds one more.
// Callers handle empty tokens themselves.
func Score(e *Entry, token string) int {
	token = strings.ToLower(token)
	text := e.SearchText()

	score := strings.Count(text, token)
	if strings.HasPrefix(text, token) {
		score += utf8.RuneCountInString(token)
	}
	return score
}

// Rank returns entries ordered by descending Score. Entries with equal scores
// keep their input order. The input slice is not modified.
func Rank(entries []*Entry, token string) []*Entry {
	type scored struct {
		entry *Entry
		score int
	}

	ranked := make([]scored, len(entries))
	for i, e := range entries {
		ranked[i] = scored{entry: e, score: Score(e, token)}
	}

	slices.SortStableFunc(ranked, func(a, b scored) int {
		return b.score - a.score
	})

	result := make([]*Entry, len(ranked))
	for i, r := range ranked {
		result[i] = r.entry
	}
	return result
}
