package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/0xADE/gofi/internal/indexer"
)

// State is the lifecycle state of a Session.
type State int

const (
	Idle      State = iota // no query text
	Filtered               // non-empty query text
	Launched               // an application was handed to the launcher
	Cancelled              // the user quit without launching
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Filtered:
		return "filtered"
	case Launched:
		return "launched"
	case Cancelled:
		return "cancelled"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// History records launches. *history.Store satisfies it.
type History interface {
	indexer.HistorySource
	RecordUse(id string, now time.Time)
}

// Launcher starts an application. *launcher.Exec satisfies it.
type Launcher interface {
	Launch(ctx context.Context, app *indexer.Application) error
}

// ExecutionError reports that the selected application could not be started.
type ExecutionError struct {
	ID  string
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("cannot launch %s: %v", e.ID, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// Session holds the query, the visible list and the selection for one run of
// the launcher. Events must be delivered from a single goroutine.
type Session struct {
	index    *indexer.Index
	history  History
	launcher Launcher
	now      func() time.Time
	logger   *slog.Logger

	state    State
	query    string
	visible  []*indexer.Entry
	selected int
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// New starts an Idle session over index.
func New(index *indexer.Index, history History, launcher Launcher, opts ...Option) *Session {
	s := &Session{
		index:    index,
		history:  history,
		launcher: launcher,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.index == nil {
		s.index = indexer.Build(nil, history)
	}
	s.refresh()
	return s
}

// SetQuery replaces the query text and recomputes the visible list.
func (s *Session) SetQuery(q string) {
	if s.Done() {
		return
	}
	s.query = q
	s.refresh()
}

// Cancel clears a non-empty query, or ends the session when it is already empty.
func (s *Session) Cancel() {
	if s.Done() {
		return
	}
	if s.query != "" {
		s.SetQuery("")
		return
	}
	s.logger.Debug("session cancelled")
	s.state = Cancelled
}

// MoveDown selects the next row, stopping at the last one.
func (s *Session) MoveDown() {
	if s.selected < len(s.visible)-1 {
		s.selected++
	}
}

// MoveUp selects the previous row, stopping at the first one.
func (s *Session) MoveUp() {
	if s.selected > 0 {
		s.selected--
	}
}

// Confirm records and launches the selected entry, then ends the session.
// With nothing selectable it does nothing. A launch failure is returned as an
// *ExecutionError; the session ends regardless.
func (s *Session) Confirm(ctx context.Context) error {
	if s.Done() {
		return nil
	}
	entry, ok := s.Selected()
	if !ok {
		return nil
	}

	s.logger.Debug("launching", "entry", entry.String())
	s.history.RecordUse(entry.ID, s.now())
	s.state = Launched

	if err := s.launcher.Launch(ctx, entry.App); err != nil {
		return &ExecutionError{ID: entry.ID, Err: err}
	}
	return nil
}

// Rebuild replaces the index with one built from apps and the current history,
// keeping the query.
func (s *Session) Rebuild(apps []*indexer.Application) {
	s.index = indexer.Build(apps, s.history)
	s.logger.Debug("index rebuilt", "entries", s.index.Count())
	if !s.Done() {
		s.refresh()
	}
}

// Query returns the current query text.
func (s *Session) Query() string {
	return s.query
}

// State returns the current state.
func (s *Session) State() State {
	return s.state
}

// Done reports whether the session has ended.
func (s *Session) Done() bool {
	return s.state == Launched || s.state == Cancelled
}

// Visible returns a copy of the rows currently shown.
func (s *Session) Visible() []*indexer.Entry {
	return append([]*indexer.Entry(nil), s.visible...)
}

// SelectedIndex returns the selected row, 0 when the list is empty.
func (s *Session) SelectedIndex() int {
	return s.selected
}

// Selected returns the selected entry, if any.
func (s *Session) Selected() (*indexer.Entry, bool) {
	if s.selected < 0 || s.selected >= len(s.visible) {
		return nil, false
	}
	return s.visible[s.selected], true
}

func (s *Session) refresh() {
	s.selected = 0
	if strings.TrimSpace(s.query) == "" {
		s.state = Idle
		s.visible = s.index.Visible()
		return
	}
	s.state = Filtered
	s.visible = indexer.Rank(s.index.Visible(), s.query)
	s.logger.Debug("ranked", "query", s.query, "rows", len(s.visible))
}
