package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/0xADE/gofi/internal/indexer"
	"github.com/0xADE/gofi/internal/session"
)

// RefreshMsg asks the model to enumerate applications again.
type RefreshMsg struct {
	RCChanged bool
}

type appsMsg struct {
	apps []*indexer.Application
	err  error
}

// Enumerator lists applications.
type Enumerator interface {
	Enumerate(ctx context.Context) ([]*indexer.Application, error)
}

// Model is the bubbletea front-end of a Session. It only forwards events and
// renders the session's visible list.
type Model struct {
	ctx        context.Context
	sess       *session.Session
	enumerator func(rcChanged bool) Enumerator
	input      textinput.Model
	keys       KeyMap
	rows       int
	logger     *slog.Logger
	err        error
}

// New creates the model. enumerator builds the Enumerator used on refresh and
// may be nil to disable refreshing.
func New(ctx context.Context, sess *session.Session, rows int, enumerator func(rcChanged bool) Enumerator, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.Default()
	}
	if rows <= 0 {
		rows = 20
	}

	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = "type to search"
	ti.Focus()

	return Model{
		ctx:        ctx,
		sess:       sess,
		enumerator: enumerator,
		input:      ti,
		keys:       DefaultKeyMap(),
		rows:       rows,
		logger:     logger,
	}
}

// Err returns the launch error, if the session ended with one.
func (m Model) Err() error {
	return m.err
}

// Session returns the driven session.
func (m Model) Session() *session.Session {
	return m.sess
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case RefreshMsg:
		if m.enumerator == nil || m.sess.Done() {
			return m, nil
		}
		enumerator := m.enumerator(msg.RCChanged)
		ctx := m.ctx
		return m, func() tea.Msg {
			apps, err := enumerator.Enumerate(ctx)
			return appsMsg{apps: apps, err: err}
		}

	case appsMsg:
		if msg.err != nil {
			m.logger.Warn("refresh failed", "err", msg.err)
			return m, nil
		}
		m.sess.Rebuild(msg.apps)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.sess.SetQuery("")
		m.sess.Cancel()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel):
		m.sess.Cancel()
		m.input.SetValue(m.sess.Query())
		if m.sess.Done() {
			return m, tea.Quit
		}
		return m, nil

	case key.Matches(msg, m.keys.Confirm):
		m.err = m.sess.Confirm(m.ctx)
		if m.sess.Done() {
			return m, tea.Quit
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.sess.MoveUp()
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.sess.MoveDown()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != m.sess.Query() {
		m.sess.SetQuery(m.input.Value())
	}
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if m.sess.Done() {
		return ""
	}

	var b strings.Builder
	b.WriteString(InputBarStyle.Render(PromptStyle.Render("Launch:") + m.input.View()))
	b.WriteString("\n")

	visible := m.sess.Visible()
	selected := m.sess.SelectedIndex()
	start, end := window(len(visible), selected, m.rows)
	for i := start; i < end; i++ {
		label := visible[i].DisplayName
		if label == "" {
			label = visible[i].Name
		}
		if i == selected {
			b.WriteString(SelectedItemStyle.Render(label))
		} else {
			b.WriteString(ItemStyle.Render(label))
		}
		b.WriteString("\n")
	}

	b.WriteString(StatusStyle.Render(fmt.Sprintf("%d/%d", min(selected+1, len(visible)), len(visible))))
	return b.String()
}

// window returns the [start, end) range of rows to draw so that selected stays visible.
func window(total, selected, rows int) (int, int) {
	if total <= rows {
		return 0, total
	}
	start := selected - rows + 1
	if start < 0 {
		start = 0
	}
	return start, start + rows
}
