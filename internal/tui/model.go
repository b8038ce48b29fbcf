// Package tui is the terminal quiz client. It drives a session.Session on
// the Bubble Tea loop: one tick per second, and question fetches that report
// back as messages.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/playperu/dsaquiz/internal/catalog"
	"github.com/playperu/dsaquiz/internal/quiz"
	"github.com/playperu/dsaquiz/internal/session"
)

const defaultFetchTimeout = 90 * time.Second

// Options configures the terminal model.
type Options struct {
	Config       session.Config
	FetchTimeout time.Duration
	NoColor      bool
	// TickInterval is one session second; tests shorten it.
	TickInterval time.Duration
}

// Model is the Bubble Tea model. The picker lists the catalog; choosing a
// category opens a quiz view that owns a fresh session.
type Model struct {
	categories []catalog.Category
	cursor     int
	resolver   session.Resolver
	opts       Options

	// epoch changes whenever the quiz view is opened, reset or left, so
	// ticks and fetch results from an earlier run are dropped.
	epoch    uint64
	category string
	session  *session.Session
	spinner  spinner.Model
	width    int
}

func NewModel(cat *catalog.Catalog, resolver session.Resolver, opts Options) Model {
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = defaultFetchTimeout
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	return Model{
		categories: cat.All(),
		resolver:   resolver,
		opts:       opts,
		spinner:    spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
}

// tickMsg is one elapsed session second for the run identified by epoch.
type tickMsg struct {
	epoch uint64
}

// questionsMsg carries a fetch result for the run identified by epoch.
type questionsMsg struct {
	epoch     uint64
	questions []quiz.Question
	err       error
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m = m.leave()
			return m, tea.Quit
		}
		if m.session == nil {
			return m.updatePicker(msg)
		}
		return m.updateQuiz(msg)
	case tickMsg:
		if m.session == nil || msg.epoch != m.epoch {
			return m, nil
		}
		m.session.Tick()
		return m, m.tick()
	case questionsMsg:
		if m.session == nil || msg.epoch != m.epoch {
			return m, nil
		}
		if msg.err != nil {
			m.session.Fail(msg.err)
		} else {
			_ = m.session.Start(msg.questions)
		}
		return m, nil
	case spinner.TickMsg:
		if m.session == nil || m.session.Phase() != session.PhaseLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.categories)-1 {
			m.cursor++
		}
	case "enter", " ":
		if len(m.categories) == 0 {
			return m, nil
		}
		return m.open(m.categories[m.cursor].Title)
	}
	return m, nil
}

func (m Model) updateQuiz(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "esc":
		return m.leave(), nil
	case "1", "2", "3", "4":
		m.session.SelectOption(int(key[0] - '1'))
	case "a", "b", "c", "d":
		m.session.SelectOption(int(key[0] - 'a'))
	case "up", "k":
		m.session.SelectOption(max(int(m.session.Selected())-1, 0))
	case "down", "j":
		m.session.SelectOption(min(int(m.session.Selected())+1, quiz.OptionCount-1))
	case "enter", " ":
		m.session.Submit()
	case "r":
		if m.session.Reset() {
			m.epoch++
			return m, tea.Batch(m.fetch(true), m.tick(), m.spinner.Tick)
		}
	}
	return m, nil
}

// open enters the quiz view for category with a fresh session.
func (m Model) open(category string) (tea.Model, tea.Cmd) {
	m.epoch++
	m.category = category
	m.session = session.New(m.opts.Config)
	return m, tea.Batch(m.fetch(false), m.tick(), m.spinner.Tick)
}

// leave tears the quiz view down. Pending ticks and fetches for it become
// stale.
func (m Model) leave() Model {
	m.epoch++
	m.session = nil
	m.category = ""
	return m
}

func (m Model) tick() tea.Cmd {
	epoch := m.epoch
	return tea.Tick(m.opts.TickInterval, func(time.Time) tea.Msg {
		return tickMsg{epoch: epoch}
	})
}

func (m Model) fetch(force bool) tea.Cmd {
	epoch, category := m.epoch, m.category
	resolver, timeout := m.resolver, m.opts.FetchTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		questions, err := resolver.Resolve(ctx, category, force)
		return questionsMsg{epoch: epoch, questions: questions, err: err}
	}
}
