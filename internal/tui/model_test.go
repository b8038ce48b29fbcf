package tui

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/playperu/dsaquiz/internal/catalog"
	"github.com/playperu/dsaquiz/internal/quiz"
	"github.com/playperu/dsaquiz/internal/session"
)

type fakeResolver struct {
	questions []quiz.Question
	err       error
	forces    []bool
}

func (f *fakeResolver) Resolve(_ context.Context, _ string, force bool) ([]quiz.Question, error) {
	f.forces = append(f.forces, force)
	if f.err != nil {
		return nil, f.err
	}
	return quiz.Clone(f.questions), nil
}

func twoQuestions() []quiz.Question {
	out := make([]quiz.Question, 2)
	for i := range out {
		out[i] = quiz.Question{
			ID:           i + 1,
			Prompt:       fmt.Sprintf("int q%d = ____;\nreturn q%d;", i+1, i+1),
			Options:      []string{"0", "1", "2", "3"},
			CorrectIndex: 1,
			Explanation:  "one",
			Difficulty:   quiz.DifficultyMedium,
		}
	}
	return out
}

func newTestModel(resolver session.Resolver) Model {
	return NewModel(catalog.Default(), resolver, Options{
		Config:       session.Config{QuestionSeconds: 2, RevealSeconds: 1},
		NoColor:      true,
		TickInterval: time.Millisecond,
	})
}

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEscape}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// collect runs cmd, expanding batches, and returns the messages it produced.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func deliver(m Model, msgs []tea.Msg) Model {
	for _, msg := range msgs {
		m, _ = update(m, msg)
	}
	return m
}

func fetched(msgs []tea.Msg) []tea.Msg {
	var out []tea.Msg
	for _, msg := range msgs {
		if _, ok := msg.(questionsMsg); ok {
			out = append(out, msg)
		}
	}
	return out
}

func TestPickerNavigation(t *testing.T) {
	m := newTestModel(&fakeResolver{})

	m, _ = update(m, key("up"))
	if m.cursor != 0 {
		t.Fatalf("cursor moved above the first category: %d", m.cursor)
	}
	for range 10 {
		m, _ = update(m, key("down"))
	}
	if m.cursor != len(m.categories)-1 {
		t.Fatalf("cursor = %d, want last (%d)", m.cursor, len(m.categories)-1)
	}
	if !strings.Contains(m.View(), m.categories[0].Title) {
		t.Fatalf("picker does not list categories:\n%s", m.View())
	}
}

func TestOpenLoadsQuestions(t *testing.T) {
	resolver := &fakeResolver{questions: twoQuestions()}
	m := newTestModel(resolver)

	m, cmd := update(m, key("enter"))
	if m.session == nil || m.session.Phase() != session.PhaseLoading {
		t.Fatalf("expected loading quiz view")
	}
	if !strings.Contains(m.View(), "Generating questions") {
		t.Fatalf("loading view:\n%s", m.View())
	}

	m = deliver(m, fetched(collect(cmd)))
	if m.session.Phase() != session.PhaseInProgress {
		t.Fatalf("phase = %s", m.session.Phase())
	}
	if len(resolver.forces) != 1 || resolver.forces[0] {
		t.Fatalf("fetches = %v, want one non-forced", resolver.forces)
	}
	if !strings.Contains(m.View(), "int q1 = ____;\nreturn q1;") {
		t.Fatalf("prompt not rendered verbatim:\n%s", m.View())
	}
}

func TestStaleMessagesDropped(t *testing.T) {
	m := newTestModel(&fakeResolver{questions: twoQuestions()})

	m, first := update(m, key("enter"))
	stale := collect(first)

	m, _ = update(m, key("esc"))
	if m.session != nil {
		t.Fatalf("esc did not leave the quiz")
	}
	m, second := update(m, key("enter"))

	m = deliver(m, stale)
	if got := m.session.Phase(); got != session.PhaseLoading {
		t.Fatalf("stale messages applied, phase = %s", got)
	}

	m = deliver(m, fetched(collect(second)))
	if got := m.session.Phase(); got != session.PhaseInProgress {
		t.Fatalf("phase = %s", got)
	}
	if got := m.session.RemainingSeconds(); got != 2 {
		t.Fatalf("remaining = %d, want 2", got)
	}
}

func TestTicksDriveCountdown(t *testing.T) {
	m := newTestModel(&fakeResolver{questions: twoQuestions()})
	m, cmd := update(m, key("enter"))
	m = deliver(m, fetched(collect(cmd)))

	m, next := update(m, tickMsg{epoch: m.epoch})
	if m.session.RemainingSeconds() != 1 || next == nil {
		t.Fatalf("tick not applied: remaining=%d next=%v", m.session.RemainingSeconds(), next != nil)
	}

	m, next = update(m, tickMsg{epoch: m.epoch - 1})
	if m.session.RemainingSeconds() != 1 || next != nil {
		t.Fatalf("old tick applied or re-armed")
	}
}

func TestRunAndResetForcesFetch(t *testing.T) {
	resolver := &fakeResolver{questions: twoQuestions()}
	m := newTestModel(resolver)
	m, cmd := update(m, key("enter"))
	m = deliver(m, fetched(collect(cmd)))

	m, _ = update(m, key("2"))
	m, _ = update(m, key("enter"))
	if m.session.Phase() != session.PhaseRevealing {
		t.Fatalf("phase after submit = %s", m.session.Phase())
	}
	if !strings.Contains(m.View(), "Correct") {
		t.Fatalf("reveal view:\n%s", m.View())
	}

	// Keys are ignored while revealing.
	m, _ = update(m, key("3"))

	tick := tickMsg{epoch: m.epoch}
	m, _ = update(m, tick) // reveal ends
	m, _ = update(m, tick)
	m, _ = update(m, tick) // timeout
	if !strings.Contains(m.View(), "Time's up") {
		t.Fatalf("timeout view:\n%s", m.View())
	}
	m, _ = update(m, tick)

	summary, ok := m.session.Summary()
	if !ok {
		t.Fatalf("phase = %s, want completed", m.session.Phase())
	}
	if summary.Score != 1 || summary.Answers[0] != 1 || summary.Answers[1] != session.NoAnswer {
		t.Fatalf("summary = %+v", summary)
	}
	if !strings.Contains(m.View(), "1/2 (50%)") {
		t.Fatalf("summary view:\n%s", m.View())
	}

	epoch := m.epoch
	m, cmd = update(m, key("r"))
	if m.session.Phase() != session.PhaseLoading || m.epoch == epoch {
		t.Fatalf("reset did not start a new run")
	}
	m = deliver(m, fetched(collect(cmd)))
	if m.session.Phase() != session.PhaseInProgress {
		t.Fatalf("phase after reset = %s", m.session.Phase())
	}
	if len(resolver.forces) != 2 || !resolver.forces[1] {
		t.Fatalf("fetches = %v, want reset to force", resolver.forces)
	}
}

func TestFailedFetch(t *testing.T) {
	resolver := &fakeResolver{err: fmt.Errorf("%w: quota", quiz.ErrFetchFailed)}
	m := newTestModel(resolver)
	m, cmd := update(m, key("enter"))
	m = deliver(m, fetched(collect(cmd)))

	if m.session.Phase() != session.PhaseFailed {
		t.Fatalf("phase = %s", m.session.Phase())
	}
	if !strings.Contains(m.View(), m.session.Failure()) {
		t.Fatalf("failure not shown:\n%s", m.View())
	}

	resolver.err = nil
	resolver.questions = twoQuestions()
	m, cmd = update(m, key("r"))
	m = deliver(m, fetched(collect(cmd)))
	if m.session.Phase() != session.PhaseInProgress {
		t.Fatalf("retry phase = %s", m.session.Phase())
	}
}
