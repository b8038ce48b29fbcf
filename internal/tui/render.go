package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/playperu/dsaquiz/internal/quiz"
	"github.com/playperu/dsaquiz/internal/session"
)

func (m Model) View() string {
	if m.session == nil {
		return m.viewPicker()
	}
	header := m.style("212", true).Render(m.category)
	var body string
	switch m.session.Phase() {
	case session.PhaseLoading:
		body = m.spinner.View() + " Generating questions..."
	case session.PhaseFailed:
		body = m.style("196", false).Render(m.session.Failure()) + "\n\n" + m.help("r retry", "esc back")
	case session.PhaseCompleted:
		body = m.viewSummary()
	default:
		body = m.viewQuestion(m.session.Snapshot())
	}
	return header + "\n\n" + body
}

func (m Model) viewPicker() string {
	var b strings.Builder
	b.WriteString(m.style("212", true).Render("DSA Quiz"))
	b.WriteString("\n\n")
	for i, c := range m.categories {
		cursor := "  "
		title := c.Title
		if i == m.cursor {
			cursor = "> "
			title = m.style("212", true).Render(title)
		}
		fmt.Fprintf(&b, "%s%s %s\n", cursor, title, m.dim(fmt.Sprintf("(%s, %d questions, %s)", c.Difficulty, c.QuestionsCount, c.EstimatedTime)))
		if c.Description != "" {
			fmt.Fprintf(&b, "    %s\n", m.dim(c.Description))
		}
	}
	b.WriteString("\n" + m.help("↑/↓ move", "enter start", "q quit"))
	return b.String()
}

func (m Model) viewQuestion(snap session.Snapshot) string {
	if snap.Question == nil {
		return ""
	}
	var b strings.Builder
	progress := fmt.Sprintf("Question %d/%d  Score %d", snap.Index+1, snap.Total, snap.Score)
	fmt.Fprintf(&b, "%s  %s  %s\n\n", progress, difficultyStyle(snap.Question.Difficulty, m.opts.NoColor).Render(string(snap.Question.Difficulty)), m.countdown(snap))

	// Prompts often hold code; print them as-is.
	b.WriteString(snap.Question.Prompt)
	b.WriteString("\n\n")

	for i, opt := range snap.Question.Options {
		line := fmt.Sprintf("%d. %s", i+1, opt)
		switch {
		case snap.Reveal != nil && i == snap.Reveal.Correct:
			line = m.style("42", true).Render(line + "  ✓")
		case snap.Reveal != nil && session.Answer(i) == snap.Reveal.Chosen:
			line = m.style("196", true).Render(line + "  ✗")
		case session.Answer(i) == snap.Selected:
			line = m.style("212", true).Render("> " + line)
		default:
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}

	if snap.Reveal != nil {
		verdict := m.style("196", true).Render("Incorrect")
		if snap.Reveal.IsCorrect {
			verdict = m.style("42", true).Render("Correct")
		} else if !snap.Reveal.Chosen.Valid() {
			verdict = m.style("214", true).Render("Time's up")
		}
		fmt.Fprintf(&b, "\n%s  %s\n", verdict, snap.Reveal.Explanation)
		return b.String()
	}
	b.WriteString("\n" + m.help("1-4 select", "enter submit", "esc back"))
	return b.String()
}

func (m Model) countdown(snap session.Snapshot) string {
	if snap.Phase == session.PhaseRevealing {
		return m.dim(fmt.Sprintf("next in %ds", snap.RevealSeconds))
	}
	color := "42"
	if snap.RemainingSeconds <= 10 {
		color = "196"
	}
	return m.style(color, true).Render(fmt.Sprintf("%ds", snap.RemainingSeconds))
}

func (m Model) viewSummary() string {
	summary, ok := m.session.Summary()
	if !ok {
		return ""
	}
	var b strings.Builder
	pct := 0
	if summary.Total > 0 {
		pct = summary.Score * 100 / summary.Total
	}
	fmt.Fprintf(&b, "%s %d/%d (%d%%)\n\n", m.style("212", true).Render("Score"), summary.Score, summary.Total, pct)
	for i, item := range summary.Items {
		mark := m.style("42", false).Render("✓")
		if !item.Correct {
			mark = m.style("196", false).Render("✗")
		}
		answer := "no answer"
		if item.Answer.Valid() {
			answer = item.Question.Options[item.Answer]
		}
		fmt.Fprintf(&b, "%s %d. %s\n", mark, i+1, firstLine(item.Question.Prompt))
		fmt.Fprintf(&b, "     %s  %s\n", m.dim("yours: "+answer), m.dim("correct: "+item.Question.Options[item.Question.CorrectIndex]))
	}
	b.WriteString("\n" + m.help("r new questions", "esc back"))
	return b.String()
}

func (m Model) style(color string, bold bool) lipgloss.Style {
	if m.opts.NoColor {
		return lipgloss.NewStyle()
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Bold(bold)
}

func (m Model) dim(text string) string {
	if m.opts.NoColor {
		return text
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Render(text)
}

func (m Model) help(keys ...string) string {
	return m.dim(strings.Join(keys, " • "))
}

func difficultyStyle(d quiz.Difficulty, noColor bool) lipgloss.Style {
	if noColor {
		return lipgloss.NewStyle()
	}
	color := lipgloss.Color("42")
	switch d {
	case quiz.DifficultyMedium:
		color = lipgloss.Color("214")
	case quiz.DifficultyHard:
		color = lipgloss.Color("196")
	}
	return lipgloss.NewStyle().Foreground(color)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}
