// Package session runs one timed pass through a fixed question set.
//
// Session is a pure state machine: it owns no goroutines and no timers.
// Time advances only through Tick, which an external clock calls once per
// second. Controller wraps a Session with locking, a clock, and the fetch
// that feeds it.
package session

import (
	"encoding/json"
	"fmt"

	"github.com/playperu/dsaquiz/internal/quiz"
)

const (
	DefaultQuestionSeconds = 30
	DefaultRevealSeconds   = 2
)

type Phase string

const (
	PhaseLoading    Phase = "loading"
	PhaseInProgress Phase = "in_progress"
	PhaseRevealing  Phase = "revealing"
	PhaseCompleted  Phase = "completed"
	PhaseFailed     Phase = "failed"
)

// Answer is a locked-in option index, or NoAnswer.
type Answer int

// NoAnswer marks a question that timed out or was submitted with no option
// selected. It is encoded as JSON null.
const NoAnswer Answer = -1

func (a Answer) Valid() bool { return a >= 0 && a < quiz.OptionCount }

func (a Answer) MarshalJSON() ([]byte, error) {
	if !a.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(int(a))
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*a = NoAnswer
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*a = Answer(n)
	return nil
}

type Config struct {
	QuestionSeconds int
	RevealSeconds   int
}

func (c Config) withDefaults() Config {
	if c.QuestionSeconds <= 0 {
		c.QuestionSeconds = DefaultQuestionSeconds
	}
	if c.RevealSeconds <= 0 {
		c.RevealSeconds = DefaultRevealSeconds
	}
	return c
}

// Session is not safe for concurrent use.
type Session struct {
	cfg Config

	phase     Phase
	questions []quiz.Question
	current   int
	selected  Answer
	answers   []Answer
	score     int
	remaining int
	revealing int
	failure   string
}

// New returns a session in the loading phase.
func New(cfg Config) *Session {
	return &Session{
		cfg:      cfg.withDefaults(),
		phase:    PhaseLoading,
		selected: NoAnswer,
	}
}

// Start begins a run over a snapshot of questions. It only applies while
// loading. An empty or malformed set moves the session to failed and the
// validation error is returned.
func (s *Session) Start(questions []quiz.Question) error {
	if s.phase != PhaseLoading {
		return nil
	}
	if err := quiz.ValidateSet(questions); err != nil {
		s.Fail(err)
		return err
	}
	s.questions = quiz.Clone(questions)
	s.current = 0
	s.score = 0
	s.answers = make([]Answer, 0, len(questions))
	s.selected = NoAnswer
	s.remaining = s.cfg.QuestionSeconds
	s.phase = PhaseInProgress
	return nil
}

// Fail moves a loading session to failed with a user-facing message.
func (s *Session) Fail(err error) bool {
	if s.phase != PhaseLoading {
		return false
	}
	s.discardRun()
	s.failure = failureMessage(err)
	s.phase = PhaseFailed
	return true
}

// SelectOption sets or overwrites the pending answer for the current
// question. Ignored outside in_progress and for indexes out of range.
func (s *Session) SelectOption(index int) bool {
	if s.phase != PhaseInProgress || !Answer(index).Valid() {
		return false
	}
	s.selected = Answer(index)
	return true
}

// Submit locks in the pending answer before the countdown runs out.
func (s *Session) Submit() bool {
	if s.phase != PhaseInProgress {
		return false
	}
	s.lockIn()
	return true
}

// Tick applies one elapsed second. In progress it counts the question down
// and locks in at zero; while revealing it counts the display interval down
// and then advances.
func (s *Session) Tick() bool {
	switch s.phase {
	case PhaseInProgress:
		s.remaining--
		if s.remaining <= 0 {
			s.remaining = 0
			s.lockIn()
		}
		return true
	case PhaseRevealing:
		s.revealing--
		if s.revealing <= 0 {
			s.advance()
		}
		return true
	}
	return false
}

// Reset discards a finished or failed run and re-enters loading. The caller
// is expected to request a fresh question set.
func (s *Session) Reset() bool {
	if s.phase != PhaseCompleted && s.phase != PhaseFailed {
		return false
	}
	s.discardRun()
	s.failure = ""
	s.phase = PhaseLoading
	return true
}

func (s *Session) lockIn() {
	q := s.questions[s.current]
	s.answers = append(s.answers, s.selected)
	if s.selected.Valid() && q.IsCorrect(int(s.selected)) {
		s.score++
	}
	s.revealing = s.cfg.RevealSeconds
	s.phase = PhaseRevealing
}

func (s *Session) advance() {
	if s.current+1 < len(s.questions) {
		s.current++
		s.remaining = s.cfg.QuestionSeconds
		s.selected = NoAnswer
		s.phase = PhaseInProgress
		return
	}
	s.revealing = 0
	s.phase = PhaseCompleted
}

func (s *Session) discardRun() {
	s.questions = nil
	s.answers = nil
	s.current = 0
	s.score = 0
	s.remaining = 0
	s.revealing = 0
	s.selected = NoAnswer
}

func (s *Session) Phase() Phase          { return s.phase }
func (s *Session) Score() int            { return s.score }
func (s *Session) RemainingSeconds() int { return s.remaining }
func (s *Session) CurrentIndex() int     { return s.current }
func (s *Session) Selected() Answer      { return s.selected }
func (s *Session) Len() int              { return len(s.questions) }
func (s *Session) Failure() string       { return s.failure }
func (s *Session) IsComplete() bool      { return s.phase == PhaseCompleted }

// CurrentQuestion is defined while in progress or revealing.
func (s *Session) CurrentQuestion() (quiz.Question, bool) {
	if s.phase != PhaseInProgress && s.phase != PhaseRevealing {
		return quiz.Question{}, false
	}
	return s.questions[s.current], true
}

// Answers returns a copy of the locked-in answers, one per completed question.
func (s *Session) Answers() []Answer {
	out := make([]Answer, len(s.answers))
	copy(out, s.answers)
	return out
}

func failureMessage(err error) string {
	if err == nil {
		return "Failed to load questions."
	}
	return fmt.Sprintf("Failed to load questions: %v", err)
}
