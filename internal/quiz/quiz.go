// Package quiz defines the question model shared by the cache, the session
// state machine and the generation collaborators. It has no external
// dependencies.
package quiz

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// OptionCount is the number of options every question carries. The option
// position is the answer encoding.
const OptionCount = 4

var (
	// ErrInvalidInput is returned when a category is missing or blank.
	ErrInvalidInput = errors.New("invalid input")
	// ErrFetchFailed covers transport errors, non-2xx responses and
	// payloads that are not valid JSON.
	ErrFetchFailed = errors.New("fetch failed")
	// ErrInvalidResponse covers payloads that parse but do not describe a
	// non-empty set of well-formed questions.
	ErrInvalidResponse = errors.New("invalid response")
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Question is immutable once fetched. Prompt may contain preformatted code
// and must be rendered verbatim.
type Question struct {
	ID           int        `json:"id" yaml:"id"`
	Prompt       string     `json:"question" yaml:"question"`
	Options      []string   `json:"options" yaml:"options"`
	CorrectIndex int        `json:"correct" yaml:"correct"`
	Explanation  string     `json:"explanation" yaml:"explanation"`
	Difficulty   Difficulty `json:"difficulty" yaml:"difficulty"`
}

// Validate checks the per-question invariants.
func (q Question) Validate() error {
	if strings.TrimSpace(q.Prompt) == "" {
		return errors.New("question text is empty")
	}
	if len(q.Options) != OptionCount {
		return fmt.Errorf("expected %d options, got %d", OptionCount, len(q.Options))
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= OptionCount {
		return fmt.Errorf("correct index %d out of range", q.CorrectIndex)
	}
	if !q.Difficulty.Valid() {
		return fmt.Errorf("unknown difficulty %q", q.Difficulty)
	}
	return nil
}

// IsCorrect reports whether index selects the correct option.
func (q Question) IsCorrect(index int) bool {
	return index == q.CorrectIndex
}

// ValidateSet checks that questions is a usable question set: non-empty,
// every question valid, ids unique within the set.
func ValidateSet(questions []Question) error {
	if len(questions) == 0 {
		return fmt.Errorf("%w: no questions", ErrInvalidResponse)
	}
	seen := make(map[int]struct{}, len(questions))
	for i, q := range questions {
		if err := q.Validate(); err != nil {
			return fmt.Errorf("%w: question %d: %v", ErrInvalidResponse, i, err)
		}
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("%w: question %d: duplicate id %d", ErrInvalidResponse, i, q.ID)
		}
		seen[q.ID] = struct{}{}
	}
	return nil
}

// Clone returns a deep copy so callers can hold a snapshot that later cache
// writes cannot reach.
func Clone(questions []Question) []Question {
	out := make([]Question, len(questions))
	for i, q := range questions {
		q.Options = slices.Clone(q.Options)
		out[i] = q
	}
	return out
}
