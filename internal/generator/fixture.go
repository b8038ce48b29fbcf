package generator

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/playperu/dsaquiz/internal/quiz"
)

//go:embed fixtures/default.yaml
var defaultFixture []byte

// Fixture serves fixed question sets keyed by category. It backs offline
// development and demos when no model is configured.
type Fixture struct {
	sets map[string][]quiz.Question
}

// DefaultFixture returns the built-in sets for the catalog categories.
func DefaultFixture() (*Fixture, error) {
	return ParseFixture(defaultFixture)
}

func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return ParseFixture(data)
}

// ParseFixture decodes a YAML mapping of category to question list. Every
// set must pass quiz.ValidateSet.
func ParseFixture(data []byte) (*Fixture, error) {
	var sets map[string][]quiz.Question
	if err := yaml.Unmarshal(data, &sets); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	for category, questions := range sets {
		if err := quiz.ValidateSet(questions); err != nil {
			return nil, fmt.Errorf("fixture category %q: %w", category, err)
		}
	}
	return &Fixture{sets: sets}, nil
}

func (f *Fixture) Fetch(ctx context.Context, category string) ([]quiz.Question, error) {
	if err := requireCategory(category); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", quiz.ErrFetchFailed, err)
	}
	questions, ok := f.sets[category]
	if !ok {
		return nil, fmt.Errorf("%w: no fixture for category %q", quiz.ErrInvalidResponse, category)
	}
	return quiz.Clone(questions), nil
}

func (f *Fixture) Categories() []string {
	out := make([]string, 0, len(f.sets))
	for c := range f.sets {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
