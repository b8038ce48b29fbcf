// Package generator holds the collaborators that produce question sets for
// a category: the Gemini API, a remote quiz server, and YAML fixtures.
// Every source satisfies questioncache.Fetcher.
package generator

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/playperu/dsaquiz/internal/quiz"
)

// DefaultQuestionCount is how many questions a generated set asks for.
const DefaultQuestionCount = 10

// maxBody caps how much of a response body is read.
const maxBody = 4 << 20

// HTTPDoer abstracts the HTTP client used by remote sources.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Source produces a question set for a category.
type Source interface {
	Fetch(ctx context.Context, category string) ([]quiz.Question, error)
}

// Prompt is the instruction sent to the model for category.
func Prompt(category string, count int) string {
	if count <= 0 {
		count = DefaultQuestionCount
	}
	return fmt.Sprintf(`You create quiz questions for a Data Structures and Algorithms practice app.
Generate %[1]d multiple-choice questions on the topic: %[2]q.
Questions should contain incomplete code snippets, and the correct option should complete them.
Questions get harder from 1 to %[1]d.
Prefer code-heavy problems (finding bugs, optimizing, completing code) over theory, in the style of competitive programming puzzles.
Write code snippets in C++.
Always return exactly %[1]d questions.

Return a JSON array of objects with these fields:
- "id": a unique number for the question (1, 2, ... %[1]d).
- "question": the question text. Use \n for line breaks inside code.
- "options": an array of 4 strings.
- "correct": the zero-based index of the correct option (0, 1, 2 or 3).
- "explanation": a concise explanation of why the correct option is right.
- "difficulty": one of "Easy", "Medium" or "Hard".`, count, category)
}

// Options select and configure a Source.
type Options struct {
	ServerURL     string
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string
	Count         int
	FixtureFile   string
	Client        HTTPDoer
}

// New picks the source to use: a quiz server when ServerURL is set, Gemini
// when an API key is set, and fixtures otherwise. The returned name is for
// logging.
func New(opts Options) (Source, string, error) {
	switch {
	case strings.TrimSpace(opts.ServerURL) != "":
		r, err := NewRemote(opts.ServerURL, opts.Client)
		return r, "remote", err
	case strings.TrimSpace(opts.GeminiAPIKey) != "":
		g, err := NewGemini(opts.GeminiAPIKey, opts.GeminiModel, opts.GeminiBaseURL, opts.Count, opts.Client)
		return g, "gemini", err
	case opts.FixtureFile != "":
		f, err := LoadFixture(opts.FixtureFile)
		return f, "fixture", err
	default:
		f, err := DefaultFixture()
		return f, "fixture", err
	}
}

func requireCategory(category string) error {
	if strings.TrimSpace(category) == "" {
		return fmt.Errorf("%w: category is required", quiz.ErrInvalidInput)
	}
	return nil
}

func readBody(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %w", quiz.ErrFetchFailed, err)
	}
	return body, nil
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 512 {
		s = s[:512] + "..."
	}
	return s
}
