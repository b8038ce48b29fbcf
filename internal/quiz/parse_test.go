package quiz

import (
	"errors"
	"strings"
	"testing"
)

const validQuestion = `{
	"id": 1,
	"question": "int f(int n) {\n  return n < 2 ? n : f(n-1) + f(n-2);\n}\nComplexity?",
	"options": ["O(n)", "O(log n)", "O(2^n)", "O(n^2)"],
	"correct": 2,
	"explanation": "Each call branches twice.",
	"difficulty": "Easy"
}`

func TestParseQuestionsArray(t *testing.T) {
	questions, err := ParseQuestions([]byte("[" + validQuestion + "]"))
	if err != nil {
		t.Fatalf("ParseQuestions: %v", err)
	}
	if len(questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(questions))
	}
	q := questions[0]
	if q.CorrectIndex != 2 || q.Difficulty != DifficultyEasy {
		t.Fatalf("unexpected question: %+v", q)
	}
	if !strings.Contains(q.Prompt, "\n  return") {
		t.Fatalf("prompt newlines not preserved: %q", q.Prompt)
	}
}

func TestParseQuestionsWrappedObject(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "questions key", payload: `{"questions": [` + validQuestion + `]}`},
		{name: "data key", payload: `{"data": [` + validQuestion + `], "meta": {"model": "x"}}`},
		{name: "single array field", payload: `{"quiz": [` + validQuestion + `], "count": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			questions, err := ParseQuestions([]byte(tt.payload))
			if err != nil {
				t.Fatalf("ParseQuestions: %v", err)
			}
			if len(questions) != 1 {
				t.Fatalf("expected 1 question, got %d", len(questions))
			}
		})
	}
}

func TestParseQuestionsRejects(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    error
	}{
		{name: "not json", payload: `not-json`, want: ErrFetchFailed},
		{name: "trailing data", payload: `[` + validQuestion + `] []`, want: ErrFetchFailed},
		{name: "empty array", payload: `[]`, want: ErrInvalidResponse},
		{name: "string payload", payload: `"questions"`, want: ErrInvalidResponse},
		{name: "ambiguous object", payload: `{"a": [], "b": []}`, want: ErrInvalidResponse},
		{name: "element not object", payload: `[1]`, want: ErrInvalidResponse},
		{name: "missing explanation", payload: `[{"id":1,"question":"q","options":["a","b","c","d"],"correct":0,"difficulty":"Easy"}]`, want: ErrInvalidResponse},
		{name: "three options", payload: `[{"id":1,"question":"q","options":["a","b","c"],"correct":0,"explanation":"","difficulty":"Easy"}]`, want: ErrInvalidResponse},
		{name: "correct out of range", payload: `[{"id":1,"question":"q","options":["a","b","c","d"],"correct":4,"explanation":"","difficulty":"Easy"}]`, want: ErrInvalidResponse},
		{name: "fractional correct", payload: `[{"id":1,"question":"q","options":["a","b","c","d"],"correct":1.5,"explanation":"","difficulty":"Easy"}]`, want: ErrInvalidResponse},
		{name: "string id", payload: `[{"id":"1","question":"q","options":["a","b","c","d"],"correct":1,"explanation":"","difficulty":"Easy"}]`, want: ErrInvalidResponse},
		{name: "unknown difficulty", payload: `[{"id":1,"question":"q","options":["a","b","c","d"],"correct":1,"explanation":"","difficulty":"easy"}]`, want: ErrInvalidResponse},
		{name: "non-string option", payload: `[{"id":1,"question":"q","options":["a","b","c",4],"correct":1,"explanation":"","difficulty":"Easy"}]`, want: ErrInvalidResponse},
		{name: "blank prompt", payload: `[{"id":1,"question":"  ","options":["a","b","c","d"],"correct":1,"explanation":"","difficulty":"Easy"}]`, want: ErrInvalidResponse},
		{name: "duplicate ids", payload: `[` + validQuestion + `,` + validQuestion + `]`, want: ErrInvalidResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseQuestions([]byte(tt.payload))
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestValidateSet(t *testing.T) {
	good := Question{
		ID:           1,
		Prompt:       "Which structure backs BFS?",
		Options:      []string{"Stack", "Queue", "Heap", "Trie"},
		CorrectIndex: 1,
		Difficulty:   DifficultyMedium,
	}
	if err := ValidateSet([]Question{good}); err != nil {
		t.Fatalf("valid set rejected: %v", err)
	}
	if err := ValidateSet(nil); !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("empty set: err = %v, want ErrInvalidResponse", err)
	}

	bad := good
	bad.Options = bad.Options[:2]
	if err := ValidateSet([]Question{bad}); !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("short options: err = %v, want ErrInvalidResponse", err)
	}
}

func TestCloneDetachesOptions(t *testing.T) {
	original := []Question{{ID: 1, Options: []string{"a", "b", "c", "d"}}}
	clone := Clone(original)
	clone[0].Options[0] = "changed"
	if original[0].Options[0] != "a" {
		t.Fatalf("clone shares option storage with original")
	}
}
