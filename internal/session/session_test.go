package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/playperu/dsaquiz/internal/quiz"
)

func testQuestions(n int) []quiz.Question {
	out := make([]quiz.Question, n)
	for i := range out {
		out[i] = quiz.Question{
			ID:           i + 1,
			Prompt:       fmt.Sprintf("Q%d", i+1),
			Options:      []string{"a", "b", "c", "d"},
			CorrectIndex: (i + 1) % quiz.OptionCount,
			Explanation:  fmt.Sprintf("explains Q%d", i+1),
			Difficulty:   quiz.DifficultyEasy,
		}
	}
	return out
}

func started(t *testing.T, questions []quiz.Question) *Session {
	t.Helper()
	s := New(Config{})
	if err := s.Start(questions); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return s
}

func ticks(s *Session, n int) {
	for range n {
		s.Tick()
	}
}

func TestStartEntersInProgress(t *testing.T) {
	s := started(t, testQuestions(3))

	if s.Phase() != PhaseInProgress {
		t.Fatalf("phase = %s, want in_progress", s.Phase())
	}
	if s.CurrentIndex() != 0 || s.Score() != 0 || len(s.Answers()) != 0 {
		t.Fatalf("unexpected initial state: index=%d score=%d answers=%v", s.CurrentIndex(), s.Score(), s.Answers())
	}
	if s.RemainingSeconds() != DefaultQuestionSeconds {
		t.Fatalf("remaining = %d, want %d", s.RemainingSeconds(), DefaultQuestionSeconds)
	}
	if s.Selected() != NoAnswer {
		t.Fatalf("selected = %d, want NoAnswer", s.Selected())
	}
}

func TestStartRejectsInvalidSet(t *testing.T) {
	tests := []struct {
		name      string
		questions []quiz.Question
	}{
		{name: "empty", questions: nil},
		{name: "three options", questions: []quiz.Question{{ID: 1, Prompt: "q", Options: []string{"a", "b", "c"}, Difficulty: quiz.DifficultyEasy}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(Config{})
			err := s.Start(tt.questions)
			if !errors.Is(err, quiz.ErrInvalidResponse) {
				t.Fatalf("err = %v, want ErrInvalidResponse", err)
			}
			if s.Phase() != PhaseFailed {
				t.Fatalf("phase = %s, want failed", s.Phase())
			}
			if s.Failure() == "" {
				t.Fatalf("expected a failure message")
			}
		})
	}
}

func TestMixedRunScenario(t *testing.T) {
	questions := testQuestions(3)
	s := started(t, questions)

	// Q1 answered correctly.
	s.SelectOption(questions[0].CorrectIndex)
	if !s.Submit() {
		t.Fatalf("submit ignored")
	}
	if s.Phase() != PhaseRevealing || s.Score() != 1 {
		t.Fatalf("after Q1: phase=%s score=%d", s.Phase(), s.Score())
	}
	ticks(s, DefaultRevealSeconds)

	// Q2 times out with nothing selected.
	if s.CurrentIndex() != 1 || s.Phase() != PhaseInProgress {
		t.Fatalf("expected Q2 in progress, got index=%d phase=%s", s.CurrentIndex(), s.Phase())
	}
	ticks(s, DefaultQuestionSeconds)
	if s.Phase() != PhaseRevealing || s.Score() != 1 {
		t.Fatalf("after Q2 timeout: phase=%s score=%d", s.Phase(), s.Score())
	}
	ticks(s, DefaultRevealSeconds)

	// Q3 answered incorrectly.
	wrong := (questions[2].CorrectIndex + 1) % quiz.OptionCount
	s.SelectOption(wrong)
	s.Submit()
	ticks(s, DefaultRevealSeconds)

	if !s.IsComplete() {
		t.Fatalf("phase = %s, want completed", s.Phase())
	}
	if s.Score() != 1 {
		t.Fatalf("score = %d, want 1", s.Score())
	}
	want := []Answer{Answer(questions[0].CorrectIndex), NoAnswer, Answer(wrong)}
	if got := s.Answers(); !slices.Equal(got, want) {
		t.Fatalf("answers = %v, want %v", got, want)
	}

	summary, ok := s.Summary()
	if !ok {
		t.Fatalf("summary unavailable after completion")
	}
	if summary.Total != 3 || !summary.Items[0].Correct || summary.Items[1].Correct || summary.Items[2].Correct {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestAllTimeoutsCompleteAfterNCycles(t *testing.T) {
	const n = 5
	s := started(t, testQuestions(n))

	for i := range n {
		if s.IsComplete() {
			t.Fatalf("completed early after %d cycles", i)
		}
		ticks(s, DefaultQuestionSeconds+DefaultRevealSeconds)
	}

	if !s.IsComplete() {
		t.Fatalf("phase = %s after %d cycles, want completed", s.Phase(), n)
	}
	if s.Score() != 0 || len(s.Answers()) != n {
		t.Fatalf("score=%d answers=%v", s.Score(), s.Answers())
	}
	for i, a := range s.Answers() {
		if a != NoAnswer {
			t.Fatalf("answer %d = %d, want NoAnswer", i, a)
		}
	}
}

func TestTimeoutLocksPendingSelection(t *testing.T) {
	questions := testQuestions(1)
	s := started(t, questions)

	s.SelectOption(questions[0].CorrectIndex)
	ticks(s, DefaultQuestionSeconds-1)
	if s.Phase() != PhaseInProgress || s.RemainingSeconds() != 1 {
		t.Fatalf("phase=%s remaining=%d", s.Phase(), s.RemainingSeconds())
	}
	s.Tick()

	if s.Phase() != PhaseRevealing || s.RemainingSeconds() != 0 {
		t.Fatalf("phase=%s remaining=%d", s.Phase(), s.RemainingSeconds())
	}
	if s.Score() != 1 || s.Answers()[0] != Answer(questions[0].CorrectIndex) {
		t.Fatalf("pending selection not locked at timeout: score=%d answers=%v", s.Score(), s.Answers())
	}
}

func TestSelectionOverwritesUntilLockIn(t *testing.T) {
	s := started(t, testQuestions(2))

	s.SelectOption(0)
	s.SelectOption(3)
	s.SelectOption(2)
	s.Submit()

	if got := s.Answers(); len(got) != 1 || got[0] != 2 {
		t.Fatalf("answers = %v, want [2]", got)
	}
}

func TestSelectAfterLockInIgnored(t *testing.T) {
	questions := testQuestions(2)
	s := started(t, questions)

	wrong := (questions[0].CorrectIndex + 1) % quiz.OptionCount
	s.SelectOption(wrong)
	s.Submit()

	if s.SelectOption(questions[0].CorrectIndex) {
		t.Fatalf("select applied while revealing")
	}
	if s.Submit() {
		t.Fatalf("second submit applied while revealing")
	}
	if got := s.Answers(); got[0] != Answer(wrong) || s.Score() != 0 {
		t.Fatalf("recorded answer changed: answers=%v score=%d", got, s.Score())
	}
}

func TestSubmitAndTimeoutDoNotBothApply(t *testing.T) {
	s := started(t, testQuestions(2))
	ticks(s, DefaultQuestionSeconds-1)

	s.Submit()
	s.Tick()

	if got := len(s.Answers()); got != 1 {
		t.Fatalf("answers recorded = %d, want 1", got)
	}
	if s.Phase() != PhaseRevealing {
		t.Fatalf("phase = %s, want revealing", s.Phase())
	}
}

func TestSelectOutOfRangeIgnored(t *testing.T) {
	s := started(t, testQuestions(1))
	for _, idx := range []int{-1, 4, 99} {
		if s.SelectOption(idx) {
			t.Fatalf("SelectOption(%d) applied", idx)
		}
	}
	if s.Selected() != NoAnswer {
		t.Fatalf("selected = %d, want NoAnswer", s.Selected())
	}
}

func TestOperationsIgnoredOutOfPhase(t *testing.T) {
	s := New(Config{})
	if s.SelectOption(0) || s.Submit() || s.Tick() || s.Reset() {
		t.Fatalf("loading session accepted an out-of-phase command")
	}
	if s.Phase() != PhaseLoading {
		t.Fatalf("phase = %s, want loading", s.Phase())
	}

	s = started(t, testQuestions(1))
	if s.Reset() {
		t.Fatalf("reset applied mid-run")
	}
	if s.Fail(errors.New("late failure")) {
		t.Fatalf("fail applied mid-run")
	}
	if err := s.Start(testQuestions(2)); err != nil || s.Len() != 1 {
		t.Fatalf("start replaced a running question set")
	}
}

func TestResetFromCompletedAndFailed(t *testing.T) {
	s := started(t, testQuestions(1))
	s.Submit()
	ticks(s, DefaultRevealSeconds)
	if !s.IsComplete() {
		t.Fatalf("phase = %s, want completed", s.Phase())
	}

	if !s.Reset() {
		t.Fatalf("reset from completed ignored")
	}
	if s.Phase() != PhaseLoading || s.Len() != 0 || len(s.Answers()) != 0 || s.Score() != 0 {
		t.Fatalf("reset kept run state: phase=%s len=%d", s.Phase(), s.Len())
	}

	s.Fail(errors.New("transport down"))
	if s.Phase() != PhaseFailed || !strings.Contains(s.Failure(), "transport down") {
		t.Fatalf("phase=%s failure=%q", s.Phase(), s.Failure())
	}
	if !s.Reset() || s.Failure() != "" || s.Phase() != PhaseLoading {
		t.Fatalf("reset from failed did not clear state")
	}
}

func TestStartSnapshotsQuestions(t *testing.T) {
	questions := testQuestions(2)
	s := started(t, questions)

	questions[0].Prompt = "replaced"
	questions[0].Options[0] = "replaced"

	q, _ := s.CurrentQuestion()
	if q.Prompt != "Q1" || q.Options[0] != "a" {
		t.Fatalf("session observed a mutation of its source set: %+v", q)
	}
}

func TestCustomTimings(t *testing.T) {
	s := New(Config{QuestionSeconds: 3, RevealSeconds: 1})
	if err := s.Start(testQuestions(2)); err != nil {
		t.Fatalf("Start: %v", err)
	}
	ticks(s, 3)
	if s.Phase() != PhaseRevealing {
		t.Fatalf("phase = %s, want revealing", s.Phase())
	}
	s.Tick()
	if s.Phase() != PhaseInProgress || s.CurrentIndex() != 1 || s.RemainingSeconds() != 3 {
		t.Fatalf("phase=%s index=%d remaining=%d", s.Phase(), s.CurrentIndex(), s.RemainingSeconds())
	}
}

func TestSnapshotHidesAnswerUntilReveal(t *testing.T) {
	questions := testQuestions(1)
	s := started(t, questions)

	data, err := json.Marshal(s.Snapshot())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	body := string(data)
	if strings.Contains(body, `"correct"`) || strings.Contains(body, "explains") {
		t.Fatalf("in-progress snapshot leaks the answer: %s", body)
	}
	if !strings.Contains(body, `"selected":null`) {
		t.Fatalf("expected null selection: %s", body)
	}

	s.Submit()
	snap := s.Snapshot()
	if snap.Reveal == nil {
		t.Fatalf("revealing snapshot missing reveal")
	}
	if snap.Reveal.Correct != questions[0].CorrectIndex || snap.Reveal.Chosen != NoAnswer || snap.Reveal.IsCorrect {
		t.Fatalf("unexpected reveal: %+v", snap.Reveal)
	}
	if snap.Reveal.Explanation != "explains Q1" {
		t.Fatalf("explanation = %q", snap.Reveal.Explanation)
	}
}

func TestAnswerJSON(t *testing.T) {
	data, err := json.Marshal([]Answer{2, NoAnswer})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != "[2,null]" {
		t.Fatalf("encoded = %s", data)
	}

	var decoded []Answer
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !slices.Equal(decoded, []Answer{2, NoAnswer}) {
		t.Fatalf("decoded = %v", decoded)
	}
}
