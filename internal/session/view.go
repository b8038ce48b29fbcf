package session

import (
	"slices"

	"github.com/playperu/dsaquiz/internal/quiz"
)

// QuestionView is the part of a question that is safe to show before the
// answer is locked in.
type QuestionView struct {
	ID         int             `json:"id"`
	Prompt     string          `json:"question"`
	Options    []string        `json:"options"`
	Difficulty quiz.Difficulty `json:"difficulty"`
}

// Reveal is present only while the current answer is being shown.
type Reveal struct {
	Correct     int    `json:"correct"`
	Chosen      Answer `json:"chosen"`
	IsCorrect   bool   `json:"isCorrect"`
	Explanation string `json:"explanation"`
}

type Snapshot struct {
	ID               string        `json:"id,omitempty"`
	Category         string        `json:"category,omitempty"`
	Phase            Phase         `json:"phase"`
	Index            int           `json:"index"`
	Total            int           `json:"total"`
	Question         *QuestionView `json:"question,omitempty"`
	Selected         Answer        `json:"selected"`
	RemainingSeconds int           `json:"remainingSeconds"`
	RevealSeconds    int           `json:"revealSeconds,omitempty"`
	Score            int           `json:"score"`
	Answers          []Answer      `json:"answers"`
	Reveal           *Reveal       `json:"reveal,omitempty"`
	Failure          string        `json:"failure,omitempty"`
}

// Snapshot captures the read-outs a screen needs. The correct index stays
// hidden until the question is locked in.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		Phase:            s.phase,
		Index:            s.current,
		Total:            len(s.questions),
		Selected:         s.selected,
		RemainingSeconds: s.remaining,
		Score:            s.score,
		Answers:          s.Answers(),
		Failure:          s.failure,
	}

	q, ok := s.CurrentQuestion()
	if !ok {
		return snap
	}
	snap.Question = &QuestionView{
		ID:         q.ID,
		Prompt:     q.Prompt,
		Options:    slices.Clone(q.Options),
		Difficulty: q.Difficulty,
	}
	if s.phase == PhaseRevealing {
		chosen := s.answers[s.current]
		snap.RevealSeconds = s.revealing
		snap.Reveal = &Reveal{
			Correct:     q.CorrectIndex,
			Chosen:      chosen,
			IsCorrect:   chosen.Valid() && q.IsCorrect(int(chosen)),
			Explanation: q.Explanation,
		}
	}
	return snap
}

type ReviewItem struct {
	Question quiz.Question `json:"question"`
	Answer   Answer        `json:"answer"`
	Correct  bool          `json:"correct"`
}

// Summary is the end-of-run review.
type Summary struct {
	Score   int          `json:"score"`
	Total   int          `json:"total"`
	Answers []Answer     `json:"answers"`
	Items   []ReviewItem `json:"items"`
}

// Summary is available once the run has completed.
func (s *Session) Summary() (Summary, bool) {
	if s.phase != PhaseCompleted {
		return Summary{}, false
	}
	items := make([]ReviewItem, len(s.questions))
	for i, q := range s.questions {
		a := s.answers[i]
		items[i] = ReviewItem{
			Question: q,
			Answer:   a,
			Correct:  a.Valid() && q.IsCorrect(int(a)),
		}
	}
	return Summary{
		Score:   s.score,
		Total:   len(s.questions),
		Answers: s.Answers(),
		Items:   items,
	}, true
}
