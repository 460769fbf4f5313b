package app

import (
	"github.com/Michaszek224/sk2kahoot/internal/domain"
)

// ScoreBoard tracks per-participant scores for one session. It is a plain
// container: the owning Session's lock guards all access.
type ScoreBoard struct {
	scores map[string]int
}

func NewScoreBoard() *ScoreBoard {
	return &ScoreBoard{scores: make(map[string]int)}
}

// Track registers a participant with a zero score.
func (b *ScoreBoard) Track(connID string) {
	if _, ok := b.scores[connID]; !ok {
		b.scores[connID] = 0
	}
}

// Award adds points to a participant. Scores only ever grow.
func (b *ScoreBoard) Award(connID string, points int) {
	if points <= 0 {
		return
	}
	if _, ok := b.scores[connID]; ok {
		b.scores[connID] += points
	}
}

// Score returns the current score for a participant.
func (b *ScoreBoard) Score(connID string) int {
	return b.scores[connID]
}

// Remove drops a participant's score bookkeeping.
func (b *ScoreBoard) Remove(connID string) {
	delete(b.scores, connID)
}

// QuestionSet is the ordered question list for one session, append-only
// until sealed on quiz start.
type QuestionSet struct {
	questions []domain.Question
	sealed    bool
}

func NewQuestionSet() *QuestionSet {
	return &QuestionSet{}
}

// Append adds a question. It fails once the set has been sealed.
func (qs *QuestionSet) Append(q domain.Question) error {
	if qs.sealed {
		return domain.ErrQuizStarted
	}
	qs.questions = append(qs.questions, q)
	return nil
}

// Seal freezes the set; the quiz is starting.
func (qs *QuestionSet) Seal() {
	qs.sealed = true
}

func (qs *QuestionSet) Len() int {
	return len(qs.questions)
}

func (qs *QuestionSet) At(index int) domain.Question {
	return qs.questions[index]
}
