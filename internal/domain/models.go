package domain

// AnswerCount is the fixed number of options every question carries.
const AnswerCount = 4

// CorrectAward is the flat score granted for a correct answer.
const CorrectAward = 100

// Phase is the lifecycle state of a quiz session.
type Phase int

const (
	// PhaseLobby accepts question authoring; no question is open.
	PhaseLobby Phase = iota
	// PhaseCollecting has an open question and a running deadline timer.
	PhaseCollecting
	// PhaseEnded is terminal; all mutating commands are rejected.
	PhaseEnded
)

func (p Phase) String() string {
	switch p {
	case PhaseLobby:
		return "lobby"
	case PhaseCollecting:
		return "collecting"
	case PhaseEnded:
		return "ended"
	}
	return "unknown"
}

// Question models one multiple-choice question with exactly four options.
type Question struct {
	Content      string
	Answers      [AnswerCount]string
	CorrectIndex int
	TimeLimitSec int
}

// Participant is a joined connection inside one session.
type Participant struct {
	ConnID      string
	DisplayName string
}

// ScoreEntry is a snapshot-friendly view of one participant's score.
type ScoreEntry struct {
	DisplayName string
	Score       int
}
