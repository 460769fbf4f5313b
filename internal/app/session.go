package app

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Michaszek224/sk2kahoot/internal/domain"
	"github.com/Michaszek224/sk2kahoot/internal/protocol"
)

// Session is the state machine for one live quiz. All mutable state is
// guarded by mu, and both close triggers (quorum and deadline timer) funnel
// into closeLocked behind a current-index check, so a question closes at
// most once no matter how the triggers race.
type Session struct {
	code     string
	creator  string
	bc       *Broadcaster
	log      *zap.Logger
	schedule func(d time.Duration, f func()) *time.Timer

	mu           sync.Mutex
	phase        domain.Phase
	participants map[string]*domain.Participant
	board        *ScoreBoard
	questions    *QuestionSet
	current      int
	answers      map[string]int
	timer        *time.Timer
}

func newSession(code, creator string, bc *Broadcaster, log *zap.Logger) *Session {
	return newSessionWithScheduler(code, creator, bc, log, time.AfterFunc)
}

// newSessionWithScheduler allows deterministic deadline control in tests.
func newSessionWithScheduler(code, creator string, bc *Broadcaster, log *zap.Logger, schedule func(time.Duration, func()) *time.Timer) *Session {
	return &Session{
		code:         code,
		creator:      creator,
		bc:           bc,
		log:          log,
		schedule:     schedule,
		phase:        domain.PhaseLobby,
		participants: make(map[string]*domain.Participant),
		board:        NewScoreBoard(),
		questions:    NewQuestionSet(),
		current:      -1,
		answers:      make(map[string]int),
	}
}

func (s *Session) Code() string { return s.code }

func (s *Session) Creator() string { return s.creator }

func (s *Session) Phase() domain.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *Session) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Scores returns the current score snapshot, highest first.
func (s *Session) Scores() []domain.ScoreEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scoresLocked()
}

// Join adds a participant under a unique, non-empty display name.
func (s *Session) Join(connID, name string) error {
	if name == "" {
		return domain.ErrEmptyName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == domain.PhaseEnded {
		return domain.ErrQuizEnded
	}
	for _, p := range s.participants {
		if p.DisplayName == name {
			return domain.ErrNameTaken
		}
	}
	s.participants[connID] = &domain.Participant{ConnID: connID, DisplayName: name}
	s.board.Track(connID)
	return nil
}

// AddQuestion appends a question; creator only, lobby only.
func (s *Session) AddQuestion(connID string, q domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if connID != s.creator {
		return domain.ErrOnlyCreatorAdds
	}
	switch s.phase {
	case domain.PhaseCollecting:
		return domain.ErrQuizStarted
	case domain.PhaseEnded:
		return domain.ErrQuizEnded
	}
	return s.questions.Append(q)
}

// Start seals the question set, opens question zero, and arms its deadline.
func (s *Session) Start(connID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if connID != s.creator {
		return domain.ErrOnlyCreatorStarts
	}
	switch s.phase {
	case domain.PhaseCollecting:
		return domain.ErrQuizStarted
	case domain.PhaseEnded:
		return domain.ErrQuizEnded
	}
	if s.questions.Len() == 0 {
		return domain.ErrNoQuestions
	}

	s.questions.Seal()
	s.phase = domain.PhaseCollecting
	s.current = 0
	s.broadcastLocked(protocol.MsgQuizStarted)
	s.broadcastLocked(protocol.FormatQuestion(s.questions.At(0)))
	s.armTimerLocked()
	s.log.Info("quiz started",
		zap.String("code", s.code),
		zap.Int("questions", s.questions.Len()),
		zap.Int("participants", len(s.participants)))
	return nil
}

// Answer records a participant's answer for the open question, mirrors it to
// the creator, and closes the question if quorum is reached. An answer sent
// before the quiz starts is a client mistake and is rejected; one that
// arrives after the quiz ended is a silent no-op, because the participant
// cannot know it lost the race against the close.
func (s *Session) Answer(connID string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.participants[connID]
	if !ok {
		return domain.ErrNotMember
	}
	if s.phase == domain.PhaseLobby {
		return domain.ErrQuizNotStarted
	}
	if s.phase != domain.PhaseCollecting {
		return nil
	}

	s.answers[connID] = index
	s.bc.SendToOne(s.creator, protocol.FormatPlayerAnswer(p.DisplayName, index))

	if quorumMet(len(s.answers), len(s.participants)) {
		s.closeLocked()
	}
	return nil
}

// Leave removes a participant and their per-question bookkeeping. The
// quorum denominator shrinks accordingly on the next check.
func (s *Session) Leave(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.participants, connID)
	delete(s.answers, connID)
	s.board.Remove(connID)
}

// EndByCreator terminates the session when its creator disconnects.
func (s *Session) EndByCreator() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.phase != domain.PhaseEnded {
		s.phase = domain.PhaseEnded
		s.broadcastLocked(protocol.MsgQuizEnded)
	}
}

// closeQuestion is the deadline-timer entry point. A timer that fires after
// its question already closed loses the index check and does nothing.
func (s *Session) closeQuestion(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != domain.PhaseCollecting || s.current != index {
		return
	}
	s.closeLocked()
}

// closeLocked scores the open question, publishes the snapshot, and either
// opens the next question or ends the quiz. Callers hold mu.
func (s *Session) closeLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}

	q := s.questions.At(s.current)
	for connID, answer := range s.answers {
		if _, ok := s.participants[connID]; !ok {
			// Answered, then disconnected before the close.
			delete(s.answers, connID)
			continue
		}
		if answer == q.CorrectIndex {
			s.board.Award(connID, domain.CorrectAward)
		}
	}

	s.broadcastLocked(protocol.FormatScores(s.scoresLocked()))
	s.answers = make(map[string]int)
	s.current++

	if s.current < s.questions.Len() {
		s.broadcastLocked(protocol.FormatQuestion(s.questions.At(s.current)))
		s.armTimerLocked()
		return
	}

	s.phase = domain.PhaseEnded
	s.broadcastLocked(protocol.MsgQuizEnded)
	s.log.Info("quiz ended", zap.String("code", s.code))
}

func (s *Session) armTimerLocked() {
	index := s.current
	limit := time.Duration(s.questions.At(index).TimeLimitSec) * time.Second
	s.timer = s.schedule(limit, func() {
		s.closeQuestion(index)
	})
}

func (s *Session) broadcastLocked(line string) {
	ids := make([]string, 0, len(s.participants))
	for connID := range s.participants {
		ids = append(ids, connID)
	}
	s.bc.SendToMany(ids, line, "")
}

func (s *Session) scoresLocked() []domain.ScoreEntry {
	entries := make([]domain.ScoreEntry, 0, len(s.participants))
	for connID, p := range s.participants {
		entries = append(entries, domain.ScoreEntry{
			DisplayName: p.DisplayName,
			Score:       s.board.Score(connID),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].DisplayName < entries[j].DisplayName
	})
	return entries
}

// quorumMet reports whether answered reaches ceil(2*joined/3). An empty
// session never satisfies quorum; only the deadline can close then.
func quorumMet(answered, joined int) bool {
	if joined == 0 {
		return false
	}
	return answered >= (2*joined+2)/3
}
