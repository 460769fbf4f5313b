package app

import (
	"sync"

	"go.uber.org/zap"

	"github.com/Michaszek224/sk2kahoot/internal/domain"
)

// Service exposes the quiz use cases, one per wire command, keyed by
// connection identity. It tracks which session each connection belongs to;
// everything session-scoped is delegated to the session itself.
type Service struct {
	registry *Registry
	bc       *Broadcaster
	log      *zap.Logger

	mu         sync.Mutex
	membership map[string]string // connID -> quiz code
}

func NewService(registry *Registry, bc *Broadcaster, log *zap.Logger) *Service {
	return &Service{
		registry:   registry,
		bc:         bc,
		log:        log,
		membership: make(map[string]string),
	}
}

// Create opens a new empty session owned by the calling connection and
// returns its code. Check and insert share one critical section so two
// racing creates for the same connection cannot both claim a session.
func (s *Service) Create(connID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.memberLocked(connID) {
		return "", domain.ErrAlreadyMember
	}
	session := s.registry.Create(connID)
	s.membership[connID] = session.Code()
	return session.Code(), nil
}

// Join adds the connection to the session addressed by code.
func (s *Service) Join(connID, code, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.memberLocked(connID) {
		return domain.ErrAlreadyMember
	}
	session, ok := s.registry.Lookup(code)
	if !ok {
		return domain.ErrSessionNotFound
	}
	if err := session.Join(connID, name); err != nil {
		return err
	}

	s.membership[connID] = code
	s.log.Info("participant joined",
		zap.String("code", code),
		zap.String("name", name))
	return nil
}

// AddQuestion appends a question to the caller's session.
func (s *Service) AddQuestion(connID string, q domain.Question) error {
	session, err := s.sessionFor(connID)
	if err != nil {
		return err
	}
	return session.AddQuestion(connID, q)
}

// Start begins the caller's quiz.
func (s *Service) Start(connID string) error {
	session, err := s.sessionFor(connID)
	if err != nil {
		return err
	}
	return session.Start(connID)
}

// Answer submits an answer index for the caller's open question.
func (s *Service) Answer(connID string, index int) error {
	session, err := s.sessionFor(connID)
	if err != nil {
		return err
	}
	return session.Answer(connID, index)
}

// Disconnect reconciles a dropped connection: a participant is removed from
// its session, a creator takes the whole session down with it.
func (s *Service) Disconnect(connID string) {
	s.mu.Lock()
	code, ok := s.membership[connID]
	delete(s.membership, connID)
	s.mu.Unlock()
	if !ok {
		return
	}

	session, ok := s.registry.Lookup(code)
	if !ok {
		return
	}
	if session.Creator() == connID {
		session.EndByCreator()
		s.registry.Remove(code)
		s.log.Info("session ended, creator disconnected", zap.String("code", code))
		return
	}
	session.Leave(connID)
}

// sessionFor resolves the caller's session, clearing stale membership for
// sessions that are already gone.
func (s *Service) sessionFor(connID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	code, ok := s.membership[connID]
	if !ok {
		return nil, domain.ErrNotMember
	}
	session, ok := s.registry.Lookup(code)
	if !ok {
		delete(s.membership, connID)
		return nil, domain.ErrNotMember
	}
	return session, nil
}

// memberLocked reports whether connID belongs to a live session. An entry
// whose session is already gone counts as no membership and is cleared, so
// a participant orphaned by a creator disconnect can create or join again
// immediately. Callers hold mu.
func (s *Service) memberLocked(connID string) bool {
	code, ok := s.membership[connID]
	if !ok {
		return false
	}
	if _, live := s.registry.Lookup(code); !live {
		delete(s.membership, connID)
		return false
	}
	return true
}
