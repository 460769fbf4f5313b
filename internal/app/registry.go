package app

import (
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	codeAlphabet = "0123456789ABCDEF"
	codeLength   = 6
)

// SessionStore abstracts how live sessions are kept (in-memory, Redis-mirrored).
type SessionStore interface {
	// PutIfAbsent claims a code for a session; it reports false when the
	// code is already live.
	PutIfAbsent(code string, session *Session) bool
	Get(code string) (*Session, bool)
	Delete(code string)
}

// Registry is the process-wide table of live sessions keyed by quiz code.
// It owns code generation; each session guards its own state, so registry
// operations never serialize unrelated quizzes.
type Registry struct {
	store SessionStore
	bc    *Broadcaster
	log   *zap.Logger

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewRegistry(store SessionStore, bc *Broadcaster, log *zap.Logger) *Registry {
	return &Registry{
		store: store,
		bc:    bc,
		log:   log,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Create draws codes until one is free and registers a fresh session owned
// by the creator connection.
func (r *Registry) Create(creatorConnID string) *Session {
	for {
		code := r.randomCode()
		session := newSession(code, creatorConnID, r.bc, r.log)
		if r.store.PutIfAbsent(code, session) {
			r.log.Info("session created", zap.String("code", code))
			return session
		}
	}
}

// Lookup resolves a live session by code.
func (r *Registry) Lookup(code string) (*Session, bool) {
	return r.store.Get(code)
}

// Remove deletes a session; its code becomes reusable.
func (r *Registry) Remove(code string) {
	r.store.Delete(code)
	r.log.Info("session removed", zap.String("code", code))
}

func (r *Registry) randomCode() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	buf := make([]byte, codeLength)
	for i := range buf {
		buf[i] = codeAlphabet[r.rnd.Intn(len(codeAlphabet))]
	}
	return string(buf)
}
