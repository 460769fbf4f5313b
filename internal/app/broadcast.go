package app

import (
	"sync"

	"go.uber.org/zap"
)

// Sender delivers one protocol line to a connection. Implementations must
// not block: a send that cannot be accepted immediately is dropped and
// reported as false. The transport layer reconciles dead connections.
type Sender interface {
	Send(line string) bool
}

// Broadcaster fans lines out to registered connections. It owns only the
// identity-to-sender table; sessions reference identities, never connections.
type Broadcaster struct {
	log *zap.Logger

	mu    sync.RWMutex
	conns map[string]Sender
}

func NewBroadcaster(log *zap.Logger) *Broadcaster {
	return &Broadcaster{
		log:   log,
		conns: make(map[string]Sender),
	}
}

// Register makes a connection addressable for broadcasts.
func (b *Broadcaster) Register(connID string, sender Sender) {
	b.mu.Lock()
	b.conns[connID] = sender
	b.mu.Unlock()
}

// Unregister forgets a connection. Later sends to it become no-ops.
func (b *Broadcaster) Unregister(connID string) {
	b.mu.Lock()
	delete(b.conns, connID)
	b.mu.Unlock()
}

// SendToOne delivers a line to a single connection, best effort.
func (b *Broadcaster) SendToOne(connID, line string) {
	b.mu.RLock()
	sender, ok := b.conns[connID]
	b.mu.RUnlock()
	if !ok {
		return
	}
	if !sender.Send(line) {
		b.log.Warn("send buffer full, dropping line", zap.String("conn_id", connID))
	}
}

// SendToMany delivers a line to every listed connection except exclude.
// Delivery is best effort per recipient; one dead connection never blocks
// the rest.
func (b *Broadcaster) SendToMany(connIDs []string, line, exclude string) {
	b.mu.RLock()
	senders := make(map[string]Sender, len(connIDs))
	for _, connID := range connIDs {
		if connID == exclude {
			continue
		}
		if sender, ok := b.conns[connID]; ok {
			senders[connID] = sender
		}
	}
	b.mu.RUnlock()

	for connID, sender := range senders {
		if !sender.Send(line) {
			b.log.Warn("send buffer full, dropping line", zap.String("conn_id", connID))
		}
	}
}
