package app

import (
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/Michaszek224/sk2kahoot/internal/domain"
)

func TestServiceCreateAndJoinFlow(t *testing.T) {
	svc, bc := newTestService()
	bc.Register("c1", newRecordingSender())

	code, err := svc.Create("c1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create("c1"); err != domain.ErrAlreadyMember {
		t.Fatalf("expected ErrAlreadyMember on second create, got %v", err)
	}

	if err := svc.Join("p1", "NOPE42", "Alice"); err != domain.ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if err := svc.Join("p1", code, "Alice"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := svc.Join("p1", code, "Alice2"); err != domain.ErrAlreadyMember {
		t.Fatalf("expected ErrAlreadyMember on rejoin, got %v", err)
	}
}

func TestServiceRejectsNonMembers(t *testing.T) {
	svc, _ := newTestService()

	if err := svc.AddQuestion("ghost", sampleQuestion(0)); err != domain.ErrNotMember {
		t.Fatalf("expected ErrNotMember, got %v", err)
	}
	if err := svc.Start("ghost"); err != domain.ErrNotMember {
		t.Fatalf("expected ErrNotMember, got %v", err)
	}
	if err := svc.Answer("ghost", 0); err != domain.ErrNotMember {
		t.Fatalf("expected ErrNotMember, got %v", err)
	}
}

func TestServiceCreatorDisconnectRemovesSession(t *testing.T) {
	svc, bc := newTestService()
	alice := newRecordingSender()
	bc.Register("c1", newRecordingSender())
	bc.Register("p1", alice)

	code, err := svc.Create("c1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Join("p1", code, "Alice"); err != nil {
		t.Fatalf("join: %v", err)
	}

	svc.Disconnect("c1")

	if _, ok := svc.registry.Lookup(code); ok {
		t.Fatalf("session still live after creator disconnect")
	}
	wantLines(t, alice, "Quiz has ended!")

	// The participant's stale membership resolves to not-a-member.
	if err := svc.Answer("p1", 0); err != domain.ErrNotMember {
		t.Fatalf("expected ErrNotMember after session removal, got %v", err)
	}
	// The code is free again.
	if err := svc.Join("p2", code, "Bob"); err != domain.ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound for dead code, got %v", err)
	}
}

// TestServiceStaleMembershipClearsOnCreateAndJoin covers the survivors of a
// creator disconnect: their membership points at a dead code, and both CREATE
// and JOIN must treat that as no membership instead of rejecting them.
func TestServiceStaleMembershipClearsOnCreateAndJoin(t *testing.T) {
	svc, bc := newTestService()
	bc.Register("c1", newRecordingSender())
	bc.Register("c2", newRecordingSender())
	bc.Register("p1", newRecordingSender())

	code, err := svc.Create("c1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Join("p1", code, "Alice"); err != nil {
		t.Fatalf("join: %v", err)
	}
	svc.Disconnect("c1")

	// The orphaned participant joins a brand-new quiz right away.
	newCode, err := svc.Create("c2")
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if err := svc.Join("p1", newCode, "Alice"); err != nil {
		t.Fatalf("join new quiz after old session died: %v", err)
	}

	// The stale entry clears on CREATE too.
	svc.Disconnect("c2")
	if _, err := svc.Create("p1"); err != nil {
		t.Fatalf("create after old session died: %v", err)
	}
}

func TestServiceConcurrentCreateClaimsOnce(t *testing.T) {
	svc, _ := newTestService()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Create("c1")
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		switch err {
		case nil:
			created++
		case domain.ErrAlreadyMember:
		default:
			t.Fatalf("unexpected create error: %v", err)
		}
	}
	if created != 1 {
		t.Fatalf("%d creates succeeded for one connection, want 1", created)
	}
}

func TestServiceParticipantDisconnectLeavesSessionLive(t *testing.T) {
	svc, bc := newTestService()
	bc.Register("c1", newRecordingSender())
	bob := newRecordingSender()
	bc.Register("p2", bob)

	code, _ := svc.Create("c1")
	_ = svc.Join("p1", code, "Alice")
	_ = svc.Join("p2", code, "Bob")

	svc.Disconnect("p1")

	session, ok := svc.registry.Lookup(code)
	if !ok {
		t.Fatalf("session gone after participant disconnect")
	}
	for _, entry := range session.Scores() {
		if entry.DisplayName == "Alice" {
			t.Fatalf("disconnected participant still tracked")
		}
	}
	// The freed name is available again.
	if err := svc.Join("p3", code, "Alice"); err != nil {
		t.Fatalf("rejoin freed name: %v", err)
	}
}

func newTestService() (*Service, *Broadcaster) {
	bc := NewBroadcaster(zap.NewNop())
	store := &stubStore{sessions: make(map[string]*Session)}
	registry := NewRegistry(store, bc, zap.NewNop())
	return NewService(registry, bc, zap.NewNop()), bc
}
