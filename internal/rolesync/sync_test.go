package rolesync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/authz"
	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/events"
	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/profile"
)

// blockingLoader is a profileLoader whose Reload waits until released,
// so tests can pile up duplicate triggers deterministically.
type blockingLoader struct {
	mu      sync.Mutex
	cached  map[string]*profile.RoleProfile
	result  *profile.RoleProfile
	err     error
	reloads int
	gate    chan struct{}
}

func newBlockingLoader() *blockingLoader {
	return &blockingLoader{
		cached: make(map[string]*profile.RoleProfile),
		gate:   make(chan struct{}),
	}
}

func (l *blockingLoader) Cached(userID string) (*profile.RoleProfile, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.cached[userID]
	return p, ok
}

func (l *blockingLoader) Reload(ctx context.Context, userID, email string) (*profile.RoleProfile, error) {
	l.mu.Lock()
	l.reloads++
	l.mu.Unlock()

	select {
	case <-l.gate:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	return l.result, nil
}

func (l *blockingLoader) reloadCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reloads
}

func collectOutcomes(s *Syncer) (<-chan Outcome, func()) {
	ch := make(chan Outcome, 16)
	stop := s.OnOutcome(func(o Outcome) { ch <- o })
	return ch, stop
}

func waitOutcome(t *testing.T, ch <-chan Outcome) Outcome {
	t.Helper()
	select {
	case o := <-ch:
		return o
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reconciliation outcome")
		return Outcome{}
	}
}

func TestDuplicateTriggersReconcileOnce(t *testing.T) {
	loader := newBlockingLoader()
	loader.result = &profile.RoleProfile{UserID: "u1", Role: authz.RoleAdmin}

	s := New(loader, events.NewBus(), 0)
	outcomes, stop := collectOutcomes(s)
	defer stop()

	ev := events.RoleChange{UserID: "u1", OldRole: authz.RoleClient, NewRole: authz.RoleAdmin}

	ctx := context.Background()
	s.Handle(ctx, ev)
	s.Handle(ctx, ev) // duplicate source firing for the same change
	s.Handle(ctx, ev)

	close(loader.gate)

	o := waitOutcome(t, outcomes)
	assert.Equal(t, OutcomeNavigate, o.Kind)
	assert.Equal(t, "/admin", o.Target)

	// No second outcome and no second reload.
	select {
	case extra := <-outcomes:
		t.Fatalf("unexpected extra outcome: %+v", extra)
	case <-time.After(100 * time.Millisecond):
	}
	assert.Equal(t, 1, loader.reloadCount())
}

func TestMatchingCachedRoleIsIgnored(t *testing.T) {
	loader := newBlockingLoader()
	loader.cached["u1"] = &profile.RoleProfile{UserID: "u1", Role: authz.RoleAdmin}

	s := New(loader, events.NewBus(), 0)
	outcomes, stop := collectOutcomes(s)
	defer stop()

	s.Handle(context.Background(), events.RoleChange{UserID: "u1", NewRole: authz.RoleAdmin})

	select {
	case o := <-outcomes:
		t.Fatalf("no reconciliation expected, got %+v", o)
	case <-time.After(100 * time.Millisecond):
	}
	assert.Equal(t, 0, loader.reloadCount())
}

func TestInvalidAnnouncementsIgnored(t *testing.T) {
	loader := newBlockingLoader()
	s := New(loader, events.NewBus(), 0)

	s.Handle(context.Background(), events.RoleChange{UserID: "", NewRole: authz.RoleAdmin})
	s.Handle(context.Background(), events.RoleChange{UserID: "u1", NewRole: authz.Role("owner")})

	assert.Equal(t, 0, loader.reloadCount())
}

func TestFailedReloadFallsBackToFullReload(t *testing.T) {
	loader := newBlockingLoader()
	loader.err = errors.New("store down")

	s := New(loader, events.NewBus(), 0)
	outcomes, stop := collectOutcomes(s)
	defer stop()

	close(loader.gate)
	s.Handle(context.Background(), events.RoleChange{UserID: "u1", NewRole: authz.RoleStylist})

	o := waitOutcome(t, outcomes)
	assert.Equal(t, OutcomeFullReload, o.Kind)
	assert.Empty(t, o.Target)
}

func TestStylistVariantNavigatesToStylistHome(t *testing.T) {
	loader := newBlockingLoader()
	loader.result = &profile.RoleProfile{UserID: "u1", Role: authz.RoleBarber}

	s := New(loader, events.NewBus(), 0)
	outcomes, stop := collectOutcomes(s)
	defer stop()

	close(loader.gate)
	s.Handle(context.Background(), events.RoleChange{UserID: "u1", NewRole: authz.RoleBarber})

	o := waitOutcome(t, outcomes)
	assert.Equal(t, OutcomeNavigate, o.Kind)
	assert.Equal(t, "/stylist", o.Target)
}

func TestRunProcessesBusEvents(t *testing.T) {
	loader := newBlockingLoader()
	loader.result = &profile.RoleProfile{UserID: "u1", Role: authz.RoleAdmin}
	close(loader.gate)

	bus := events.NewBus()
	s := New(loader, bus, 0)
	outcomes, stop := collectOutcomes(s)
	defer stop()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	// Give Run a moment to subscribe before publishing.
	require.Eventually(t, func() bool {
		bus.Publish(events.RoleChange{UserID: "u1", NewRole: authz.RoleAdmin})
		select {
		case o := <-outcomes:
			assert.Equal(t, OutcomeNavigate, o.Kind)
			return true
		default:
			return false
		}
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
}
