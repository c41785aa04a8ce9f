// Package rolesync reconciles local role state with role mutations
// that happen elsewhere while a session is active, such as an admin
// promoting a signed-in client. It watches the per-user Redis channels
// and the in-process event bus, reloads the profile once per logical
// change, and tells connected clients where to go next.
package rolesync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/events"
	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/logger"
	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/navigate"
	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/profile"
)

// OutcomeKind says how the client should react to a reconciliation.
type OutcomeKind string

const (
	// OutcomeNavigate moves the client to Target in place.
	OutcomeNavigate OutcomeKind = "navigate"

	// OutcomeFullReload asks for a full shell reload. This is the
	// escape hatch for a failed in-memory reconciliation, never the
	// common path: it throws away in-progress user work.
	OutcomeFullReload OutcomeKind = "full_reload"
)

// Outcome is the client-facing result of one reconciliation.
type Outcome struct {
	UserID  string      `json:"user_id"`
	Kind    OutcomeKind `json:"kind"`
	Target  string      `json:"target,omitempty"`
	Message string      `json:"message"`
}

// profileLoader is the slice of profile.Loader the syncer needs.
type profileLoader interface {
	Cached(userID string) (*profile.RoleProfile, bool)
	Reload(ctx context.Context, userID, email string) (*profile.RoleProfile, error)
}

// Syncer coordinates role-change reconciliation. Multiple sources can
// announce the same logical change; reconciliation is single-flight
// per user, so duplicates arriving while one is running are swallowed.
type Syncer struct {
	loader profileLoader
	bus    *events.Bus

	// settle is the pause between a successful reload and the
	// navigate instruction, giving consumers time to observe the new
	// role before the redirect lands.
	settle        time.Duration
	reloadTimeout time.Duration

	mu       sync.Mutex
	inflight map[string]struct{}

	outMu  sync.Mutex
	nextID int
	subs   map[int]func(Outcome)

	// done tracks reconciliation goroutines for clean shutdown.
	wg sync.WaitGroup
}

func New(loader profileLoader, bus *events.Bus, settle time.Duration) *Syncer {
	return &Syncer{
		loader:        loader,
		bus:           bus,
		settle:        settle,
		reloadTimeout: 5 * time.Second,
		inflight:      make(map[string]struct{}),
		subs:          make(map[int]func(Outcome)),
	}
}

// OnOutcome registers cb for reconciliation outcomes and returns an
// unsubscribe handle. The SSE feed is the main consumer.
func (s *Syncer) OnOutcome(cb func(Outcome)) func() {
	s.outMu.Lock()
	defer s.outMu.Unlock()

	id := s.nextID
	s.nextID++
	s.subs[id] = cb

	return func() {
		s.outMu.Lock()
		defer s.outMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Syncer) emit(o Outcome) {
	s.outMu.Lock()
	defer s.outMu.Unlock()

	for _, cb := range s.subs {
		cb(o)
	}
}

// Run attaches the syncer to the event bus until ctx is canceled and
// waits for in-flight reconciliations on the way out.
func (s *Syncer) Run(ctx context.Context) {
	stop := s.bus.Subscribe(func(ev events.RoleChange) {
		s.Handle(ctx, ev)
	})
	defer stop()

	<-ctx.Done()
	s.wg.Wait()
}

// Handle processes one role-change announcement. Announcements whose
// role matches the cached profile are ignored; the rest start a
// reconciliation unless one is already running for the user.
func (s *Syncer) Handle(ctx context.Context, ev events.RoleChange) {
	if ev.UserID == "" || !ev.NewRole.Valid() {
		return
	}

	if cached, ok := s.loader.Cached(ev.UserID); ok && cached.Role == ev.NewRole {
		return
	}

	s.mu.Lock()
	if _, running := s.inflight[ev.UserID]; running {
		s.mu.Unlock()
		return
	}
	s.inflight[ev.UserID] = struct{}{}
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.inflight, ev.UserID)
			s.mu.Unlock()
		}()
		s.reconcile(ctx, ev)
	}()
}

func (s *Syncer) reconcile(ctx context.Context, ev events.RoleChange) {
	reloadCtx, cancel := context.WithTimeout(ctx, s.reloadTimeout)
	defer cancel()

	p, err := s.loader.Reload(reloadCtx, ev.UserID, "")
	if err != nil {
		logger.Warn("role reconciliation reload failed", map[string]any{
			"user_id": ev.UserID,
			"error":   err.Error(),
		})

		s.emit(Outcome{
			UserID:  ev.UserID,
			Kind:    OutcomeFullReload,
			Message: "Your access level changed, reloading…",
		})
		return
	}

	// Let the reload settle before moving the user.
	select {
	case <-time.After(s.settle):
	case <-ctx.Done():
		return
	}

	s.emit(Outcome{
		UserID:  ev.UserID,
		Kind:    OutcomeNavigate,
		Target:  navigate.HomePath(p.Role),
		Message: fmt.Sprintf("Your role is now %s", p.Role),
	})
}
