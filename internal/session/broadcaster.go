package session

import "sync"

// Event names the auth-state transitions published by this package.
type Event string

const (
	SignedIn       Event = "SIGNED_IN"
	SignedOut      Event = "SIGNED_OUT"
	TokenRefreshed Event = "TOKEN_REFRESHED"
	UserUpdated    Event = "USER_UPDATED"
)

// Transition carries one auth-state change. Session is nil for
// SIGNED_OUT.
type Transition struct {
	Event   Event
	Session *Session
}

// Broadcaster fans auth transitions out to subscribers. Publication
// order is delivery order, and each subscriber sees each transition
// exactly once. The broadcaster owns the subscription lifecycle;
// consumers register through it rather than watching stores directly.
type Broadcaster struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(Transition)
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]func(Transition))}
}

// OnChange registers cb for every subsequent transition and returns an
// unsubscribe handle. Calling the handle more than once is harmless.
func (b *Broadcaster) OnChange(cb func(Transition)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.subs[id] = cb

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// Publish delivers t to all current subscribers. Delivery runs under
// the broadcaster lock so concurrent publishers cannot interleave
// transitions out of order; callbacks must therefore be quick and
// must not publish reentrantly.
func (b *Broadcaster) Publish(t Transition) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, cb := range b.subs {
		cb(t)
	}
}
