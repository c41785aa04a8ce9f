// Package events is the in-process bus for role-change signals. It
// replaces ad hoc cross-component signaling with one fixed schema so
// handlers can be tested without any transport.
package events

import (
	"sync"

	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/authz"
)

// RoleChange announces that a user's role moved from OldRole to
// NewRole. OldRole may be empty when the announcer does not know the
// previous value.
type RoleChange struct {
	UserID  string     `json:"user_id"`
	OldRole authz.Role `json:"old_role,omitempty"`
	NewRole authz.Role `json:"new_role"`
}

// Bus delivers RoleChange events to subscribers in publish order.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(RoleChange)
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]func(RoleChange))}
}

// Subscribe registers cb and returns an unsubscribe handle.
func (b *Bus) Subscribe(cb func(RoleChange)) func() {
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

// Publish delivers ev synchronously to all subscribers. Callbacks must
// not publish reentrantly.
func (b *Bus) Publish(ev RoleChange) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, cb := range b.subs {
		cb(ev)
	}
}
