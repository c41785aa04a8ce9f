package session

import (
	"context"
	"errors"
	"time"
)

// Session represents an authenticated user session.
// It intentionally stores only identity pointers, not auth state.
type Session struct {
	SessionID string    // unique session identifier
	UserID    string    // references users.id
	Email     string    // identity email, used for profile provisioning
	CreatedAt time.Time // issued-at time

	// ExpiresAt is the sliding expiry; a silent refresh may extend it
	// up to AbsoluteExpiresAt but never past it.
	ExpiresAt         time.Time
	AbsoluteExpiresAt time.Time
}

// Expired reports whether the sliding expiry has passed at now.
func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// ErrRefreshExhausted is returned when a session can no longer be
// silently extended and the user must sign in again.
var ErrRefreshExhausted = errors.New("session: absolute expiry reached")

// Refresh returns a copy of s with the sliding expiry extended by ttl,
// clamped to the absolute expiry. It fails once the absolute window is
// spent; callers attempt this at most once per evaluation.
func Refresh(s Session, now time.Time, ttl time.Duration) (Session, error) {
	if !now.Before(s.AbsoluteExpiresAt) {
		return Session{}, ErrRefreshExhausted
	}

	next := now.Add(ttl)
	if next.After(s.AbsoluteExpiresAt) {
		next = s.AbsoluteExpiresAt
	}

	s.ExpiresAt = next
	return s, nil
}

// Store defines how sessions are stored and retrieved.
// Implementations (e.g., Redis) must remain stateless and opaque.
// Get returns (nil, nil) for an unknown session id; a non-nil error
// means the store itself failed and callers must fail closed.
type Store interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, sessionID string) (*Session, error)
	Update(ctx context.Context, s Session) error
	Delete(ctx context.Context, sessionID string) error
}
