package profile

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/authz"
)

const cacheSize = 1024

// Loader resolves users to role profiles, provisioning a default
// client profile on first load. A small LRU cache fronts the store;
// role sync invalidates it when a role changes out of band.
type Loader struct {
	store Store
	cache *lru.Cache[string, *RoleProfile]
}

func NewLoader(store Store) (*Loader, error) {
	cache, err := lru.New[string, *RoleProfile](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Loader{store: store, cache: cache}, nil
}

// Load returns the user's role profile, creating the default client
// profile when none exists yet. email is only used to seed the display
// name of a newly provisioned profile. Failures other than not-found
// surface as *LoadError and must be treated as "role unknown".
func (l *Loader) Load(
	ctx context.Context,
	userID string,
	email string,
) (*RoleProfile, error) {

	if cached, ok := l.cache.Get(userID); ok {
		return cached, nil
	}

	p, err := l.store.Get(ctx, userID)
	if err != nil {
		return nil, &LoadError{Err: err}
	}

	if p == nil {
		created, err := l.store.Create(ctx, RoleProfile{
			UserID:      userID,
			Role:        authz.DefaultRole,
			DisplayName: displayNameFromEmail(email),
		})
		if err != nil {
			return nil, &LoadError{Err: err}
		}
		p = created
	}

	l.cache.Add(userID, p)
	return p, nil
}

// Cached returns the cached profile without touching the store.
func (l *Loader) Cached(userID string) (*RoleProfile, bool) {
	return l.cache.Get(userID)
}

// Invalidate drops the cached profile so the next Load hits the store.
func (l *Loader) Invalidate(userID string) {
	l.cache.Remove(userID)
}

// Reload bypasses the cache and fetches fresh state, recaching it.
func (l *Loader) Reload(
	ctx context.Context,
	userID string,
	email string,
) (*RoleProfile, error) {
	l.Invalidate(userID)
	return l.Load(ctx, userID, email)
}
