package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/authz"
	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/profile"
	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/session"
)

type fakeLoader struct {
	mu       sync.Mutex
	profiles map[string]*profile.RoleProfile
	err      error
	loads    int
}

func (f *fakeLoader) Load(ctx context.Context, userID, email string) (*profile.RoleProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	if f.err != nil {
		return nil, &profile.LoadError{Err: f.err}
	}
	if p, ok := f.profiles[userID]; ok {
		return p, nil
	}
	return &profile.RoleProfile{UserID: userID, Role: authz.RoleClient}, nil
}

type fixture struct {
	guard    *Guard
	sessions *session.MemoryStore
	loader   *fakeLoader
}

func newFixture() *fixture {
	sessions := session.NewMemoryStore()
	loader := &fakeLoader{profiles: make(map[string]*profile.RoleProfile)}
	return &fixture{
		guard:    NewGuard(sessions, loader, session.NewBroadcaster(), time.Hour, 2*time.Second),
		sessions: sessions,
		loader:   loader,
	}
}

func (f *fixture) addSession(t *testing.T, userID string, role authz.Role, expiresIn, absoluteIn time.Duration) string {
	t.Helper()
	now := time.Now()
	sid := "sid-" + userID
	require.NoError(t, f.sessions.Create(context.Background(), session.Session{
		SessionID:         sid,
		UserID:            userID,
		Email:             userID + "@example.com",
		CreatedAt:         now,
		ExpiresAt:         now.Add(expiresIn),
		AbsoluteExpiresAt: now.Add(absoluteIn),
	}))
	f.loader.profiles[userID] = &profile.RoleProfile{UserID: userID, Role: role}
	return sid
}

func serve(guard *Guard, cfg GuardConfig, sessionID string) *httptest.ResponseRecorder {
	handler := guard.RequireRoles(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: sessionID})
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestGuardRedirectsAnonymousToLoginWithNext(t *testing.T) {
	f := newFixture()

	rec := serve(f.guard, GuardConfig{Required: authz.NewRoleSet(authz.RoleAdmin)}, "")

	require.Equal(t, http.StatusFound, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/login", loc.Path)
	assert.Equal(t, "/admin/users", loc.Query().Get("next"))
}

func TestGuardAllowsMatchingRole(t *testing.T) {
	f := newFixture()
	sid := f.addSession(t, "admin-1", authz.RoleAdmin, time.Hour, 24*time.Hour)

	var gotRole authz.Role
	handler := f.guard.RequireRoles(GuardConfig{Required: authz.NewRoleSet(authz.RoleAdmin)})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotRole, _ = RoleFromContext(r.Context())
			id, ok := UserIDFromContext(r.Context())
			require.True(t, ok)
			assert.Equal(t, "admin-1", id)
			w.WriteHeader(http.StatusOK)
		}))

	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: sid})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, authz.RoleAdmin, gotRole)
}

func TestGuardRedirectsRoleMismatchNeverRendersChildren(t *testing.T) {
	f := newFixture()
	sid := f.addSession(t, "client-1", authz.RoleClient, time.Hour, 24*time.Hour)

	rendered := false
	handler := f.guard.RequireRoles(GuardConfig{Required: authz.NewRoleSet(authz.RoleAdmin)})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rendered = true
		}))

	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: sid})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/403", rec.Header().Get("Location"))
	assert.False(t, rendered)
}

func TestGuardUsesFallbackOnMismatch(t *testing.T) {
	f := newFixture()
	sid := f.addSession(t, "client-1", authz.RoleClient, time.Hour, 24*time.Hour)

	fallback := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	rec := serve(f.guard, GuardConfig{
		Required: authz.NewRoleSet(authz.RoleAdmin),
		Fallback: fallback,
	}, sid)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGuardSilentlyRefreshesExpiredSession(t *testing.T) {
	f := newFixture()
	// Sliding expiry passed, absolute window still open.
	sid := f.addSession(t, "client-1", authz.RoleClient, -time.Minute, 24*time.Hour)

	rec := serve(f.guard, GuardConfig{Required: authz.NewRoleSet(authz.RoleClient)}, sid)

	require.Equal(t, http.StatusOK, rec.Code)

	// The refreshed session was written back with a future expiry.
	stored, err := f.sessions.Get(context.Background(), sid)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, stored.ExpiresAt.After(time.Now()))

	// And the renewed cookie went out.
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, session.CookieName, cookies[0].Name)
}

func TestGuardSessionExpiredAfterFailedRefresh(t *testing.T) {
	f := newFixture()
	// Both windows exhausted: the single refresh attempt must fail
	// with an actionable response, not a redirect.
	sid := f.addSession(t, "client-1", authz.RoleClient, -2*time.Hour, -time.Hour)

	rec := serve(f.guard, GuardConfig{Required: authz.NewRoleSet(authz.RoleClient)}, sid)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "session_expired")
	assert.Empty(t, rec.Header().Get("Location"))

	// The dead session is gone, so the next request is a clean
	// unauthenticated redirect rather than a second refresh attempt.
	stored, err := f.sessions.Get(context.Background(), sid)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestGuardServesPendingOnProfileFailure(t *testing.T) {
	f := newFixture()
	sid := f.addSession(t, "client-1", authz.RoleClient, time.Hour, 24*time.Hour)
	f.loader.err = errors.New("profiles table unavailable")

	rec := serve(f.guard, GuardConfig{Required: authz.NewRoleSet(authz.RoleClient)}, sid)

	// Role unknown: hold rendering with a retry state. No redirect,
	// and in particular no fail-open client access.
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Empty(t, rec.Header().Get("Location"))
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "checking_permissions")
}

func TestGuardFailsClosedOnSessionStoreError(t *testing.T) {
	f := newFixture()
	sid := f.addSession(t, "client-1", authz.RoleClient, time.Hour, 24*time.Hour)
	f.sessions.FailWith = errors.New("redis down")

	rec := serve(f.guard, GuardConfig{Required: authz.NewRoleSet(authz.RoleClient)}, sid)

	require.Equal(t, http.StatusFound, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/login", loc.Path)
}

func TestGuardEmptyRequirementSkipsProfileLoad(t *testing.T) {
	f := newFixture()
	sid := f.addSession(t, "client-1", authz.RoleClient, time.Hour, 24*time.Hour)

	rec := serve(f.guard, GuardConfig{}, sid)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, f.loader.loads)
}
