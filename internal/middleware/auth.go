package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/authz"
	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/profile"
	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/session"
)

// unexported, collision-proof context keys
type userIDContextKeyType struct{}
type emailContextKeyType struct{}
type roleContextKeyType struct{}

var (
	userIDKey = userIDContextKeyType{}
	emailKey  = emailContextKeyType{}
	roleKey   = roleContextKeyType{}
)

// UserIDFromContext extracts the authenticated user ID from context.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}

// EmailFromContext extracts the authenticated email from context.
func EmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(emailKey).(string)
	return email, ok
}

// RoleFromContext extracts the resolved role from context. It is only
// present behind RequireRoles, not behind the session-only RequireAuth.
func RoleFromContext(ctx context.Context) (authz.Role, bool) {
	role, ok := ctx.Value(roleKey).(authz.Role)
	return role, ok
}

// profileLoader is the slice of profile.Loader the guard depends on.
type profileLoader interface {
	Load(ctx context.Context, userID, email string) (*profile.RoleProfile, error)
}

// Guard authenticates requests and enforces role requirements. It is
// the single enforcement point: every protected route goes through it
// and every decision comes from authz.Authorize.
type Guard struct {
	Sessions  session.Store
	Profiles  profileLoader
	Broadcast *session.Broadcaster

	// SessionTTL is the sliding extension granted by a silent refresh.
	SessionTTL time.Duration

	// Timeout bounds the session and profile lookups per request;
	// past it the pending state is served instead of hanging.
	Timeout time.Duration

	CookieOpts session.CookieOptions
}

func NewGuard(
	sessions session.Store,
	profiles profileLoader,
	broadcast *session.Broadcaster,
	sessionTTL time.Duration,
	timeout time.Duration,
) *Guard {
	return &Guard{
		Sessions:   sessions,
		Profiles:   profiles,
		Broadcast:  broadcast,
		SessionTTL: sessionTTL,
		Timeout:    timeout,
		CookieOpts: session.CookieOptions{
			Secure:   true,
			SameSite: http.SameSiteLaxMode,
		},
	}
}

// RequireAuth enforces a valid session without any role requirement.
// Role-restricted areas use RequireRoles instead.
func (g *Guard) RequireAuth(next http.Handler) http.Handler {
	return g.RequireRoles(GuardConfig{})(next)
}

// resolveSession loads and, when needed, silently refreshes the
// request's session. Outcomes:
//
//	sess != nil             valid session (possibly just refreshed)
//	sess == nil, !expired   unauthenticated
//	sess == nil, expired    the one refresh attempt failed; the user
//	                        must renew explicitly
//
// Store failures resolve to unauthenticated: fail closed.
func (g *Guard) resolveSession(
	w http.ResponseWriter,
	r *http.Request,
) (sess *session.Session, expired bool) {

	cookie, err := r.Cookie(session.CookieName)
	if err != nil || cookie.Value == "" {
		return nil, false
	}

	ctx := r.Context()
	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}

	sess, err = g.Sessions.Get(ctx, cookie.Value)
	if err != nil || sess == nil {
		return nil, false
	}

	now := time.Now()
	if !sess.Expired(now) {
		return sess, false
	}

	// Exactly one silent refresh attempt before denying.
	refreshed, err := session.Refresh(*sess, now, g.SessionTTL)
	if err != nil {
		_ = g.Sessions.Delete(ctx, sess.SessionID)
		return nil, true
	}
	if err := g.Sessions.Update(ctx, refreshed); err != nil {
		return nil, true
	}

	session.SetCookie(w, refreshed.SessionID, refreshed.ExpiresAt, g.CookieOpts)

	if g.Broadcast != nil {
		g.Broadcast.Publish(session.Transition{
			Event:   session.TokenRefreshed,
			Session: &refreshed,
		})
	}

	return &refreshed, false
}
