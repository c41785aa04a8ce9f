package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/authz"
	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/logger"
	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/profile"
)

const (
	defaultLoginPath        = "/login"
	defaultAccessDeniedPath = "/403"
)

// GuardConfig parameterizes one protected region. An empty Required
// set means "any authenticated user".
type GuardConfig struct {
	Required authz.RoleSet

	// LoginPath receives unauthenticated users; the originally
	// requested path rides along as ?next= for redirect-back.
	LoginPath string

	// AccessDeniedPath receives authenticated users whose role does
	// not match, unless Fallback is set.
	AccessDeniedPath string

	// Fallback, when non-nil, renders instead of the access-denied
	// redirect on a role mismatch.
	Fallback http.Handler
}

func (c GuardConfig) loginPath() string {
	if c.LoginPath != "" {
		return c.LoginPath
	}
	return defaultLoginPath
}

func (c GuardConfig) accessDeniedPath() string {
	if c.AccessDeniedPath != "" {
		return c.AccessDeniedPath
	}
	return defaultAccessDeniedPath
}

// RequireRoles returns middleware enforcing cfg on the wrapped
// handler. Per request:
//
//  1. resolve (and possibly silently refresh) the session
//  2. load the role profile
//  3. decide via authz.Authorize
//
// pending never redirects, it serves a retry state; unauthenticated
// redirects to sign-in with redirect-back; a role mismatch redirects
// to the access-denied target or the caller's fallback.
func (g *Guard) RequireRoles(cfg GuardConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

			sess, expired := g.resolveSession(w, r)
			if sess == nil {
				if expired {
					sessionExpired(w, cfg.loginPath())
					return
				}
				redirectToLogin(w, r, cfg.loginPath())
				return
			}

			role, ok := g.resolveRole(w, r, sess.UserID, sess.Email, cfg)
			if !ok {
				return // pending state already served
			}

			decision := authz.Authorize(role, cfg.Required, true)
			if !decision.Allowed {
				// Authenticated with a resolved role, so the only
				// reachable denial here is a mismatch.
				if cfg.Fallback != nil {
					cfg.Fallback.ServeHTTP(w, r)
					return
				}
				http.Redirect(w, r, cfg.accessDeniedPath(), http.StatusFound)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, sess.UserID)
			ctx = context.WithValue(ctx, emailKey, sess.Email)
			if role != nil {
				ctx = context.WithValue(ctx, roleKey, *role)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// resolveRole loads the profile and maps load failures to the pending
// retry state. ok=false means the response is already written.
func (g *Guard) resolveRole(
	w http.ResponseWriter,
	r *http.Request,
	userID string,
	email string,
	cfg GuardConfig,
) (*authz.Role, bool) {

	// Without a role restriction there is nothing to resolve;
	// authz.Authorize allows an empty requirement regardless of role.
	if cfg.Required.Empty() {
		return nil, true
	}

	ctx := r.Context()
	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}

	p, err := g.Profiles.Load(ctx, userID, email)
	if err != nil {
		var loadErr *profile.LoadError
		if !errors.As(err, &loadErr) {
			loadErr = &profile.LoadError{Err: err}
		}
		logger.Warn("profile unresolved, serving retry state", map[string]any{
			"user_id": userID,
			"error":   loadErr.Error(),
		})

		// Role unknown: never a redirect and never an implicit
		// client role. The client is told to retry.
		pending(w)
		return nil, false
	}

	return &p.Role, true
}

func redirectToLogin(w http.ResponseWriter, r *http.Request, loginPath string) {
	target := loginPath + "?next=" + url.QueryEscape(r.URL.RequestURI())
	http.Redirect(w, r, target, http.StatusFound)
}

func pending(w http.ResponseWriter) {
	w.Header().Set("Retry-After", "1")
	writeJSON(w, http.StatusServiceUnavailable, map[string]any{
		"status": "checking_permissions",
		"retry":  true,
	})
}

func sessionExpired(w http.ResponseWriter, loginPath string) {
	writeJSON(w, http.StatusUnauthorized, map[string]any{
		"error": "session_expired",
		"renew": loginPath,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
