package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/middleware"
	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/navigate"
	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/session"
)

// Me reports the caller's identity, role profile, and home area. It
// sits behind the session guard, so the user id is always present.
func (h *Handler) Me(c *gin.Context) {
	userID, _ := middleware.UserIDFromContext(c.Request.Context())
	email, _ := middleware.EmailFromContext(c.Request.Context())

	p, err := h.profiles.Load(c.Request.Context(), userID, email)
	if err != nil {
		// Role unknown is not "client"; the caller must retry.
		c.Header("Retry-After", "1")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "checking_permissions",
			"retry":  true,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":      userID,
		"email":        email,
		"role":         p.Role,
		"display_name": p.DisplayName,
		"avatar_url":   p.AvatarURL,
		"home":         navigate.HomePath(p.Role),
	})
}

// RefreshSession performs one explicit sliding extension of the
// caller's session: the "session expired, renew" control posts here.
func (h *Handler) RefreshSession(c *gin.Context) {
	cookie, err := c.Request.Cookie(session.CookieName)
	if err != nil || cookie.Value == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no session"})
		return
	}

	sess, err := h.sessionStore.Get(c.Request.Context(), cookie.Value)
	if err != nil || sess == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no session"})
		return
	}

	refreshed, err := session.Refresh(*sess, time.Now(), h.sessionTTL)
	if err != nil {
		_ = h.sessionStore.Delete(c.Request.Context(), sess.SessionID)
		session.ClearCookie(c.Writer, session.CookieOptions{
			Secure:   true,
			SameSite: http.SameSiteLaxMode,
		})
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "session_expired",
			"renew": "/login",
		})
		return
	}

	if err := h.sessionStore.Update(c.Request.Context(), refreshed); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session error"})
		return
	}

	session.SetCookie(c.Writer, refreshed.SessionID, refreshed.ExpiresAt, session.CookieOptions{
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})

	h.broadcast.Publish(session.Transition{
		Event:   session.TokenRefreshed,
		Session: &refreshed,
	})

	c.JSON(http.StatusOK, gin.H{
		"status":     "refreshed",
		"expires_at": refreshed.ExpiresAt.Unix(),
	})
}
