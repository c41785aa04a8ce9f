package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/auth/credentials"
	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/auth/provider"
	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/auth/resolver"
	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/events"
	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/logger"
	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/profile"
	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/rolesync"
	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/session"
)

type Handler struct {
	providers         *provider.Registry
	sessionStore      session.Store
	resolver          resolver.Resolver
	credentialService *credentials.Service

	profiles     *profile.Loader
	profileStore profile.Store

	broadcast *session.Broadcaster
	bus       *events.Bus
	syncer    *rolesync.Syncer
	redis     *goredis.Client

	sessionTTL         time.Duration
	sessionAbsoluteTTL time.Duration
}

type Deps struct {
	Providers         *provider.Registry
	SessionStore      session.Store
	Resolver          resolver.Resolver
	CredentialService *credentials.Service
	Profiles          *profile.Loader
	ProfileStore      profile.Store
	Broadcast         *session.Broadcaster
	Bus               *events.Bus
	Syncer            *rolesync.Syncer
	Redis             *goredis.Client

	SessionTTL         time.Duration
	SessionAbsoluteTTL time.Duration
}

func NewHandler(deps Deps) *Handler {
	return &Handler{
		providers:          deps.Providers,
		sessionStore:       deps.SessionStore,
		resolver:           deps.Resolver,
		credentialService:  deps.CredentialService,
		profiles:           deps.Profiles,
		profileStore:       deps.ProfileStore,
		broadcast:          deps.Broadcast,
		bus:                deps.Bus,
		syncer:             deps.Syncer,
		redis:              deps.Redis,
		sessionTTL:         deps.SessionTTL,
		sessionAbsoluteTTL: deps.SessionAbsoluteTTL,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/oauth/login/:provider", h.login)
	r.GET("/oauth/callback/:provider", h.callback)
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.POST("/auth/logout", h.Logout)
	r.POST("/auth/refresh", h.RefreshSession)
}

// establishSession creates and persists a session for userID, issues
// the cookie, announces SIGNED_IN, and provisions the role profile so
// the first guarded request never races profile creation.
func (h *Handler) establishSession(
	c *gin.Context,
	userID string,
	email string,
) (*session.Session, error) {

	sessionID, err := session.GenerateID()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	sess := session.Session{
		SessionID:         sessionID,
		UserID:            userID,
		Email:             email,
		CreatedAt:         now,
		ExpiresAt:         now.Add(h.sessionTTL),
		AbsoluteExpiresAt: now.Add(h.sessionAbsoluteTTL),
	}

	if err := h.sessionStore.Create(c.Request.Context(), sess); err != nil {
		return nil, err
	}

	session.SetCookie(c.Writer, sessionID, sess.ExpiresAt, session.CookieOptions{
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})

	h.broadcast.Publish(session.Transition{
		Event:   session.SignedIn,
		Session: &sess,
	})

	if _, err := h.profiles.Load(c.Request.Context(), userID, email); err != nil {
		// The guard will retry the load; sign-in itself stands.
		logger.Warn("profile provisioning deferred", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
	}

	return &sess, nil
}

func (h *Handler) login(c *gin.Context) {
	providerName := c.Param("provider")

	p, err := h.providers.Get(providerName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "unknown oauth provider",
		})
		return
	}

	state := generateState(c)
	_, codeChallenge := generatePKCE(c)

	authURL := p.AuthCodeURL(state, codeChallenge)
	c.Redirect(http.StatusFound, authURL)
}

func (h *Handler) callback(c *gin.Context) {
	providerName := c.Param("provider")

	p, err := h.providers.Get(providerName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "unknown oauth provider",
		})
		return
	}

	if !validateState(c) {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "invalid state",
		})
		return
	}

	errParam := c.Query("error")
	errDesc := c.Query("error_description")

	if errParam != "" {
		logger.Warn("oidc callback returned error", map[string]any{
			"provider": providerName,
			"error":    errParam,
			"desc":     errDesc,
		})

		// Start a fresh auth flow rather than surfacing provider noise.
		c.Redirect(http.StatusFound, "/login")
		return
	}

	code := c.Query("code")
	if code == "" {
		logger.Error("oidc callback missing code and error", nil)
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	codeVerifier := getPKCEVerifier(c)
	if codeVerifier == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "missing pkce verifier",
		})
		return
	}

	identity, err := p.ExchangeCode(
		c.Request.Context(),
		code,
		codeVerifier,
	)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "authentication failed",
		})
		return
	}

	userID, err := h.resolver.Resolve(c.Request.Context(), identity)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to resolve user",
		})
		return
	}

	sess, err := h.establishSession(c, userID, identity.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to create session",
		})
		return
	}

	logger.Info("login succeeded", map[string]any{
		"user_id":  userID,
		"provider": providerName,
		"ip":       c.ClientIP(),
		"expires":  sess.ExpiresAt.Unix(),
	})

	c.JSON(http.StatusOK, gin.H{
		"status": "authenticated",
	})
}

func (h *Handler) Logout(c *gin.Context) {

	// 1. Read session cookie (same pattern as the guard)
	cookie, err := c.Request.Cookie(session.CookieName)
	if err == nil && cookie.Value != "" {
		sess, _ := h.sessionStore.Get(c.Request.Context(), cookie.Value)

		// 2. Delete session from store (best-effort)
		_ = h.sessionStore.Delete(c.Request.Context(), cookie.Value)

		h.broadcast.Publish(session.Transition{
			Event:   session.SignedOut,
			Session: sess,
		})
	}

	// 3. Clear cookie (must pass options)
	session.ClearCookie(c.Writer, session.CookieOptions{
		Path:     "/",
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	// 4. Idempotent response
	c.Status(http.StatusNoContent)
}
