package app

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/auth/credentials"
	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/auth/handler"
	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/auth/provider"
	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/auth/provider/google"
	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/auth/resolver"
	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/authz"
	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/config"
	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/events"
	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/middleware"
	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/profile"
	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/rolesync"
	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/session"
)

func setupHTTP(ctx context.Context, cfg config.Config) (*gin.Engine, func() error, error) {

	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	// ----------------------------
	// Dependencies
	// ----------------------------

	sessionStore := session.NewRedisStore(infra.Redis.Client)
	broadcaster := session.NewBroadcaster()

	profileStore := profile.NewDBStore(infra.DB)
	profileLoader, err := profile.NewLoader(profileStore)
	if err != nil {
		return nil, nil, err
	}

	bus := events.NewBus()
	syncer := rolesync.New(profileLoader, bus, cfg.RoleSyncSettleDelay)

	syncCtx, stopSync := context.WithCancel(context.Background())
	go syncer.Run(syncCtx)
	go syncer.Listen(syncCtx, infra.Redis.Client)

	identityResolver := resolver.NewDBResolver(infra.DB)
	credentialService := credentials.NewService(infra.DB)

	googleProvider, err := google.New(
		ctx,
		cfg.GoogleClientID,
		cfg.GoogleClientSecret,
		cfg.GoogleRedirectURL,
	)
	if err != nil {
		stopSync()
		return nil, nil, err
	}

	registry := provider.NewRegistry(
		googleProvider,
	)

	authHandler := handler.NewHandler(handler.Deps{
		Providers:         registry,
		SessionStore:      sessionStore,
		Resolver:          identityResolver,
		CredentialService: credentialService,
		Profiles:          profileLoader,
		ProfileStore:      profileStore,
		Broadcast:         broadcaster,
		Bus:               bus,
		Syncer:            syncer,
		Redis:             infra.Redis.Client,

		SessionTTL:         cfg.SessionTTL,
		SessionAbsoluteTTL: cfg.SessionAbsoluteTTL,
	})

	guard := middleware.NewGuard(
		sessionStore,
		profileLoader,
		broadcaster,
		cfg.SessionTTL,
		cfg.GuardTimeout,
	)

	// ----------------------------
	// Router
	// ----------------------------

	router := gin.New()
	router.Use(gin.Recovery())

	// ----------------------------
	// Public Routes
	// ----------------------------

	authHandler.RegisterRoutes(router)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ----------------------------
	// Authenticated API Routes
	// ----------------------------

	api := router.Group("/api")
	api.Use(middleware.GinRequireAuth(guard))

	api.GET("/me", authHandler.Me)
	api.GET("/events", authHandler.Events)

	// ----------------------------
	// Role-guarded Areas
	// ----------------------------

	client := router.Group("/client")
	client.Use(middleware.GinRequireRoles(guard, middleware.GuardConfig{
		Required: authz.NewRoleSet(authz.RoleClient),
	}))
	client.GET("", func(c *gin.Context) {
		c.JSON(200, gin.H{"area": "client"})
	})

	stylist := router.Group("/stylist")
	stylist.Use(middleware.GinRequireRoles(guard, middleware.GuardConfig{
		Required: authz.StylistRoles(),
	}))
	stylist.GET("", func(c *gin.Context) {
		c.JSON(200, gin.H{"area": "stylist"})
	})

	admin := router.Group("/admin")
	admin.Use(middleware.GinRequireRoles(guard, middleware.GuardConfig{
		Required: authz.NewRoleSet(authz.RoleAdmin),
	}))
	admin.GET("", func(c *gin.Context) {
		c.JSON(200, gin.H{"area": "admin"})
	})
	admin.PATCH("/users/:id/role", authHandler.ChangeRole)

	// ----------------------------
	// Cleanup
	// ----------------------------

	return router, func() error {
		stopSync()
		return infra.DB.Close()
	}, nil
}
