package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	RedisAddr     string
	RedisPassword string

	DatabaseDSN string

	SessionTTL         time.Duration
	SessionAbsoluteTTL time.Duration

	// GuardTimeout bounds the session/profile lookups performed per
	// guarded request before the retry state is served.
	GuardTimeout time.Duration

	// RoleSyncSettleDelay is the pause between a successful profile
	// reload and the redirect instruction pushed to the client.
	RoleSyncSettleDelay time.Duration
}

func Load() Config {

	// Local development convenience only; a missing .env is not an error.
	_ = godotenv.Load()

	cfg := Config{

		AppPort: getenv("APP_PORT", "8080"),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),

		RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		DatabaseDSN: os.Getenv("DATABASE_DSN"),

		SessionTTL:         getduration("SESSION_TTL", 24*time.Hour),
		SessionAbsoluteTTL: getduration("SESSION_ABSOLUTE_TTL", 7*24*time.Hour),

		GuardTimeout:        getduration("GUARD_TIMEOUT", 5*time.Second),
		RoleSyncSettleDelay: getduration("ROLE_SYNC_SETTLE_DELAY", time.Second),
	}

	return cfg

}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
