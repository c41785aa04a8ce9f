package app

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"

	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/config"
	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/db"
	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/logger"
	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/redis"
)

type Infra struct {
	DB    *db.DB
	Redis *redis.Client
}

func setupInfra(ctx context.Context, cfg config.Config) (*Infra, error) {
	sqlDB, err := sql.Open("postgres", cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, err
	}

	if err := db.RunBaselineMigration(ctx, sqlDB); err != nil {
		return nil, err
	}

	logger.Info("database ready", nil)

	redisClient, err := redis.New(cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		return nil, err
	}

	logger.Info("redis ready", nil)

	return &Infra{
		DB:    &db.DB{DB: sqlDB},
		Redis: redisClient,
	}, nil
}
