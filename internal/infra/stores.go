package infra

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/passkeep/authsvc/internal/config"
)

// Stores holds the backing connections. A nil field means the matching URL
// was not configured and callers should fall back to in-memory storage.
type Stores struct {
	DB    *pgxpool.Pool
	Cache *redis.Client
}

// Open connects to every store whose URL is set in cfg.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Stores, error) {
	s := &Stores{}
	if cfg.DatabaseURL != "" {
		db, err := NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		s.DB = db
	} else {
		logger.Warn("DATABASE_URL not set, credentials are kept in memory")
	}

	if cfg.RedisURL != "" {
		cache, err := NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.Cache = cache
	} else {
		logger.Warn("REDIS_URL not set, challenges are kept in memory")
	}
	return s, nil
}

// Close releases every open connection.
func (s *Stores) Close() error {
	var errs []error
	if s.Cache != nil {
		errs = append(errs, s.Cache.Close())
	}
	if s.DB != nil {
		s.DB.Close()
	}
	return errors.Join(errs...)
}
