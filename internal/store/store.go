package store

import (
	"context"
	"fmt"

	"seven-oz-loyalty/internal/config"
	"seven-oz-loyalty/internal/database"
	"seven-oz-loyalty/internal/repository"

	"github.com/rs/zerolog"
)

// Open connects the configured card store backend. The returned
// close function releases its connections and is safe to defer.
func Open(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (repository.CardRepository, func(), error) {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		logger.Warn().Msg("using in-memory card store, cards are lost on restart")
		return repository.NewMemoryCardRepository(logger), func() {}, nil

	case config.BackendPostgres:
		pool, err := database.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return nil, nil, err
		}
		repo := repository.NewPostgresCardRepository(pool, logger)
		if err := repo.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return repo, pool.Close, nil

	case config.BackendMongo:
		m, err := database.ConnectMongo(ctx, cfg.Mongo, logger)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := m.Disconnect(context.Background()); err != nil {
				logger.Warn().Err(err).Msg("failed to disconnect from MongoDB")
			}
		}
		return repository.NewMongoCardRepository(m.Cards, logger), closeFn, nil

	case config.BackendRedis:
		client, err := database.NewRedisClient(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := client.Close(); err != nil {
				logger.Warn().Err(err).Msg("failed to close Redis client")
			}
		}
		return repository.NewRedisCardRepository(client, cfg.Redis.KeyPrefix, logger), closeFn, nil

	case config.BackendS3:
		client, err := database.NewS3Client(ctx, cfg.S3, logger)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewS3CardRepository(client, cfg.S3.Bucket, cfg.S3.Prefix, logger), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
