package store

import (
	"context"
	"testing"

	"seven-oz-loyalty/internal/config"
	"seven-oz-loyalty/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		cfg := &config.Config{Store: config.StoreConfig{Backend: config.BackendMemory}}

		repo, closeStore, err := Open(ctx, cfg, zerolog.Nop())
		require.NoError(t, err)
		defer closeStore()

		assert.IsType(t, &repository.MemoryCardRepository{}, repo)
	})

	t.Run("s3", func(t *testing.T) {
		t.Setenv("AWS_ACCESS_KEY_ID", "test")
		t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
		cfg := &config.Config{
			Store: config.StoreConfig{Backend: config.BackendS3},
			S3:    config.S3Config{Bucket: "loyalty", Region: "eu-west-2", Prefix: "cards/"},
		}

		repo, closeStore, err := Open(ctx, cfg, zerolog.Nop())
		require.NoError(t, err)
		defer closeStore()

		assert.IsType(t, &repository.S3CardRepository{}, repo)
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := &config.Config{Store: config.StoreConfig{Backend: "etcd"}}

		repo, _, err := Open(ctx, cfg, zerolog.Nop())

		assert.Error(t, err)
		assert.Nil(t, repo)
	})
}
