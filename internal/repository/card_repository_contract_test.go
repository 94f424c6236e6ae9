package repository

import (
	"context"
	"sync"
	"testing"

	"seven-oz-loyalty/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testCardRepository runs the behaviour every backend must share against a
// fresh repository returned by newRepo.
func testCardRepository(t *testing.T, newRepo func(t *testing.T) CardRepository) {
	ctx := context.Background()

	t.Run("find missing card", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.FindByUserID(ctx, "07700900001")
		assert.ErrorIs(t, err, ErrCardNotFound)
	})

	t.Run("insert then find", func(t *testing.T) {
		repo := newRepo(t)
		card := model.StampCard{UserID: "07700900002", Stamps: 3, Capacity: 10}

		require.NoError(t, repo.Insert(ctx, card))

		got, err := repo.FindByUserID(ctx, card.UserID)
		require.NoError(t, err)
		assert.Equal(t, card, got)
	})

	t.Run("insert existing keeps stored card", func(t *testing.T) {
		repo := newRepo(t)
		card := model.StampCard{UserID: "07700900003", Stamps: 4, Capacity: 10}
		require.NoError(t, repo.Insert(ctx, card))

		err := repo.Insert(ctx, model.NewStampCard(card.UserID))
		assert.ErrorIs(t, err, ErrCardExists)

		got, err := repo.FindByUserID(ctx, card.UserID)
		require.NoError(t, err)
		assert.Equal(t, 4, got.Stamps)
	})

	t.Run("replace creates and overwrites", func(t *testing.T) {
		repo := newRepo(t)
		card := model.StampCard{UserID: "07700900004", Stamps: 1, Capacity: 10}

		require.NoError(t, repo.Replace(ctx, card))
		got, err := repo.FindByUserID(ctx, card.UserID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.Stamps)

		card.Stamps = 0
		require.NoError(t, repo.Replace(ctx, card))
		got, err = repo.FindByUserID(ctx, card.UserID)
		require.NoError(t, err)
		assert.Equal(t, 0, got.Stamps)
	})

	t.Run("user ids match exactly", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Insert(ctx, model.StampCard{UserID: "Alice", Stamps: 2, Capacity: 10}))

		for _, id := range []model.UserID{"alice", " Alice", "Alice "} {
			_, err := repo.FindByUserID(ctx, id)
			assert.ErrorIs(t, err, ErrCardNotFound, "id %q", id)
		}
	})

	t.Run("concurrent inserts create one card", func(t *testing.T) {
		repo := newRepo(t)
		const workers = 10

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			created int
			exists  int
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := repo.Insert(ctx, model.NewStampCard("07700900005"))
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					created++
				case assert.ErrorIs(t, err, ErrCardExists):
					exists++
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, created)
		assert.Equal(t, workers-1, exists)
	})

	t.Run("atomic increment", func(t *testing.T) {
		repo := newRepo(t)
		stamper, ok := repo.(AtomicStamper)
		if !ok {
			t.Skip("backend has no atomic increment")
		}

		card, err := stamper.IncrementStamps(ctx, "07700900006", 3)
		require.NoError(t, err)
		assert.Equal(t, model.StampCard{UserID: "07700900006", Stamps: 1, Capacity: 3}, card)

		for i := 0; i < 5; i++ {
			card, err = stamper.IncrementStamps(ctx, "07700900006", 3)
			require.NoError(t, err)
		}
		assert.Equal(t, 3, card.Stamps)

		stored, err := repo.FindByUserID(ctx, "07700900006")
		require.NoError(t, err)
		assert.Equal(t, card, stored)
	})

	t.Run("concurrent atomic increments are not lost", func(t *testing.T) {
		repo := newRepo(t)
		stamper, ok := repo.(AtomicStamper)
		if !ok {
			t.Skip("backend has no atomic increment")
		}
		require.NoError(t, repo.Insert(ctx, model.NewStampCard("07700900007")))

		var wg sync.WaitGroup
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := stamper.IncrementStamps(ctx, "07700900007", model.DefaultCardCapacity)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		stored, err := repo.FindByUserID(ctx, "07700900007")
		require.NoError(t, err)
		assert.Equal(t, 5, stored.Stamps)
	})
}
