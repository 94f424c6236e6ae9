package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"seven-oz-loyalty/internal/model"
	"seven-oz-loyalty/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCardRepository is a mock implementation of CardRepository.
type MockCardRepository struct {
	mock.Mock
}

func (m *MockCardRepository) FindByUserID(ctx context.Context, userID model.UserID) (model.StampCard, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(model.StampCard), args.Error(1)
}

func (m *MockCardRepository) Insert(ctx context.Context, card model.StampCard) error {
	args := m.Called(ctx, card)
	return args.Error(0)
}

func (m *MockCardRepository) Replace(ctx context.Context, card model.StampCard) error {
	args := m.Called(ctx, card)
	return args.Error(0)
}

// MockAtomicCardRepository also implements AtomicStamper.
type MockAtomicCardRepository struct {
	MockCardRepository
}

func (m *MockAtomicCardRepository) IncrementStamps(ctx context.Context, userID model.UserID, capacity int) (model.StampCard, error) {
	args := m.Called(ctx, userID, capacity)
	return args.Get(0).(model.StampCard), args.Error(1)
}

func newMemoryCardService() CardService {
	return NewCardService(repository.NewMemoryCardRepository(zerolog.Nop()), CardServiceOptions{}, zerolog.Nop())
}

func TestCardService_GetOrCreate(t *testing.T) {
	existing := model.StampCard{UserID: "07700900001", Stamps: 4, Capacity: 10}
	storeFailure := errors.New("connection refused")

	tests := []struct {
		name      string
		setupMock func(*MockCardRepository)
		want      model.StampCard
		wantErr   error
	}{
		{
			name: "existing card",
			setupMock: func(m *MockCardRepository) {
				m.On("FindByUserID", mock.Anything, existing.UserID).Return(existing, nil)
			},
			want: existing,
		},
		{
			name: "absent card is created empty",
			setupMock: func(m *MockCardRepository) {
				m.On("FindByUserID", mock.Anything, existing.UserID).Return(model.StampCard{}, repository.ErrCardNotFound)
				m.On("Insert", mock.Anything, model.NewStampCard(existing.UserID)).Return(nil)
			},
			want: model.NewStampCard(existing.UserID),
		},
		{
			name: "creation race returns stored card",
			setupMock: func(m *MockCardRepository) {
				m.On("FindByUserID", mock.Anything, existing.UserID).Return(model.StampCard{}, repository.ErrCardNotFound).Once()
				m.On("Insert", mock.Anything, model.NewStampCard(existing.UserID)).Return(repository.ErrCardExists)
				m.On("FindByUserID", mock.Anything, existing.UserID).Return(existing, nil).Once()
			},
			want: existing,
		},
		{
			name: "find failure",
			setupMock: func(m *MockCardRepository) {
				m.On("FindByUserID", mock.Anything, existing.UserID).Return(model.StampCard{}, storeFailure)
			},
			wantErr: model.ErrStore,
		},
		{
			name: "insert failure",
			setupMock: func(m *MockCardRepository) {
				m.On("FindByUserID", mock.Anything, existing.UserID).Return(model.StampCard{}, repository.ErrCardNotFound)
				m.On("Insert", mock.Anything, mock.Anything).Return(storeFailure)
			},
			wantErr: model.ErrStore,
		},
		{
			name: "stored card over capacity",
			setupMock: func(m *MockCardRepository) {
				m.On("FindByUserID", mock.Anything, existing.UserID).
					Return(model.StampCard{UserID: existing.UserID, Stamps: 11, Capacity: 10}, nil)
			},
			wantErr: model.ErrInvariantViolation,
		},
		{
			name: "stored card with negative stamps",
			setupMock: func(m *MockCardRepository) {
				m.On("FindByUserID", mock.Anything, existing.UserID).
					Return(model.StampCard{UserID: existing.UserID, Stamps: -1, Capacity: 10}, nil)
			},
			wantErr: model.ErrInvariantViolation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockCardRepository)
			tt.setupMock(repo)
			svc := NewCardService(repo, CardServiceOptions{}, zerolog.Nop())

			card, err := svc.GetOrCreate(context.Background(), existing.UserID)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, model.StampCard{}, card)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, card)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestCardService_StoreErrorKeepsCause(t *testing.T) {
	repo := new(MockCardRepository)
	repo.On("FindByUserID", mock.Anything, model.UserID("07700900001")).
		Return(model.StampCard{}, context.DeadlineExceeded)
	svc := NewCardService(repo, CardServiceOptions{}, zerolog.Nop())

	_, err := svc.GetOrCreate(context.Background(), "07700900001")

	assert.ErrorIs(t, err, model.ErrStore)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCardService_AppliesTimeout(t *testing.T) {
	hasDeadline := mock.MatchedBy(func(ctx context.Context) bool {
		deadline, ok := ctx.Deadline()
		return ok && time.Until(deadline) <= 250*time.Millisecond
	})

	repo := new(MockCardRepository)
	repo.On("FindByUserID", hasDeadline, model.UserID("07700900001")).Return(model.NewStampCard("07700900001"), nil)
	repo.On("Replace", hasDeadline, mock.Anything).Return(nil)
	svc := NewCardService(repo, CardServiceOptions{Timeout: 250 * time.Millisecond}, zerolog.Nop())

	_, err := svc.AddStamp(context.Background(), "07700900001")
	require.NoError(t, err)
	require.NoError(t, svc.Reset(context.Background(), "07700900001"))

	repo.AssertExpectations(t)
}

func TestCardService_AddStamp(t *testing.T) {
	t.Run("writes incremented card", func(t *testing.T) {
		repo := new(MockCardRepository)
		repo.On("FindByUserID", mock.Anything, model.UserID("07700900001")).
			Return(model.StampCard{UserID: "07700900001", Stamps: 2, Capacity: 10}, nil)
		repo.On("Replace", mock.Anything, model.StampCard{UserID: "07700900001", Stamps: 3, Capacity: 10}).Return(nil)
		svc := NewCardService(repo, CardServiceOptions{}, zerolog.Nop())

		card, err := svc.AddStamp(context.Background(), "07700900001")

		require.NoError(t, err)
		assert.Equal(t, 3, card.Stamps)
		repo.AssertExpectations(t)
	})

	t.Run("replace failure", func(t *testing.T) {
		repo := new(MockCardRepository)
		repo.On("FindByUserID", mock.Anything, model.UserID("07700900001")).
			Return(model.NewStampCard("07700900001"), nil)
		repo.On("Replace", mock.Anything, mock.Anything).Return(errors.New("write timeout"))
		svc := NewCardService(repo, CardServiceOptions{}, zerolog.Nop())

		_, err := svc.AddStamp(context.Background(), "07700900001")

		assert.ErrorIs(t, err, model.ErrStore)
	})

	t.Run("ten stamps fill the card and the eleventh is clamped", func(t *testing.T) {
		svc := newMemoryCardService()
		ctx := context.Background()

		var card model.StampCard
		var err error
		for i := 1; i <= 10; i++ {
			card, err = svc.AddStamp(ctx, "07700900001")
			require.NoError(t, err)
			assert.Equal(t, i, card.Stamps)
		}

		card, err = svc.AddStamp(ctx, "07700900001")
		require.NoError(t, err)
		assert.Equal(t, 10, card.Stamps)
		assert.True(t, card.IsFull())
	})
}

func TestCardService_AtomicIncrement(t *testing.T) {
	t.Run("uses stamper when enabled", func(t *testing.T) {
		repo := new(MockAtomicCardRepository)
		repo.On("IncrementStamps", mock.Anything, model.UserID("07700900001"), model.DefaultCardCapacity).
			Return(model.StampCard{UserID: "07700900001", Stamps: 1, Capacity: 10}, nil)
		svc := NewCardService(repo, CardServiceOptions{AtomicIncrement: true}, zerolog.Nop())

		card, err := svc.AddStamp(context.Background(), "07700900001")

		require.NoError(t, err)
		assert.Equal(t, 1, card.Stamps)
		repo.AssertExpectations(t)
		repo.AssertNotCalled(t, "Replace", mock.Anything, mock.Anything)
	})

	t.Run("ignored when disabled", func(t *testing.T) {
		repo := new(MockAtomicCardRepository)
		repo.On("FindByUserID", mock.Anything, model.UserID("07700900001")).Return(model.NewStampCard("07700900001"), nil)
		repo.On("Replace", mock.Anything, mock.Anything).Return(nil)
		svc := NewCardService(repo, CardServiceOptions{}, zerolog.Nop())

		_, err := svc.AddStamp(context.Background(), "07700900001")

		require.NoError(t, err)
		repo.AssertNotCalled(t, "IncrementStamps", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("stamper failure", func(t *testing.T) {
		repo := new(MockAtomicCardRepository)
		repo.On("IncrementStamps", mock.Anything, mock.Anything, mock.Anything).
			Return(model.StampCard{}, errors.New("script error"))
		svc := NewCardService(repo, CardServiceOptions{AtomicIncrement: true}, zerolog.Nop())

		_, err := svc.AddStamp(context.Background(), "07700900001")

		assert.ErrorIs(t, err, model.ErrStore)
	})

	t.Run("stamper result is checked", func(t *testing.T) {
		repo := new(MockAtomicCardRepository)
		repo.On("IncrementStamps", mock.Anything, mock.Anything, mock.Anything).
			Return(model.StampCard{UserID: "07700900001", Stamps: 12, Capacity: 10}, nil)
		svc := NewCardService(repo, CardServiceOptions{AtomicIncrement: true}, zerolog.Nop())

		_, err := svc.AddStamp(context.Background(), "07700900001")

		assert.ErrorIs(t, err, model.ErrInvariantViolation)
	})

	t.Run("memory backend clamps", func(t *testing.T) {
		svc := NewCardService(repository.NewMemoryCardRepository(zerolog.Nop()), CardServiceOptions{AtomicIncrement: true}, zerolog.Nop())

		var card model.StampCard
		var err error
		for i := 0; i < 15; i++ {
			card, err = svc.AddStamp(context.Background(), "07700900001")
			require.NoError(t, err)
		}
		assert.Equal(t, model.DefaultCardCapacity, card.Stamps)
	})
}

func TestCardService_Reset(t *testing.T) {
	ctx := context.Background()
	svc := newMemoryCardService()

	for i := 0; i < 4; i++ {
		_, err := svc.AddStamp(ctx, "07700900001")
		require.NoError(t, err)
	}

	require.NoError(t, svc.Reset(ctx, "07700900001"))
	card, err := svc.GetOrCreate(ctx, "07700900001")
	require.NoError(t, err)
	assert.Equal(t, 0, card.Stamps)

	require.NoError(t, svc.Reset(ctx, "07700900001"))
	card, err = svc.GetOrCreate(ctx, "07700900001")
	require.NoError(t, err)
	assert.Equal(t, 0, card.Stamps)

	// Reset of an unknown customer creates the card.
	require.NoError(t, svc.Reset(ctx, "07700900002"))
	card, err = svc.GetOrCreate(ctx, "07700900002")
	require.NoError(t, err)
	assert.Equal(t, model.NewStampCard("07700900002"), card)
}

func TestCardService_ResetFailure(t *testing.T) {
	repo := new(MockCardRepository)
	repo.On("Replace", mock.Anything, model.NewStampCard("07700900001")).Return(errors.New("disk full"))
	svc := NewCardService(repo, CardServiceOptions{}, zerolog.Nop())

	err := svc.Reset(context.Background(), "07700900001")

	assert.ErrorIs(t, err, model.ErrStore)
}

func TestCardService_ConcurrentGetOrCreate(t *testing.T) {
	repo := repository.NewMemoryCardRepository(zerolog.Nop())
	svc := NewCardService(repo, CardServiceOptions{}, zerolog.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			card, err := svc.GetOrCreate(context.Background(), "07700900001")
			assert.NoError(t, err)
			assert.Equal(t, 0, card.Stamps)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, repo.Len())
}
