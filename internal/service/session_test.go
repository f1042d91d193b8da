package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"staybook/internal/domain"
	"staybook/internal/flow"
	"staybook/internal/models"
	"staybook/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockFlowRepository struct {
	mock.Mock
}

func (m *MockFlowRepository) GetFlow(ctx context.Context, flowID string) (*flow.Flow, error) {
	args := m.Called(ctx, flowID)
	if v := args.Get(0); v != nil {
		return v.(*flow.Flow), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockFlowRepository) SaveFlow(ctx context.Context, f *flow.Flow) error {
	return m.Called(ctx, f).Error(0)
}

func (m *MockFlowRepository) DeleteFlow(ctx context.Context, flowID string) error {
	return m.Called(ctx, flowID).Error(0)
}

func TestSessionService_RedisLifetime(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	logger := zerolog.Nop()
	sessions := NewSessionService(repository.NewRedisFlowRepository(client, 30*time.Minute), &logger)
	ctx := context.Background()

	f, err := sessions.Begin(ctx, models.BookingDraft{HotelID: "h1", RoomType: "deluxe", BasePrice: 2500, GuestCount: 1})
	require.NoError(t, err)
	assert.NotEmpty(t, f.ID)
	assert.Equal(t, flow.StateSelecting, f.State)

	got, err := sessions.Get(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, "h1", got.Draft.HotelID)

	t.Run("AbandonmentTimeout", func(t *testing.T) {
		s.FastForward(31 * time.Minute)
		_, err := sessions.Get(ctx, f.ID)
		assert.ErrorIs(t, err, domain.ErrFlowNotFound)
	})

	t.Run("End", func(t *testing.T) {
		f2, err := sessions.Begin(ctx, models.BookingDraft{HotelID: "h2"})
		require.NoError(t, err)
		require.NoError(t, sessions.End(ctx, f2.ID))
		_, err = sessions.Get(ctx, f2.ID)
		assert.ErrorIs(t, err, domain.ErrFlowNotFound)
	})
}

func TestSessionService_Errors(t *testing.T) {
	mockRepo := new(MockFlowRepository)
	logger := zerolog.Nop()
	sessions := NewSessionService(mockRepo, &logger)
	ctx := context.Background()

	t.Run("EmptyID", func(t *testing.T) {
		_, err := sessions.Get(ctx, "  ")
		assert.ErrorIs(t, err, domain.ErrFlowNotFound)
		mockRepo.AssertNotCalled(t, "GetFlow", mock.Anything, mock.Anything)
	})

	t.Run("StoreError", func(t *testing.T) {
		mockRepo.On("GetFlow", ctx, "f1").Return(nil, errors.New("redis down")).Once()
		_, err := sessions.Get(ctx, "f1")
		assert.EqualError(t, err, "redis down")
	})

	t.Run("BeginSaveError", func(t *testing.T) {
		mockRepo.On("SaveFlow", ctx, mock.AnythingOfType("*flow.Flow")).Return(errors.New("redis down")).Once()
		_, err := sessions.Begin(ctx, models.BookingDraft{})
		assert.Error(t, err)
	})
}

func TestSessionService_StampsFlowsWithItsClock(t *testing.T) {
	logger := zerolog.Nop()
	sessions := NewSessionService(repository.NewMemoryFlowRepository(time.Hour), &logger)
	now := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
	sessions.now = func() time.Time { return now }
	ctx := context.Background()

	f, err := sessions.Begin(ctx, models.BookingDraft{HotelID: "h1", RoomType: "deluxe", BasePrice: 2500, GuestCount: 1})
	require.NoError(t, err)
	assert.Equal(t, now, f.CreatedAt)

	now = now.Add(10 * time.Minute)
	got, err := sessions.Get(ctx, f.ID)
	require.NoError(t, err)
	require.NoError(t, got.SetGuestCount(2))
	assert.Equal(t, now, got.UpdatedAt)
	assert.True(t, got.CreatedAt.Equal(f.CreatedAt))
}
