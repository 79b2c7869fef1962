package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"boulderbot/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) GetSession(ctx context.Context, userID int64) (*models.Session, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockSessionRepository) SetSession(ctx context.Context, session *models.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) ClearSession(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockSessionRepository) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, userID, limit, window)
	return args.Bool(0), args.Error(1)
}

func TestSessionService_GetSession(t *testing.T) {
	mockRepo := new(MockSessionRepository)
	logger := zerolog.Nop()
	s := NewSessionService(mockRepo, &logger)
	ctx := context.Background()
	userID := int64(123)

	t.Run("Success", func(t *testing.T) {
		expected := &models.Session{UserID: userID, State: models.StateAwaitingDate}
		mockRepo.On("GetSession", ctx, userID).Return(expected, nil).Once()

		session, err := s.GetSession(ctx, userID)
		assert.NoError(t, err)
		assert.Equal(t, expected, session)
	})

	t.Run("Missing", func(t *testing.T) {
		mockRepo.On("GetSession", ctx, userID).Return(nil, nil).Once()

		session, err := s.GetSession(ctx, userID)
		assert.NoError(t, err)
		assert.Nil(t, session)
	})

	t.Run("Error", func(t *testing.T) {
		mockRepo.On("GetSession", ctx, userID).Return(nil, errors.New("redis error")).Once()

		session, err := s.GetSession(ctx, userID)
		assert.Error(t, err)
		assert.Nil(t, session)
	})
}

func TestSessionService_SaveSession(t *testing.T) {
	mockRepo := new(MockSessionRepository)
	logger := zerolog.Nop()
	s := NewSessionService(mockRepo, &logger)
	fixed := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }
	ctx := context.Background()

	t.Run("StampsUpdatedAt", func(t *testing.T) {
		mockRepo.On("SetSession", ctx, mock.MatchedBy(func(session *models.Session) bool {
			return session.UserID == 1 && session.UpdatedAt.Equal(fixed)
		})).Return(nil).Once()

		err := s.SaveSession(ctx, &models.Session{UserID: 1, State: models.StateAwaitingSlot})
		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("RepoError", func(t *testing.T) {
		mockRepo.On("SetSession", ctx, mock.Anything).Return(errors.New("fail")).Once()

		err := s.SaveSession(ctx, &models.Session{UserID: 2})
		assert.Error(t, err)
	})

	t.Run("Nil", func(t *testing.T) {
		assert.Error(t, s.SaveSession(ctx, nil))
	})
}

func TestSessionService_ClearAndRateLimit(t *testing.T) {
	mockRepo := new(MockSessionRepository)
	logger := zerolog.Nop()
	s := NewSessionService(mockRepo, &logger)
	ctx := context.Background()
	userID := int64(123)

	mockRepo.On("ClearSession", ctx, userID).Return(nil).Once()
	assert.NoError(t, s.ClearSession(ctx, userID))

	mockRepo.On("CheckRateLimit", ctx, userID, 5, time.Minute).Return(true, nil).Once()
	allowed, err := s.CheckRateLimit(ctx, userID, 5, time.Minute)
	assert.NoError(t, err)
	assert.True(t, allowed)

	mockRepo.AssertExpectations(t)
}
