package service

import (
	"context"
	"errors"
	"time"

	"boulderbot/internal/domain"
	"boulderbot/internal/models"

	"github.com/rs/zerolog"
)

type SessionService struct {
	repo   domain.SessionRepository
	logger *zerolog.Logger
	now    func() time.Time
}

func NewSessionService(repo domain.SessionRepository, logger *zerolog.Logger) *SessionService {
	return &SessionService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// GetSession returns nil when the user has no flow in progress.
func (s *SessionService) GetSession(ctx context.Context, userID int64) (*models.Session, error) {
	session, err := s.repo.GetSession(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to get session")
		return nil, err
	}

	return session, nil
}

func (s *SessionService) SaveSession(ctx context.Context, session *models.Session) error {
	if session == nil {
		return errors.New("session is nil")
	}
	session.UpdatedAt = s.now().UTC()
	if err := s.repo.SetSession(ctx, session); err != nil {
		s.logger.Error().Err(err).Int64("user_id", session.UserID).Msg("failed to save session")
		return err
	}
	return nil
}

func (s *SessionService) ClearSession(ctx context.Context, userID int64) error {
	return s.repo.ClearSession(ctx, userID)
}

func (s *SessionService) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	return s.repo.CheckRateLimit(ctx, userID, limit, window)
}
