package bans

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

type Repo interface {
	Ban(ctx context.Context, senderID string, at time.Time) error
	BannedSince(ctx context.Context, senderID string, since time.Time) (bool, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Service keeps a sliding ban window per sender. A sender is banned while
// their last ban is younger than the window.
type Service struct {
	repo   Repo
	window time.Duration
	logger *zap.Logger
	now    func() time.Time
}

func NewService(repo Repo, days int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:   repo,
		window: time.Duration(days) * 24 * time.Hour,
		logger: logger,
		now:    time.Now,
	}
}

func (s *Service) Window() time.Duration {
	return s.window
}

func (s *Service) IsBanned(ctx context.Context, senderID string) (bool, error) {
	senderID = strings.TrimSpace(senderID)
	if senderID == "" || s.window <= 0 {
		return false, nil
	}
	return s.repo.BannedSince(ctx, senderID, s.now().Add(-s.window))
}

func (s *Service) Ban(ctx context.Context, senderID string) error {
	if s.window <= 0 {
		return nil
	}
	if err := s.repo.Ban(ctx, senderID, s.now()); err != nil {
		return fmt.Errorf("ban sender %s: %w", senderID, err)
	}
	s.logger.Info("sender banned", zap.String("sender_id", senderID), zap.Duration("window", s.window))
	return nil
}

// PurgeExpired drops bans that no longer affect IsBanned.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	if s.window <= 0 {
		return 0, nil
	}
	return s.repo.DeleteOlderThan(ctx, s.now().Add(-s.window))
}
