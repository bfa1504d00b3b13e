package services

import (
	"context"
	"time"

	"twiin-backend/internal/models"
)

// RoundService resolves the active challenge round
type RoundService struct {
	roundStore RoundStore
	now        func() time.Time
}

// NewRoundService creates a new round service
func NewRoundService(roundStore RoundStore) *RoundService {
	return &RoundService{
		roundStore: roundStore,
		now:        time.Now,
	}
}

// Current returns the round covering the current wall-clock time.
// Returns apperr.ErrNoActiveRound when no round is configured for now,
// which callers must treat differently from a fetch failure.
func (s *RoundService) Current(ctx context.Context) (*models.ChallengeRound, error) {
	return s.roundStore.ActiveAt(ctx, s.now())
}
