package services

import (
	"context"
	"fmt"

	"twiin-backend/internal/models"
)

// MatchService resolves a user's twiin for a round. Matching itself happens
// outside the server; this only reads the seeded pairings.
type MatchService struct {
	matchStore MatchStore
	userStore  UserStore
}

// NewMatchService creates a new match service
func NewMatchService(matchStore MatchStore, userStore UserStore) *MatchService {
	return &MatchService{
		matchStore: matchStore,
		userStore:  userStore,
	}
}

// PartnerID returns the id of the user's twiin for the round.
// Returns apperr.ErrNoMatch when no pairing exists.
func (s *MatchService) PartnerID(ctx context.Context, roundID, userID string) (string, error) {
	match, err := s.matchStore.GetByRoundAndUser(ctx, roundID, userID)
	if err != nil {
		return "", err
	}
	partnerID := match.PartnerOf(userID)
	if partnerID == "" {
		return "", fmt.Errorf("match %s does not reference user %s", match.ID, userID)
	}
	return partnerID, nil
}

// Partner returns the public profile of the user's twiin for the round,
// including their current challenge selection.
func (s *MatchService) Partner(ctx context.Context, roundID, userID string) (*models.PublicProfile, error) {
	partnerID, err := s.PartnerID(ctx, roundID, userID)
	if err != nil {
		return nil, err
	}
	partner, err := s.userStore.GetByID(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	return partner.Public(), nil
}
