package services

import (
	"context"
	"hash/fnv"

	"twiin-backend/internal/models"
)

// SelectionPolicy decides which challenge represents a difficulty tier
type SelectionPolicy string

const (
	// PolicyFirst picks the challenge with the lowest id per tier
	PolicyFirst SelectionPolicy = "first"

	// PolicySeeded picks a pseudo-random challenge per tier, seeded by the
	// round id. Every user in a round sees the same pick and re-fetches
	// never change it, so a user's and their twiin's candidates cannot
	// drift apart.
	PolicySeeded SelectionPolicy = "seeded"
)

// CatalogService groups a round's challenges by difficulty tier
type CatalogService struct {
	challengeStore ChallengeStore
	policy         SelectionPolicy
}

// NewCatalogService creates a new catalog service
func NewCatalogService(challengeStore ChallengeStore, policy SelectionPolicy) *CatalogService {
	if policy != PolicyFirst && policy != PolicySeeded {
		policy = PolicySeeded
	}
	return &CatalogService{
		challengeStore: challengeStore,
		policy:         policy,
	}
}

// Grouped returns one representative challenge per difficulty tier for the
// round. Tiers with no candidates are absent from the map.
func (s *CatalogService) Grouped(ctx context.Context, roundID string) (map[models.Difficulty]*models.Challenge, error) {
	challenges, err := s.challengeStore.ListByRound(ctx, roundID)
	if err != nil {
		return nil, err
	}

	groups := make(map[models.Difficulty][]*models.Challenge)
	for _, c := range challenges {
		if !c.Difficulty.Valid() {
			continue
		}
		groups[c.Difficulty] = append(groups[c.Difficulty], c)
	}

	picked := make(map[models.Difficulty]*models.Challenge, len(groups))
	for tier, group := range groups {
		picked[tier] = s.pick(roundID, tier, group)
	}
	return picked, nil
}

// pick relies on ListByRound ordering by id, so both policies are stable
// across fetches.
func (s *CatalogService) pick(roundID string, tier models.Difficulty, group []*models.Challenge) *models.Challenge {
	if len(group) == 0 {
		return nil
	}
	if s.policy == PolicyFirst {
		return group[0]
	}
	h := fnv.New32a()
	h.Write([]byte(roundID))
	h.Write([]byte(tier))
	return group[h.Sum32()%uint32(len(group))]
}
