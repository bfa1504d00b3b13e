package services

import (
	"context"
	"encoding/json"
	"time"

	"twiin-backend/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const leaderboardCacheKey = "twiin:leaderboard"

// LeaderboardEntry is one ranked row of the standings
type LeaderboardEntry struct {
	Rank      int     `json:"rank"`
	UserID    string  `json:"user_id"`
	Name      string  `json:"name"`
	AvatarKey *string `json:"avatar_key,omitempty"`
	Points    int     `json:"points"`
}

// LeaderboardService ranks users by point total. Standings are cached in
// Redis with a short TTL and dropped whenever a submission credits points;
// Postgres stays the source of truth.
type LeaderboardService struct {
	userStore UserStore
	rdb       *redis.Client
	ttl       time.Duration
}

// NewLeaderboardService creates a new leaderboard service. rdb may be nil,
// in which case every read hits the database.
func NewLeaderboardService(userStore UserStore, rdb *redis.Client, ttl time.Duration) *LeaderboardService {
	return &LeaderboardService{
		userStore: userStore,
		rdb:       rdb,
		ttl:       ttl,
	}
}

// Top returns the full standings, points descending, ties broken by user id
func (s *LeaderboardService) Top(ctx context.Context) ([]LeaderboardEntry, error) {
	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, leaderboardCacheKey).Bytes()
		if err == nil {
			var entries []LeaderboardEntry
			if err := json.Unmarshal(cached, &entries); err == nil {
				return entries, nil
			}
		} else if err != redis.Nil {
			log.Warn().Err(err).Msg("Leaderboard cache read failed")
		}
	}

	users, err := s.userStore.ListByPoints(ctx)
	if err != nil {
		return nil, err
	}
	entries := rankUsers(users)

	if s.rdb != nil {
		if data, err := json.Marshal(entries); err == nil {
			if err := s.rdb.Set(ctx, leaderboardCacheKey, data, s.ttl).Err(); err != nil {
				log.Warn().Err(err).Msg("Leaderboard cache write failed")
			}
		}
	}
	return entries, nil
}

// Invalidate drops the cached standings
func (s *LeaderboardService) Invalidate(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, leaderboardCacheKey).Err(); err != nil {
		log.Warn().Err(err).Msg("Leaderboard cache invalidation failed")
	}
}

// rankUsers assigns rank = 1-based position in the already ordered list
func rankUsers(users []*models.User) []LeaderboardEntry {
	entries := make([]LeaderboardEntry, 0, len(users))
	for i, u := range users {
		entries = append(entries, LeaderboardEntry{
			Rank:      i + 1,
			UserID:    u.ID,
			Name:      u.Name,
			AvatarKey: u.AvatarKey,
			Points:    u.TotalPoints,
		})
	}
	return entries
}
