package repository

import (
	"context"
	"errors"
	"fmt"

	"twiin-backend/internal/apperr"
	"twiin-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MatchRepository handles database operations for matches.
// Matches are seeded by an administrative process; the server only reads them.
type MatchRepository struct {
	db *pgxpool.Pool
}

// NewMatchRepository creates a new match repository
func NewMatchRepository(db *pgxpool.Pool) *MatchRepository {
	return &MatchRepository{db: db}
}

// GetByRoundAndUser retrieves the match referencing the user on either side
func (r *MatchRepository) GetByRoundAndUser(ctx context.Context, roundID, userID string) (*models.Match, error) {
	query := `
		SELECT id, round_id, user_a, user_b, created_at
		FROM matches
		WHERE round_id = $1 AND (user_a = $2 OR user_b = $2)
		LIMIT 1
	`
	var match models.Match
	err := r.db.QueryRow(ctx, query, roundID, userID).Scan(
		&match.ID, &match.RoundID, &match.UserAID, &match.UserBID, &match.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNoMatch
		}
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return &match, nil
}
