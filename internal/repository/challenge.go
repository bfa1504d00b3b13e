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

// ChallengeRepository handles database operations for challenges
type ChallengeRepository struct {
	db *pgxpool.Pool
}

// NewChallengeRepository creates a new challenge repository
func NewChallengeRepository(db *pgxpool.Pool) *ChallengeRepository {
	return &ChallengeRepository{db: db}
}

// GetByID retrieves a challenge by ID
func (r *ChallengeRepository) GetByID(ctx context.Context, id string) (*models.Challenge, error) {
	query := `
		SELECT id, short_desc, full_desc, difficulty, point_value, round_id
		FROM challenges
		WHERE id = $1
	`
	var c models.Challenge
	err := r.db.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.ShortDesc, &c.FullDesc, &c.Difficulty, &c.PointValue, &c.RoundID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrChallengeNotFound
		}
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}
	return &c, nil
}

// ListByRound retrieves all challenges scoped to a round, ordered by id
// so grouping is stable across fetches.
func (r *ChallengeRepository) ListByRound(ctx context.Context, roundID string) ([]*models.Challenge, error) {
	query := `
		SELECT id, short_desc, full_desc, difficulty, point_value, round_id
		FROM challenges
		WHERE round_id = $1
		ORDER BY id ASC
	`
	rows, err := r.db.Query(ctx, query, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}
	defer rows.Close()

	var challenges []*models.Challenge
	for rows.Next() {
		var c models.Challenge
		err := rows.Scan(&c.ID, &c.ShortDesc, &c.FullDesc, &c.Difficulty, &c.PointValue, &c.RoundID)
		if err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		challenges = append(challenges, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating challenges: %w", err)
	}
	return challenges, nil
}
