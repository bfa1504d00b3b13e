package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"twiin-backend/internal/apperr"
	"twiin-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RoundRepository handles database operations for challenge rounds
type RoundRepository struct {
	db *pgxpool.Pool
}

// NewRoundRepository creates a new round repository
func NewRoundRepository(db *pgxpool.Pool) *RoundRepository {
	return &RoundRepository{db: db}
}

// ActiveAt retrieves the round whose window covers the given time.
// Rounds are not supposed to overlap; if they do, the earliest one wins.
func (r *RoundRepository) ActiveAt(ctx context.Context, now time.Time) (*models.ChallengeRound, error) {
	query := `
		SELECT id, start_time, end_time
		FROM challenge_rounds
		WHERE start_time <= $1 AND end_time >= $1
		ORDER BY start_time ASC
		LIMIT 1
	`
	var round models.ChallengeRound
	err := r.db.QueryRow(ctx, query, now).Scan(&round.ID, &round.StartTime, &round.EndTime)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNoActiveRound
		}
		return nil, fmt.Errorf("failed to get active round: %w", err)
	}
	return &round, nil
}
