package repository

import (
	"context"
	"fmt"

	"twiin-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ReactionRepository handles database operations for feed reactions
type ReactionRepository struct {
	db *pgxpool.Pool
}

// NewReactionRepository creates a new reaction repository
func NewReactionRepository(db *pgxpool.Pool) *ReactionRepository {
	return &ReactionRepository{db: db}
}

// Upsert writes a user's reaction as a single atomic statement. The
// (submission_id, user_id) primary key guarantees one reaction per user per
// submission; picking a new emoji overwrites the previous one.
func (r *ReactionRepository) Upsert(ctx context.Context, reaction *models.Reaction) error {
	query := `
		INSERT INTO feed_reactions (submission_id, user_id, emoji_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (submission_id, user_id) DO UPDATE SET
			emoji_id = EXCLUDED.emoji_id,
			created_at = EXCLUDED.created_at
	`
	_, err := r.db.Exec(ctx, query,
		reaction.SubmissionID, reaction.UserID, reaction.EmojiID, reaction.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert reaction: %w", err)
	}
	return nil
}

// ListBySubmission retrieves all reactions to a submission joined with the
// reactor's display name
func (r *ReactionRepository) ListBySubmission(ctx context.Context, submissionID string) ([]*models.Reaction, error) {
	query := `
		SELECT fr.submission_id, fr.user_id, u.name, fr.emoji_id, fr.created_at
		FROM feed_reactions fr
		JOIN users u ON u.id = fr.user_id
		WHERE fr.submission_id = $1
		ORDER BY fr.created_at ASC
	`
	rows, err := r.db.Query(ctx, query, submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reactions: %w", err)
	}
	defer rows.Close()

	var reactions []*models.Reaction
	for rows.Next() {
		var reaction models.Reaction
		err := rows.Scan(
			&reaction.SubmissionID, &reaction.UserID, &reaction.UserName,
			&reaction.EmojiID, &reaction.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reaction: %w", err)
		}
		reactions = append(reactions, &reaction)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reactions: %w", err)
	}
	return reactions, nil
}
