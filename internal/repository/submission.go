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

// SubmissionRepository handles database operations for submissions
type SubmissionRepository struct {
	db *pgxpool.Pool
}

// NewSubmissionRepository creates a new submission repository
func NewSubmissionRepository(db *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// UpsertPending writes the pending phase of a submission as a single atomic
// statement. The unique (user_id, partner_id, challenge_id) constraint
// guarantees one row per triple; a resubmission overwrites the media key,
// content type, feed flag and timestamp. Returns the row id and the media
// key it replaced, if any, so the caller can clean up the old object.
func (r *SubmissionRepository) UpsertPending(ctx context.Context, sub *models.Submission) (string, *string, error) {
	query := `
		WITH previous AS (
			SELECT media_key FROM submissions
			WHERE user_id = $4 AND partner_id = $5 AND challenge_id = $2
		)
		INSERT INTO submissions
			(id, challenge_id, round_id, user_id, partner_id, media_key,
			 content_type, status, post_to_feed, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'pending', $8, $9)
		ON CONFLICT (user_id, partner_id, challenge_id) DO UPDATE SET
			media_key = EXCLUDED.media_key,
			content_type = EXCLUDED.content_type,
			status = 'pending',
			post_to_feed = EXCLUDED.post_to_feed,
			submitted_at = EXCLUDED.submitted_at
		RETURNING id, (SELECT media_key FROM previous)
	`
	var id string
	var prevKey *string
	err := r.db.QueryRow(ctx, query,
		sub.ID, sub.ChallengeID, sub.RoundID, sub.UserID, sub.PartnerID,
		sub.MediaKey, sub.ContentType, sub.PostToFeed, sub.SubmittedAt,
	).Scan(&id, &prevKey)
	if err != nil {
		return "", nil, fmt.Errorf("failed to upsert pending submission: %w", err)
	}
	return id, prevKey, nil
}

// Complete finalizes a submission and credits points in one transaction.
// Points are credited only the first time the triple completes; the
// points_awarded flag is flipped inside the same transaction so a retry or
// resubmission can never double-credit. Returns whether points were awarded.
func (r *SubmissionRepository) Complete(ctx context.Context, submissionID string, points int) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var userID string
	var alreadyAwarded bool
	err = tx.QueryRow(ctx, `
		UPDATE submissions SET status = 'completed'
		WHERE id = $1
		RETURNING user_id, points_awarded
	`, submissionID).Scan(&userID, &alreadyAwarded)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, apperr.ErrSubmissionNotFound
		}
		return false, fmt.Errorf("failed to complete submission: %w", err)
	}

	awarded := false
	if !alreadyAwarded {
		_, err = tx.Exec(ctx, `UPDATE submissions SET points_awarded = TRUE WHERE id = $1`, submissionID)
		if err != nil {
			return false, fmt.Errorf("failed to mark points awarded: %w", err)
		}
		_, err = tx.Exec(ctx, `UPDATE users SET total_points = total_points + $1 WHERE id = $2`, points, userID)
		if err != nil {
			return false, fmt.Errorf("failed to credit points: %w", err)
		}
		awarded = true
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit submission: %w", err)
	}
	return awarded, nil
}

// GetByID retrieves a submission by ID
func (r *SubmissionRepository) GetByID(ctx context.Context, id string) (*models.Submission, error) {
	query := `
		SELECT id, challenge_id, round_id, user_id, partner_id, media_key,
			content_type, status, points_awarded, post_to_feed, submitted_at
		FROM submissions
		WHERE id = $1
	`
	var sub models.Submission
	err := r.db.QueryRow(ctx, query, id).Scan(
		&sub.ID, &sub.ChallengeID, &sub.RoundID, &sub.UserID, &sub.PartnerID,
		&sub.MediaKey, &sub.ContentType, &sub.Status, &sub.PointsAwarded,
		&sub.PostToFeed, &sub.SubmittedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return &sub, nil
}

// HasCompleted reports whether the user has a completed submission for the
// challenge.
func (r *SubmissionRepository) HasCompleted(ctx context.Context, userID, challengeID string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM submissions
			WHERE user_id = $1 AND challenge_id = $2 AND status = 'completed'
		)
	`
	var exists bool
	if err := r.db.QueryRow(ctx, query, userID, challengeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check completed submission: %w", err)
	}
	return exists, nil
}

// ListFeed retrieves completed submissions newest first, joined with the
// submitter name, partner name and challenge summary. When feedOnly is set,
// only submissions flagged for the feed are returned.
func (r *SubmissionRepository) ListFeed(ctx context.Context, feedOnly bool, limit, offset int) ([]*models.FeedEntry, error) {
	query := `
		SELECT s.id, s.challenge_id, s.round_id, s.user_id, s.partner_id,
			s.media_key, s.content_type, s.status, s.points_awarded,
			s.post_to_feed, s.submitted_at,
			u.name, p.name, c.short_desc, c.difficulty
		FROM submissions s
		JOIN users u ON u.id = s.user_id
		JOIN users p ON p.id = s.partner_id
		JOIN challenges c ON c.id = s.challenge_id
		WHERE s.status = 'completed' AND ($1 = FALSE OR s.post_to_feed = TRUE)
		ORDER BY s.submitted_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, feedOnly, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list feed submissions: %w", err)
	}
	defer rows.Close()

	var entries []*models.FeedEntry
	for rows.Next() {
		var e models.FeedEntry
		err := rows.Scan(
			&e.Submission.ID, &e.Submission.ChallengeID, &e.Submission.RoundID,
			&e.Submission.UserID, &e.Submission.PartnerID, &e.Submission.MediaKey,
			&e.Submission.ContentType, &e.Submission.Status, &e.Submission.PointsAwarded,
			&e.Submission.PostToFeed, &e.Submission.SubmittedAt,
			&e.SubmitterName, &e.PartnerName, &e.ChallengeDesc, &e.Difficulty,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feed entry: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feed entries: %w", err)
	}
	return entries, nil
}

// ListByUser retrieves a user's completed submissions, newest first, where
// the user is on either side of the pair.
func (r *SubmissionRepository) ListByUser(ctx context.Context, userID string) ([]*models.Submission, error) {
	query := `
		SELECT id, challenge_id, round_id, user_id, partner_id, media_key,
			content_type, status, points_awarded, post_to_feed, submitted_at
		FROM submissions
		WHERE (user_id = $1 OR partner_id = $1) AND status = 'completed'
		ORDER BY submitted_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user submissions: %w", err)
	}
	defer rows.Close()

	var subs []*models.Submission
	for rows.Next() {
		var sub models.Submission
		err := rows.Scan(
			&sub.ID, &sub.ChallengeID, &sub.RoundID, &sub.UserID, &sub.PartnerID,
			&sub.MediaKey, &sub.ContentType, &sub.Status, &sub.PointsAwarded,
			&sub.PostToFeed, &sub.SubmittedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		subs = append(subs, &sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating submissions: %w", err)
	}
	return subs, nil
}

// ListStalePending retrieves pending submissions older than the cutoff
func (r *SubmissionRepository) ListStalePending(ctx context.Context, cutoff time.Time) ([]*models.Submission, error) {
	query := `
		SELECT id, challenge_id, round_id, user_id, partner_id, media_key,
			content_type, status, points_awarded, post_to_feed, submitted_at
		FROM submissions
		WHERE status = 'pending' AND submitted_at < $1
	`
	rows, err := r.db.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale pending submissions: %w", err)
	}
	defer rows.Close()

	var subs []*models.Submission
	for rows.Next() {
		var sub models.Submission
		err := rows.Scan(
			&sub.ID, &sub.ChallengeID, &sub.RoundID, &sub.UserID, &sub.PartnerID,
			&sub.MediaKey, &sub.ContentType, &sub.Status, &sub.PointsAwarded,
			&sub.PostToFeed, &sub.SubmittedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		subs = append(subs, &sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating submissions: %w", err)
	}
	return subs, nil
}

// DeletePending removes a submission only while it is still pending, so the
// reaper cannot race a completion that landed in between.
func (r *SubmissionRepository) DeletePending(ctx context.Context, id string) (bool, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM submissions WHERE id = $1 AND status = 'pending'`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete pending submission: %w", err)
	}
	return result.RowsAffected() > 0, nil
}
