package repository

import (
	"context"
	"errors"
	"fmt"

	"twiin-backend/internal/apperr"
	"twiin-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, name, email, password_hash, avatar_key, profile_bio,
	total_points, selected_challenge_id, push_token, created_at`

// UserRepository handles database operations for users
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.AvatarKey,
		&user.ProfileBio, &user.TotalPoints, &user.SelectedChallengeID,
		&user.PushToken, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &user, nil
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, name, email, password_hash, profile_bio, total_points, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash,
		user.ProfileBio, user.TotalPoints, user.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperr.ErrEmailTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRow(ctx, query, email))
}

// UpdateProfile updates a user's display name and bio
func (r *UserRepository) UpdateProfile(ctx context.Context, userID, name, bio string) error {
	query := `UPDATE users SET name = $1, profile_bio = $2 WHERE id = $3`
	result, err := r.db.Exec(ctx, query, name, bio, userID)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.ErrUserNotFound
	}
	return nil
}

// UpdateAvatarKey updates the storage key of a user's avatar
func (r *UserRepository) UpdateAvatarKey(ctx context.Context, userID, avatarKey string) error {
	query := `UPDATE users SET avatar_key = $1 WHERE id = $2`
	result, err := r.db.Exec(ctx, query, avatarKey, userID)
	if err != nil {
		return fmt.Errorf("failed to update avatar key: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.ErrUserNotFound
	}
	return nil
}

// UpdateSelectedChallenge overwrites the user's current challenge vote.
// Writing the same id twice is a no-op at the row level.
func (r *UserRepository) UpdateSelectedChallenge(ctx context.Context, userID string, challengeID *string) error {
	query := `UPDATE users SET selected_challenge_id = $1 WHERE id = $2`
	result, err := r.db.Exec(ctx, query, challengeID, userID)
	if err != nil {
		return fmt.Errorf("failed to update selected challenge: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.ErrUserNotFound
	}
	return nil
}

// UpdatePushToken updates the push token for a user
func (r *UserRepository) UpdatePushToken(ctx context.Context, userID string, pushToken *string) error {
	query := `UPDATE users SET push_token = $1 WHERE id = $2`
	_, err := r.db.Exec(ctx, query, pushToken, userID)
	if err != nil {
		return fmt.Errorf("failed to update push token: %w", err)
	}
	return nil
}

// ListByPoints retrieves all users ordered by point total descending,
// ties broken by user id ascending so ranks are stable.
func (r *UserRepository) ListByPoints(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY total_points DESC, id ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}
