package services

import (
	"context"
	"io"
	"time"

	"twiin-backend/internal/models"
)

// Store interfaces consumed by the services. The repository package provides
// the Postgres implementations; tests substitute in-memory fakes.

// UserStore handles persistence of users
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID, name, bio string) error
	UpdateAvatarKey(ctx context.Context, userID, avatarKey string) error
	UpdateSelectedChallenge(ctx context.Context, userID string, challengeID *string) error
	UpdatePushToken(ctx context.Context, userID string, pushToken *string) error
	ListByPoints(ctx context.Context) ([]*models.User, error)
}

// RoundStore handles persistence of challenge rounds
type RoundStore interface {
	ActiveAt(ctx context.Context, now time.Time) (*models.ChallengeRound, error)
}

// ChallengeStore handles persistence of challenges
type ChallengeStore interface {
	GetByID(ctx context.Context, id string) (*models.Challenge, error)
	ListByRound(ctx context.Context, roundID string) ([]*models.Challenge, error)
}

// MatchStore handles persistence of matches
type MatchStore interface {
	GetByRoundAndUser(ctx context.Context, roundID, userID string) (*models.Match, error)
}

// SubmissionStore handles persistence of submissions
type SubmissionStore interface {
	UpsertPending(ctx context.Context, sub *models.Submission) (string, *string, error)
	Complete(ctx context.Context, submissionID string, points int) (bool, error)
	GetByID(ctx context.Context, id string) (*models.Submission, error)
	HasCompleted(ctx context.Context, userID, challengeID string) (bool, error)
	ListFeed(ctx context.Context, feedOnly bool, limit, offset int) ([]*models.FeedEntry, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Submission, error)
	ListStalePending(ctx context.Context, cutoff time.Time) ([]*models.Submission, error)
	DeletePending(ctx context.Context, id string) (bool, error)
}

// ReactionStore handles persistence of feed reactions
type ReactionStore interface {
	Upsert(ctx context.Context, reaction *models.Reaction) error
	ListBySubmission(ctx context.Context, submissionID string) ([]*models.Reaction, error)
}

// MediaStore handles object storage for avatars and submission media
type MediaStore interface {
	Upload(ctx context.Context, bucket, key string, body io.Reader, contentType string) error
	DownloadURL(ctx context.Context, bucket, key string) (string, error)
	Delete(ctx context.Context, bucket, key string) error
}
