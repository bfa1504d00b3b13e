package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"twiin-backend/internal/apperr"
	"twiin-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// LeaderboardInvalidator drops cached standings after a point credit
type LeaderboardInvalidator interface {
	Invalidate(ctx context.Context)
}

// SubmitInput carries one submission attempt
type SubmitInput struct {
	UserID      string
	ChallengeID string
	Media       io.Reader
	ContentType string
	PostToFeed  bool
}

// SubmitResult reports the outcome of a successful submission
type SubmitResult struct {
	Submission    *models.Submission `json:"submission"`
	PartnerID     string             `json:"partner_id"`
	PointsAwarded int                `json:"points_awarded"`
	TotalPoints   int                `json:"total_points"`
}

// SubmissionService runs the two-phase submission pipeline
type SubmissionService struct {
	submissionStore SubmissionStore
	challengeStore  ChallengeStore
	userStore       UserStore
	matches         *MatchService
	media           MediaStore
	bucket          string
	leaderboard     LeaderboardInvalidator
}

// NewSubmissionService creates a new submission service
func NewSubmissionService(
	submissionStore SubmissionStore,
	challengeStore ChallengeStore,
	userStore UserStore,
	matches *MatchService,
	media MediaStore,
	bucket string,
	leaderboard LeaderboardInvalidator,
) *SubmissionService {
	return &SubmissionService{
		submissionStore: submissionStore,
		challengeStore:  challengeStore,
		userStore:       userStore,
		matches:         matches,
		media:           media,
		bucket:          bucket,
		leaderboard:     leaderboard,
	}
}

// Submit runs one submission attempt in two phases: a pending row is
// upserted first, the media object is uploaded under a fresh key, then a
// single transaction completes the row and credits points. A failure between
// the phases leaves a pending row for the reaper and never a partial point
// credit. Resubmitting the same (user, partner, challenge) triple overwrites
// the earlier row and does not credit again.
func (s *SubmissionService) Submit(ctx context.Context, in SubmitInput) (*SubmitResult, error) {
	if in.Media == nil || !validMediaType(in.ContentType) {
		return nil, fmt.Errorf("%w: media payload with an image or video content type is required", apperr.ErrInvalidMedia)
	}

	challenge, err := s.challengeStore.GetByID(ctx, in.ChallengeID)
	if err != nil {
		return nil, err
	}

	partnerID, err := s.matches.PartnerID(ctx, challenge.RoundID, in.UserID)
	if err != nil {
		return nil, err
	}

	// Both sides must have voted for this same challenge.
	user, err := s.userStore.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	partner, err := s.userStore.GetByID(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	if !selectionsAgree(user.SelectedChallengeID, partner.SelectedChallengeID, in.ChallengeID) {
		return nil, apperr.ErrNotAgreed
	}

	now := time.Now()
	mediaKey := fmt.Sprintf("%s/%s-%s-%d.%s",
		in.UserID, partnerID, in.ChallengeID, now.UnixMilli(), extForContentType(in.ContentType))

	sub := &models.Submission{
		ID:          uuid.New().String(),
		ChallengeID: in.ChallengeID,
		RoundID:     challenge.RoundID,
		UserID:      in.UserID,
		PartnerID:   partnerID,
		MediaKey:    mediaKey,
		ContentType: in.ContentType,
		Status:      models.SubmissionPending,
		PostToFeed:  in.PostToFeed,
		SubmittedAt: now,
	}

	subID, prevKey, err := s.submissionStore.UpsertPending(ctx, sub)
	if err != nil {
		return nil, err
	}

	if err := s.media.Upload(ctx, s.bucket, mediaKey, in.Media, in.ContentType); err != nil {
		// The pending row is left behind on purpose; the reaper sweeps it.
		return nil, err
	}

	awarded, err := s.submissionStore.Complete(ctx, subID, challenge.PointValue)
	if err != nil {
		return nil, err
	}

	if awarded && s.leaderboard != nil {
		s.leaderboard.Invalidate(ctx)
	}

	// The replaced object is unreachable once the row points at the new key.
	if prevKey != nil && *prevKey != mediaKey {
		if err := s.media.Delete(ctx, s.bucket, *prevKey); err != nil {
			log.Warn().Err(err).Str("media_key", *prevKey).Msg("Failed to delete replaced media")
		}
	}

	final, err := s.submissionStore.GetByID(ctx, subID)
	if err != nil {
		return nil, err
	}
	creditedUser, err := s.userStore.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	result := &SubmitResult{
		Submission:  final,
		PartnerID:   partnerID,
		TotalPoints: creditedUser.TotalPoints,
	}
	if awarded {
		result.PointsAwarded = challenge.PointValue
	}
	return result, nil
}

// History returns the user's completed submissions, newest first
func (s *SubmissionService) History(ctx context.Context, userID string) ([]*models.Submission, error) {
	return s.submissionStore.ListByUser(ctx, userID)
}

// MediaURL resolves a presigned link for a submission's media
func (s *SubmissionService) MediaURL(ctx context.Context, sub *models.Submission) (string, error) {
	return s.media.DownloadURL(ctx, s.bucket, sub.MediaKey)
}

func validMediaType(contentType string) bool {
	return strings.HasPrefix(contentType, "image/") || strings.HasPrefix(contentType, "video/")
}

func selectionsAgree(mine, theirs *string, challengeID string) bool {
	return mine != nil && theirs != nil && *mine == challengeID && *theirs == challengeID
}
