package services

import (
	"context"
	"testing"
	"time"

	"twiin-backend/internal/apperr"
	"twiin-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingInvalidator struct {
	calls int
}

func (c *countingInvalidator) Invalidate(context.Context) { c.calls++ }

type submitFixture struct {
	users       *fakeUserStore
	submissions *fakeSubmissionStore
	media       *fakeMediaStore
	invalidator *countingInvalidator
	svc         *SubmissionService
}

// newSubmitFixture matches alice and bob in an active round with both
// already voted for the 100 point challenge. Alice starts at 250 points.
func newSubmitFixture(t *testing.T) *submitFixture {
	t.Helper()

	users := newFakeUserStore(
		&models.User{ID: "alice", Name: "Alice", TotalPoints: 250, SelectedChallengeID: strPtr("c1")},
		&models.User{ID: "bob", Name: "Bob", SelectedChallengeID: strPtr("c1")},
	)
	challenges := newFakeChallengeStore(
		&models.Challenge{ID: "c1", RoundID: "round-1", Difficulty: models.DifficultyMedium, PointValue: 100},
	)
	matches := NewMatchService(&fakeMatchStore{matches: []*models.Match{
		{ID: "m1", RoundID: "round-1", UserAID: "alice", UserBID: "bob"},
	}}, users)
	submissions := newFakeSubmissionStore(users, challenges)
	media := newFakeMediaStore()
	invalidator := &countingInvalidator{}

	return &submitFixture{
		users:       users,
		submissions: submissions,
		media:       media,
		invalidator: invalidator,
		svc: NewSubmissionService(submissions, challenges, users, matches,
			media, "submissions", invalidator),
	}
}

func (f *submitFixture) input() SubmitInput {
	return SubmitInput{
		UserID:      "alice",
		ChallengeID: "c1",
		Media:       mediaBody(),
		ContentType: "image/jpeg",
		PostToFeed:  true,
	}
}

func TestSubmitCreditsPointsOnce(t *testing.T) {
	f := newSubmitFixture(t)

	result, err := f.svc.Submit(context.Background(), f.input())
	require.NoError(t, err)

	assert.Equal(t, 100, result.PointsAwarded)
	assert.Equal(t, 350, result.TotalPoints)
	assert.Equal(t, "bob", result.PartnerID)
	assert.Equal(t, models.SubmissionCompleted, result.Submission.Status)
	assert.True(t, f.media.has("submissions", result.Submission.MediaKey))
	assert.Equal(t, 1, f.invalidator.calls)
}

func TestSubmitResubmissionOverwritesWithoutRecredit(t *testing.T) {
	f := newSubmitFixture(t)
	ctx := context.Background()

	first, err := f.svc.Submit(ctx, f.input())
	require.NoError(t, err)

	time.Sleep(2 * time.Millisecond) // fresh timestamp in the media key

	second, err := f.svc.Submit(ctx, f.input())
	require.NoError(t, err)

	// Same row, new media, no second credit.
	assert.Equal(t, first.Submission.ID, second.Submission.ID)
	assert.NotEqual(t, first.Submission.MediaKey, second.Submission.MediaKey)
	assert.Equal(t, 0, second.PointsAwarded)
	assert.Equal(t, 350, second.TotalPoints)

	// The replaced object is gone, the new one present.
	assert.False(t, f.media.has("submissions", first.Submission.MediaKey))
	assert.True(t, f.media.has("submissions", second.Submission.MediaKey))
	assert.Equal(t, 1, f.invalidator.calls)
}

func TestSubmitRequiresAgreement(t *testing.T) {
	f := newSubmitFixture(t)
	ctx := context.Background()

	require.NoError(t, f.users.UpdateSelectedChallenge(ctx, "bob", strPtr("other")))

	_, err := f.svc.Submit(ctx, f.input())
	assert.ErrorIs(t, err, apperr.ErrNotAgreed)

	require.NoError(t, f.users.UpdateSelectedChallenge(ctx, "bob", nil))
	_, err = f.svc.Submit(ctx, f.input())
	assert.ErrorIs(t, err, apperr.ErrNotAgreed)
}

func TestSubmitRejectsBadMedia(t *testing.T) {
	f := newSubmitFixture(t)

	in := f.input()
	in.ContentType = "application/pdf"
	_, err := f.svc.Submit(context.Background(), in)
	assert.ErrorIs(t, err, apperr.ErrInvalidMedia)

	in = f.input()
	in.Media = nil
	_, err = f.svc.Submit(context.Background(), in)
	assert.ErrorIs(t, err, apperr.ErrInvalidMedia)
}

func TestSubmitUnknownChallenge(t *testing.T) {
	f := newSubmitFixture(t)

	in := f.input()
	in.ChallengeID = "missing"
	_, err := f.svc.Submit(context.Background(), in)
	assert.ErrorIs(t, err, apperr.ErrChallengeNotFound)
}

func TestSubmitUnmatchedUser(t *testing.T) {
	f := newSubmitFixture(t)
	require.NoError(t, f.users.Create(context.Background(),
		&models.User{ID: "carol", Name: "Carol", Email: "carol@test.dev", SelectedChallengeID: strPtr("c1")}))

	in := f.input()
	in.UserID = "carol"
	_, err := f.svc.Submit(context.Background(), in)
	assert.ErrorIs(t, err, apperr.ErrNoMatch)
}

func TestSubmitUploadFailureLeavesPendingRowAndNoCredit(t *testing.T) {
	f := newSubmitFixture(t)
	ctx := context.Background()
	f.media.failUpload = true

	_, err := f.svc.Submit(ctx, f.input())
	require.ErrorIs(t, err, apperr.ErrStorage)

	alice, err := f.users.GetByID(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 250, alice.TotalPoints)
	assert.Equal(t, 0, f.invalidator.calls)

	// The pending row stays behind for the reaper.
	stale, err := f.submissions.ListStalePending(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, models.SubmissionPending, stale[0].Status)

	// A retry on the same triple reuses the row and credits normally.
	f.media.failUpload = false
	result, err := f.svc.Submit(ctx, f.input())
	require.NoError(t, err)
	assert.Equal(t, stale[0].ID, result.Submission.ID)
	assert.Equal(t, 100, result.PointsAwarded)
	assert.Equal(t, 350, result.TotalPoints)
}

func TestReaperSweepsStalePendingOnly(t *testing.T) {
	f := newSubmitFixture(t)
	ctx := context.Background()

	stale := &models.Submission{
		ID: "s-stale", ChallengeID: "c1", RoundID: "round-1",
		UserID: "alice", PartnerID: "bob", MediaKey: "alice/stale.jpg",
		Status: models.SubmissionPending, SubmittedAt: time.Now().Add(-48 * time.Hour),
	}
	_, _, err := f.submissions.UpsertPending(ctx, stale)
	require.NoError(t, err)
	require.NoError(t, f.media.Upload(ctx, "submissions", stale.MediaKey, mediaBody(), "image/jpeg"))

	fresh, err := f.svc.Submit(ctx, SubmitInput{
		UserID: "bob", ChallengeID: "c1", Media: mediaBody(), ContentType: "image/jpeg",
	})
	require.NoError(t, err)

	NewReaper(f.submissions, f.media, "submissions", 24*time.Hour).Sweep(ctx)

	_, err = f.submissions.GetByID(ctx, "s-stale")
	assert.ErrorIs(t, err, apperr.ErrSubmissionNotFound)
	assert.False(t, f.media.has("submissions", stale.MediaKey))

	// Completed submissions are untouched.
	kept, err := f.submissions.GetByID(ctx, fresh.Submission.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionCompleted, kept.Status)
	assert.True(t, f.media.has("submissions", kept.MediaKey))
}

func TestSubmissionHistoryListsBothSides(t *testing.T) {
	f := newSubmitFixture(t)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, f.input())
	require.NoError(t, err)

	for _, userID := range []string{"alice", "bob"} {
		history, err := f.svc.History(ctx, userID)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, "alice", history[0].UserID)
	}
}
