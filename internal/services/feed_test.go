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

type feedFixture struct {
	users       *fakeUserStore
	submissions *fakeSubmissionStore
	reactions   *fakeReactionStore
	svc         *FeedService
}

func newFeedFixture(t *testing.T) *feedFixture {
	t.Helper()

	users := newFakeUserStore(
		&models.User{ID: "alice", Name: "Alice"},
		&models.User{ID: "bob", Name: "Bob"},
		&models.User{ID: "carol", Name: "Carol"},
		&models.User{ID: "dave", Name: "Dave"},
	)
	challenges := newFakeChallengeStore(
		&models.Challenge{ID: "c1", RoundID: "round-1", Difficulty: models.DifficultyEasy, ShortDesc: "Matching hats", PointValue: 50},
	)
	submissions := newFakeSubmissionStore(users, challenges)
	reactions := newFakeReactionStore()
	media := newFakeMediaStore()

	matches := NewMatchService(&fakeMatchStore{}, users)
	submissionSvc := NewSubmissionService(submissions, challenges, users, matches, media, "submissions", nil)

	return &feedFixture{
		users:       users,
		submissions: submissions,
		reactions:   reactions,
		svc:         NewFeedService(submissions, reactions, submissionSvc),
	}
}

func (f *feedFixture) addCompleted(t *testing.T, id, userID, partnerID string, postToFeed bool, at time.Time) {
	t.Helper()
	_, _, err := f.submissions.UpsertPending(context.Background(), &models.Submission{
		ID: id, ChallengeID: "c1", RoundID: "round-1",
		UserID: userID, PartnerID: partnerID,
		MediaKey: userID + "/" + id + ".jpg", ContentType: "image/jpeg",
		Status: models.SubmissionPending, PostToFeed: postToFeed, SubmittedAt: at,
	})
	require.NoError(t, err)
	_, err = f.submissions.Complete(context.Background(), id, 50)
	require.NoError(t, err)
}

func TestFeedListsNewestFirstWithJoinedFields(t *testing.T) {
	f := newFeedFixture(t)
	now := time.Now()
	f.addCompleted(t, "s-old", "alice", "bob", true, now.Add(-time.Hour))
	f.addCompleted(t, "s-new", "carol", "dave", true, now)

	items, err := f.svc.Feed(context.Background(), "bob", true, 50, 0)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "s-new", items[0].Submission.ID)
	assert.Equal(t, "s-old", items[1].Submission.ID)
	assert.Equal(t, "Carol", items[0].SubmitterName)
	assert.Equal(t, "Dave", items[0].PartnerName)
	assert.Equal(t, "Matching hats", items[0].ChallengeDesc)
	assert.Equal(t, models.DifficultyEasy, items[0].Difficulty)
	assert.Contains(t, items[0].MediaURL, items[0].Submission.MediaKey)
}

func TestFeedHonorsPostToFeedFlag(t *testing.T) {
	f := newFeedFixture(t)
	now := time.Now()
	f.addCompleted(t, "s-public", "alice", "bob", true, now)
	f.addCompleted(t, "s-private", "carol", "dave", false, now.Add(-time.Minute))

	items, err := f.svc.Feed(context.Background(), "alice", true, 50, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "s-public", items[0].Submission.ID)

	// feedOnly=false includes opted-out submissions too.
	items, err = f.svc.Feed(context.Background(), "alice", false, 50, 0)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestFeedPartitionsReactionsForViewer(t *testing.T) {
	f := newFeedFixture(t)
	ctx := context.Background()
	f.addCompleted(t, "s1", "alice", "bob", true, time.Now())

	require.NoError(t, f.svc.SetReaction(ctx, "carol", "s1", "❤️"))
	require.NoError(t, f.svc.SetReaction(ctx, "dave", "s1", "👍"))
	require.NoError(t, f.svc.SetReaction(ctx, "alice", "s1", "🔥"))

	items, err := f.svc.Feed(ctx, "alice", true, 50, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	item := items[0]

	require.NotNil(t, item.MyReaction)
	assert.Equal(t, "🔥", *item.MyReaction)

	require.Len(t, item.OtherReactions, 2)
	require.Len(t, item.OtherReactions["❤️"], 1)
	assert.Equal(t, "carol", item.OtherReactions["❤️"][0].UserID)
	require.Len(t, item.OtherReactions["👍"], 1)
	assert.Equal(t, "dave", item.OtherReactions["👍"][0].UserID)
}

func TestFeedViewerWithoutReaction(t *testing.T) {
	f := newFeedFixture(t)
	ctx := context.Background()
	f.addCompleted(t, "s1", "alice", "bob", true, time.Now())
	require.NoError(t, f.svc.SetReaction(ctx, "carol", "s1", "❤️"))

	items, err := f.svc.Feed(ctx, "alice", true, 50, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Nil(t, items[0].MyReaction)
	assert.Len(t, items[0].OtherReactions["❤️"], 1)
}

func TestSetReactionOverwrites(t *testing.T) {
	f := newFeedFixture(t)
	ctx := context.Background()
	f.addCompleted(t, "s1", "alice", "bob", true, time.Now())

	require.NoError(t, f.svc.SetReaction(ctx, "carol", "s1", "❤️"))
	require.NoError(t, f.svc.SetReaction(ctx, "carol", "s1", "👍"))

	reactions, err := f.reactions.ListBySubmission(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, reactions, 1)
	assert.Equal(t, "👍", reactions[0].EmojiID)
}

func TestSetReactionValidation(t *testing.T) {
	f := newFeedFixture(t)
	ctx := context.Background()
	f.addCompleted(t, "s1", "alice", "bob", true, time.Now())

	err := f.svc.SetReaction(ctx, "carol", "s1", "")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	err = f.svc.SetReaction(ctx, "carol", "missing", "❤️")
	assert.ErrorIs(t, err, apperr.ErrSubmissionNotFound)
}

func TestSummarizeReactions(t *testing.T) {
	none := summarizeReactions(nil)
	assert.Empty(t, none)

	one := summarizeReactions([]*models.Reaction{
		{UserID: "carol", UserName: "Carol", EmojiID: "❤️"},
	})
	assert.Equal(t, "Carol", one)

	three := summarizeReactions([]*models.Reaction{
		{UserID: "carol", UserName: "Carol", EmojiID: "❤️"},
		{UserID: "dave", UserName: "Dave", EmojiID: "👍"},
		{UserID: "bob", UserName: "Bob", EmojiID: "❤️"},
	})
	assert.Equal(t, "Carol + 2 others", three)
}
