package services

import (
	"context"
	"fmt"
	"time"

	"twiin-backend/internal/apperr"
	"twiin-backend/internal/models"

	"github.com/rs/zerolog/log"
)

// Reactor identifies a user who reacted to a submission
type Reactor struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

// FeedItem is one feed entry with resolved media and partitioned reactions
type FeedItem struct {
	models.FeedEntry
	MediaURL string `json:"media_url"`

	// MyReaction is the viewer's own emoji, if any
	MyReaction *string `json:"my_reaction,omitempty"`

	// OtherReactions groups everyone else's reactions by emoji for the
	// detail view
	OtherReactions map[string][]Reactor `json:"other_reactions"`

	// ReactionSummary collapses the others to "FirstName + N others" for
	// the compact view
	ReactionSummary string `json:"reaction_summary"`
}

// FeedService lists submissions with their reactions
type FeedService struct {
	submissionStore SubmissionStore
	reactionStore   ReactionStore
	submissions     *SubmissionService
}

// NewFeedService creates a new feed service
func NewFeedService(submissionStore SubmissionStore, reactionStore ReactionStore, submissions *SubmissionService) *FeedService {
	return &FeedService{
		submissionStore: submissionStore,
		reactionStore:   reactionStore,
		submissions:     submissions,
	}
}

// Feed lists completed submissions newest first, joined with names and the
// challenge summary, with reactions partitioned for the viewer
func (s *FeedService) Feed(ctx context.Context, viewerID string, feedOnly bool, limit, offset int) ([]*FeedItem, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	entries, err := s.submissionStore.ListFeed(ctx, feedOnly, limit, offset)
	if err != nil {
		return nil, err
	}

	items := make([]*FeedItem, 0, len(entries))
	for _, entry := range entries {
		item := &FeedItem{FeedEntry: *entry}

		url, err := s.submissions.MediaURL(ctx, &entry.Submission)
		if err != nil {
			log.Warn().Err(err).Str("submission_id", entry.Submission.ID).Msg("Failed to resolve media URL")
		} else {
			item.MediaURL = url
		}

		reactions, err := s.reactionStore.ListBySubmission(ctx, entry.Submission.ID)
		if err != nil {
			return nil, err
		}
		mine, others := partitionReactions(viewerID, reactions)
		if mine != nil {
			item.MyReaction = &mine.EmojiID
		}
		item.OtherReactions = groupByEmoji(others)
		item.ReactionSummary = summarizeReactions(others)

		items = append(items, item)
	}
	return items, nil
}

// SetReaction records the user's emoji for a submission. One reaction per
// user per submission; picking again overwrites.
func (s *FeedService) SetReaction(ctx context.Context, userID, submissionID, emojiID string) error {
	if emojiID == "" {
		return fmt.Errorf("%w: emoji_id is required", apperr.ErrValidation)
	}
	if _, err := s.submissionStore.GetByID(ctx, submissionID); err != nil {
		return err
	}
	return s.reactionStore.Upsert(ctx, &models.Reaction{
		SubmissionID: submissionID,
		UserID:       userID,
		EmojiID:      emojiID,
		CreatedAt:    time.Now(),
	})
}

// partitionReactions splits the viewer's own reaction (at most one) from
// everyone else's
func partitionReactions(viewerID string, reactions []*models.Reaction) (*models.Reaction, []*models.Reaction) {
	var mine *models.Reaction
	others := make([]*models.Reaction, 0, len(reactions))
	for _, r := range reactions {
		if r.UserID == viewerID {
			mine = r
			continue
		}
		others = append(others, r)
	}
	return mine, others
}

func groupByEmoji(reactions []*models.Reaction) map[string][]Reactor {
	grouped := make(map[string][]Reactor)
	for _, r := range reactions {
		grouped[r.EmojiID] = append(grouped[r.EmojiID], Reactor{UserID: r.UserID, Name: r.UserName})
	}
	return grouped
}

func summarizeReactions(reactions []*models.Reaction) string {
	switch len(reactions) {
	case 0:
		return ""
	case 1:
		return reactions[0].UserName
	default:
		return fmt.Sprintf("%s + %d others", reactions[0].UserName, len(reactions)-1)
	}
}
