package services

import (
	"context"
	"errors"
	"fmt"

	"twiin-backend/internal/apperr"
	"twiin-backend/internal/models"
)

// VoteState describes where a user stands in the select/agree/submit flow
type VoteState string

const (
	StateBrowsing  VoteState = "browsing"
	StateSelected  VoteState = "selected"
	StateAgreed    VoteState = "agreed"
	StateSubmitted VoteState = "submitted"
)

// Agreement is the reconciled view of a user's selection against their
// twiin's
type Agreement struct {
	State            VoteState             `json:"state"`
	MySelection      *string               `json:"my_selection,omitempty"`
	PartnerSelection *string               `json:"partner_selection,omitempty"`
	Partner          *models.PublicProfile `json:"partner,omitempty"`
	CanProceed       bool                  `json:"can_proceed"`
}

// VoteService reconciles challenge selections between matched users
type VoteService struct {
	userStore       UserStore
	challengeStore  ChallengeStore
	submissionStore SubmissionStore
	rounds          *RoundService
	matches         *MatchService
}

// NewVoteService creates a new vote service
func NewVoteService(
	userStore UserStore,
	challengeStore ChallengeStore,
	submissionStore SubmissionStore,
	rounds *RoundService,
	matches *MatchService,
) *VoteService {
	return &VoteService{
		userStore:       userStore,
		challengeStore:  challengeStore,
		submissionStore: submissionStore,
		rounds:          rounds,
		matches:         matches,
	}
}

// Select records the user's current challenge vote. The write is optimistic:
// it overwrites the previous selection immediately and becomes visible to the
// partner on their next fetch. Selecting the same challenge twice is
// idempotent. Returns the partner id so callers can notify them.
func (s *VoteService) Select(ctx context.Context, userID, challengeID string) (string, error) {
	challenge, err := s.challengeStore.GetByID(ctx, challengeID)
	if err != nil {
		return "", err
	}

	round, err := s.rounds.Current(ctx)
	if err != nil {
		return "", err
	}
	if challenge.RoundID != round.ID {
		return "", fmt.Errorf("%w: challenge %s is not part of the active round", apperr.ErrChallengeNotFound, challengeID)
	}

	if err := s.userStore.UpdateSelectedChallenge(ctx, userID, &challengeID); err != nil {
		return "", err
	}

	partnerID, err := s.matches.PartnerID(ctx, round.ID, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNoMatch) {
			return "", nil
		}
		return "", err
	}
	return partnerID, nil
}

// Reconcile compares the user's selection against their twiin's for the
// active round. CanProceed is true iff both selections are non-null and
// equal; it is the sole gate before submission.
func (s *VoteService) Reconcile(ctx context.Context, userID string) (*Agreement, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	agreement := &Agreement{
		State:       StateBrowsing,
		MySelection: user.SelectedChallengeID,
	}
	if user.SelectedChallengeID != nil {
		agreement.State = StateSelected
	}

	round, err := s.rounds.Current(ctx)
	if err != nil {
		if errors.Is(err, apperr.ErrNoActiveRound) {
			return agreement, nil
		}
		return nil, err
	}

	partner, err := s.matches.Partner(ctx, round.ID, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNoMatch) {
			return agreement, nil
		}
		return nil, err
	}
	agreement.Partner = partner
	agreement.PartnerSelection = partner.SelectedChallengeID

	mine, theirs := user.SelectedChallengeID, partner.SelectedChallengeID
	if mine != nil && theirs != nil && *mine == *theirs {
		agreement.CanProceed = true
		agreement.State = StateAgreed

		submitted, err := s.submissionStore.HasCompleted(ctx, userID, *mine)
		if err != nil {
			return nil, err
		}
		if submitted {
			agreement.State = StateSubmitted
		}
	}
	return agreement, nil
}
