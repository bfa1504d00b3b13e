package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"twiin-backend/internal/apperr"
	"twiin-backend/internal/models"
)

// In-memory store fakes backing the service tests. They mirror the SQL
// semantics of the repository package: upserts keyed on the same unique
// constraints, not-found mapped to the same sentinels.

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeUserStore(users ...*models.User) *fakeUserStore {
	s := &fakeUserStore{users: make(map[string]*models.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeUserStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return apperr.ErrEmailTaken
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *fakeUserStore) GetByID(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, apperr.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperr.ErrUserNotFound
}

func (s *fakeUserStore) UpdateProfile(_ context.Context, userID, name, bio string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return apperr.ErrUserNotFound
	}
	user.Name = name
	user.ProfileBio = bio
	return nil
}

func (s *fakeUserStore) UpdateAvatarKey(_ context.Context, userID, avatarKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return apperr.ErrUserNotFound
	}
	user.AvatarKey = &avatarKey
	return nil
}

func (s *fakeUserStore) UpdateSelectedChallenge(_ context.Context, userID string, challengeID *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return apperr.ErrUserNotFound
	}
	user.SelectedChallengeID = challengeID
	return nil
}

func (s *fakeUserStore) UpdatePushToken(_ context.Context, userID string, pushToken *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return apperr.ErrUserNotFound
	}
	user.PushToken = pushToken
	return nil
}

func (s *fakeUserStore) ListByPoints(_ context.Context) ([]*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		copied := *u
		users = append(users, &copied)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].TotalPoints != users[j].TotalPoints {
			return users[i].TotalPoints > users[j].TotalPoints
		}
		return users[i].ID < users[j].ID
	})
	return users, nil
}

type fakeRoundStore struct {
	rounds []*models.ChallengeRound
}

func (s *fakeRoundStore) ActiveAt(_ context.Context, now time.Time) (*models.ChallengeRound, error) {
	for _, r := range s.rounds {
		if !now.Before(r.StartTime) && !now.After(r.EndTime) {
			return r, nil
		}
	}
	return nil, apperr.ErrNoActiveRound
}

type fakeChallengeStore struct {
	challenges map[string]*models.Challenge
}

func newFakeChallengeStore(challenges ...*models.Challenge) *fakeChallengeStore {
	s := &fakeChallengeStore{challenges: make(map[string]*models.Challenge)}
	for _, c := range challenges {
		s.challenges[c.ID] = c
	}
	return s
}

func (s *fakeChallengeStore) GetByID(_ context.Context, id string) (*models.Challenge, error) {
	c, ok := s.challenges[id]
	if !ok {
		return nil, apperr.ErrChallengeNotFound
	}
	return c, nil
}

func (s *fakeChallengeStore) ListByRound(_ context.Context, roundID string) ([]*models.Challenge, error) {
	var out []*models.Challenge
	for _, c := range s.challenges {
		if c.RoundID == roundID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeMatchStore struct {
	matches []*models.Match
}

func (s *fakeMatchStore) GetByRoundAndUser(_ context.Context, roundID, userID string) (*models.Match, error) {
	for _, m := range s.matches {
		if m.RoundID == roundID && (m.UserAID == userID || m.UserBID == userID) {
			return m, nil
		}
	}
	return nil, apperr.ErrNoMatch
}

type tripleKey struct {
	userID, partnerID, challengeID string
}

type fakeSubmissionStore struct {
	mu      sync.Mutex
	byID    map[string]*models.Submission
	triples map[tripleKey]string

	// joined names per user id for ListFeed
	users      *fakeUserStore
	challenges *fakeChallengeStore
}

func newFakeSubmissionStore(users *fakeUserStore, challenges *fakeChallengeStore) *fakeSubmissionStore {
	return &fakeSubmissionStore{
		byID:       make(map[string]*models.Submission),
		triples:    make(map[tripleKey]string),
		users:      users,
		challenges: challenges,
	}
}

func (s *fakeSubmissionStore) UpsertPending(_ context.Context, sub *models.Submission) (string, *string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := tripleKey{sub.UserID, sub.PartnerID, sub.ChallengeID}
	if existingID, ok := s.triples[key]; ok {
		existing := s.byID[existingID]
		prevKey := existing.MediaKey
		existing.MediaKey = sub.MediaKey
		existing.ContentType = sub.ContentType
		existing.Status = models.SubmissionPending
		existing.PostToFeed = sub.PostToFeed
		existing.SubmittedAt = sub.SubmittedAt
		return existingID, &prevKey, nil
	}
	copied := *sub
	s.byID[sub.ID] = &copied
	s.triples[key] = sub.ID
	return sub.ID, nil, nil
}

func (s *fakeSubmissionStore) Complete(ctx context.Context, submissionID string, points int) (bool, error) {
	s.mu.Lock()
	sub, ok := s.byID[submissionID]
	if !ok {
		s.mu.Unlock()
		return false, apperr.ErrSubmissionNotFound
	}
	sub.Status = models.SubmissionCompleted
	awarded := !sub.PointsAwarded
	if awarded {
		sub.PointsAwarded = true
	}
	userID := sub.UserID
	s.mu.Unlock()

	if awarded {
		s.users.mu.Lock()
		if user, ok := s.users.users[userID]; ok {
			user.TotalPoints += points
		}
		s.users.mu.Unlock()
	}
	return awarded, nil
}

func (s *fakeSubmissionStore) GetByID(_ context.Context, id string) (*models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.byID[id]
	if !ok {
		return nil, apperr.ErrSubmissionNotFound
	}
	copied := *sub
	return &copied, nil
}

func (s *fakeSubmissionStore) HasCompleted(_ context.Context, userID, challengeID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.byID {
		if sub.UserID == userID && sub.ChallengeID == challengeID && sub.Status == models.SubmissionCompleted {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeSubmissionStore) ListFeed(ctx context.Context, feedOnly bool, limit, offset int) ([]*models.FeedEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var entries []*models.FeedEntry
	for _, sub := range s.byID {
		if sub.Status != models.SubmissionCompleted {
			continue
		}
		if feedOnly && !sub.PostToFeed {
			continue
		}
		entry := &models.FeedEntry{Submission: *sub}
		if u, ok := s.users.users[sub.UserID]; ok {
			entry.SubmitterName = u.Name
		}
		if p, ok := s.users.users[sub.PartnerID]; ok {
			entry.PartnerName = p.Name
		}
		if c, ok := s.challenges.challenges[sub.ChallengeID]; ok {
			entry.ChallengeDesc = c.ShortDesc
			entry.Difficulty = c.Difficulty
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Submission.SubmittedAt.After(entries[j].Submission.SubmittedAt)
	})
	if offset > len(entries) {
		offset = len(entries)
	}
	entries = entries[offset:]
	if limit < len(entries) {
		entries = entries[:limit]
	}
	return entries, nil
}

func (s *fakeSubmissionStore) ListByUser(_ context.Context, userID string) ([]*models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var subs []*models.Submission
	for _, sub := range s.byID {
		if (sub.UserID == userID || sub.PartnerID == userID) && sub.Status == models.SubmissionCompleted {
			copied := *sub
			subs = append(subs, &copied)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].SubmittedAt.After(subs[j].SubmittedAt) })
	return subs, nil
}

func (s *fakeSubmissionStore) ListStalePending(_ context.Context, cutoff time.Time) ([]*models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var subs []*models.Submission
	for _, sub := range s.byID {
		if sub.Status == models.SubmissionPending && sub.SubmittedAt.Before(cutoff) {
			copied := *sub
			subs = append(subs, &copied)
		}
	}
	return subs, nil
}

func (s *fakeSubmissionStore) DeletePending(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.byID[id]
	if !ok || sub.Status != models.SubmissionPending {
		return false, nil
	}
	delete(s.byID, id)
	delete(s.triples, tripleKey{sub.UserID, sub.PartnerID, sub.ChallengeID})
	return true, nil
}

type reactionKey struct {
	submissionID, userID string
}

type fakeReactionStore struct {
	mu        sync.Mutex
	reactions map[reactionKey]*models.Reaction
}

func newFakeReactionStore() *fakeReactionStore {
	return &fakeReactionStore{reactions: make(map[reactionKey]*models.Reaction)}
}

func (s *fakeReactionStore) Upsert(_ context.Context, reaction *models.Reaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *reaction
	s.reactions[reactionKey{reaction.SubmissionID, reaction.UserID}] = &copied
	return nil
}

func (s *fakeReactionStore) ListBySubmission(_ context.Context, submissionID string) ([]*models.Reaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Reaction
	for _, r := range s.reactions {
		if r.SubmissionID == submissionID {
			copied := *r
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type fakeMediaStore struct {
	mu         sync.Mutex
	objects    map[string][]byte
	failUpload bool
}

func newFakeMediaStore() *fakeMediaStore {
	return &fakeMediaStore{objects: make(map[string][]byte)}
}

func (s *fakeMediaStore) Upload(_ context.Context, bucket, key string, body io.Reader, _ string) error {
	if s.failUpload {
		return fmt.Errorf("%w: upload refused", apperr.ErrStorage)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[bucket+"/"+key] = data
	return nil
}

func (s *fakeMediaStore) DownloadURL(_ context.Context, bucket, key string) (string, error) {
	return "https://media.test/" + bucket + "/" + key, nil
}

func (s *fakeMediaStore) Delete(_ context.Context, bucket, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, bucket+"/"+key)
	return nil
}

func (s *fakeMediaStore) has(bucket, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[bucket+"/"+key]
	return ok
}

func mediaBody() io.Reader {
	return bytes.NewReader([]byte("jpeg-bytes"))
}

func strPtr(s string) *string {
	return &s
}
