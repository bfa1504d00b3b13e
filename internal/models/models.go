package models

import "time"

// Difficulty is the tier of a challenge
type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

// Difficulties lists the tiers in browsing order
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// Valid reports whether d is a known difficulty tier
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// User represents a user in the system
type User struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Email               string    `json:"email"`
	PasswordHash        string    `json:"-"`
	AvatarKey           *string   `json:"avatar_key,omitempty"`
	ProfileBio          string    `json:"profile_bio"`
	TotalPoints         int       `json:"total_points"`
	SelectedChallengeID *string   `json:"selected_challenge_id,omitempty"`
	PushToken           *string   `json:"-"`
	CreatedAt           time.Time `json:"created_at"`
}

// PublicProfile is the subset of a user visible to their twiin
type PublicProfile struct {
	ID                  string  `json:"id"`
	Name                string  `json:"name"`
	AvatarKey           *string `json:"avatar_key,omitempty"`
	SelectedChallengeID *string `json:"selected_challenge_id,omitempty"`
}

// Public returns the partner-visible view of the user
func (u *User) Public() *PublicProfile {
	return &PublicProfile{
		ID:                  u.ID,
		Name:                u.Name,
		AvatarKey:           u.AvatarKey,
		SelectedChallengeID: u.SelectedChallengeID,
	}
}

// ChallengeRound represents a time-boxed challenge period
type ChallengeRound struct {
	ID        string    `json:"id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// Challenge represents a candidate challenge within a round
type Challenge struct {
	ID         string     `json:"id"`
	ShortDesc  string     `json:"short_desc"`
	FullDesc   string     `json:"full_desc"`
	Difficulty Difficulty `json:"difficulty"`
	PointValue int        `json:"point_value"`
	RoundID    string     `json:"round_id"`
}

// Match pairs two users for a round
type Match struct {
	ID        string    `json:"id"`
	RoundID   string    `json:"round_id"`
	UserAID   string    `json:"user_a"`
	UserBID   string    `json:"user_b"`
	CreatedAt time.Time `json:"created_at"`
}

// PartnerOf returns the other side of the match, or "" if userID is
// not a member.
func (m *Match) PartnerOf(userID string) string {
	switch userID {
	case m.UserAID:
		return m.UserBID
	case m.UserBID:
		return m.UserAID
	}
	return ""
}

// SubmissionStatus tracks the two-phase submission write
type SubmissionStatus string

const (
	SubmissionPending   SubmissionStatus = "pending"
	SubmissionCompleted SubmissionStatus = "completed"
)

// Submission represents a media submission for a challenge
type Submission struct {
	ID            string           `json:"id"`
	ChallengeID   string           `json:"challenge_id"`
	RoundID       string           `json:"round_id"`
	UserID        string           `json:"user_id"`
	PartnerID     string           `json:"partner_id"`
	MediaKey      string           `json:"media_key"`
	ContentType   string           `json:"content_type"`
	Status        SubmissionStatus `json:"status"`
	PointsAwarded bool             `json:"points_awarded"`
	PostToFeed    bool             `json:"post_to_feed"`
	SubmittedAt   time.Time        `json:"submitted_at"`
}

// FeedEntry is a submission joined with the names and challenge summary
// the feed renders alongside it
type FeedEntry struct {
	Submission    Submission `json:"submission"`
	SubmitterName string     `json:"submitter_name"`
	PartnerName   string     `json:"partner_name"`
	ChallengeDesc string     `json:"challenge_desc"`
	Difficulty    Difficulty `json:"difficulty"`
}

// Reaction represents an emoji reaction to a submission
type Reaction struct {
	SubmissionID string    `json:"submission_id"`
	UserID       string    `json:"user_id"`
	UserName     string    `json:"user_name,omitempty"`
	EmojiID      string    `json:"emoji_id"`
	CreatedAt    time.Time `json:"created_at"`
}
