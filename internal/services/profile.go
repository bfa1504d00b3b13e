package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"twiin-backend/internal/apperr"
	"twiin-backend/internal/models"
)

// ProfileService handles user profile and avatar logic
type ProfileService struct {
	userStore    UserStore
	media        MediaStore
	avatarBucket string
}

// NewProfileService creates a new profile service
func NewProfileService(userStore UserStore, media MediaStore, avatarBucket string) *ProfileService {
	return &ProfileService{
		userStore:    userStore,
		media:        media,
		avatarBucket: avatarBucket,
	}
}

// Get retrieves a user's profile
func (s *ProfileService) Get(ctx context.Context, userID string) (*models.User, error) {
	return s.userStore.GetByID(ctx, userID)
}

// Update updates a user's display name and bio. Empty fields keep their
// current value.
func (s *ProfileService) Update(ctx context.Context, userID, name, bio string) (*models.User, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = user.Name
	}
	if bio == "" {
		bio = user.ProfileBio
	}
	if err := s.userStore.UpdateProfile(ctx, userID, name, bio); err != nil {
		return nil, err
	}
	user.Name = name
	user.ProfileBio = bio
	return user, nil
}

// SetAvatar uploads a new avatar image and records its storage key.
// Only images are accepted. The key carries a timestamp so repeated uploads
// never collide with a cached object.
func (s *ProfileService) SetAvatar(ctx context.Context, userID, contentType string, body io.Reader) (string, error) {
	if body == nil || !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("%w: avatar must be an image", apperr.ErrInvalidMedia)
	}

	key := fmt.Sprintf("%s_%d.%s", userID, time.Now().UnixMilli(), extForContentType(contentType))
	if err := s.media.Upload(ctx, s.avatarBucket, key, body, contentType); err != nil {
		return "", err
	}

	if err := s.userStore.UpdateAvatarKey(ctx, userID, key); err != nil {
		return "", err
	}
	return key, nil
}

// AvatarURL resolves a presigned link for an avatar key, or "" when unset
func (s *ProfileService) AvatarURL(ctx context.Context, avatarKey *string) string {
	if avatarKey == nil || *avatarKey == "" {
		return ""
	}
	url, err := s.media.DownloadURL(ctx, s.avatarBucket, *avatarKey)
	if err != nil {
		return ""
	}
	return url
}

// RegisterPushToken records the device token used for partner notifications
func (s *ProfileService) RegisterPushToken(ctx context.Context, userID string, pushToken *string) error {
	return s.userStore.UpdatePushToken(ctx, userID, pushToken)
}

func extForContentType(contentType string) string {
	switch contentType {
	case "image/png":
		return "png"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	case "video/mp4":
		return "mp4"
	case "video/quicktime":
		return "mov"
	default:
		return "jpg"
	}
}
