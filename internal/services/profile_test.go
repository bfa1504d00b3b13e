package services

import (
	"context"
	"strings"
	"testing"

	"twiin-backend/internal/apperr"
	"twiin-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProfileFixture() (*fakeUserStore, *fakeMediaStore, *ProfileService) {
	users := newFakeUserStore(
		&models.User{ID: "alice", Name: "Alice", ProfileBio: "hi"},
	)
	media := newFakeMediaStore()
	return users, media, NewProfileService(users, media, "avatars")
}

func TestProfileUpdateKeepsEmptyFields(t *testing.T) {
	_, _, svc := newProfileFixture()
	ctx := context.Background()

	user, err := svc.Update(ctx, "alice", "", "new bio")
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.Name)
	assert.Equal(t, "new bio", user.ProfileBio)

	user, err = svc.Update(ctx, "alice", "Alicia", "")
	require.NoError(t, err)
	assert.Equal(t, "Alicia", user.Name)
	assert.Equal(t, "new bio", user.ProfileBio)
}

func TestSetAvatarUploadsAndRecordsKey(t *testing.T) {
	users, media, svc := newProfileFixture()
	ctx := context.Background()

	key, err := svc.SetAvatar(ctx, "alice", "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "alice_"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.True(t, media.has("avatars", key))

	alice, err := users.GetByID(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, alice.AvatarKey)
	assert.Equal(t, key, *alice.AvatarKey)

	url := svc.AvatarURL(ctx, alice.AvatarKey)
	assert.Contains(t, url, key)
}

func TestSetAvatarRejectsNonImages(t *testing.T) {
	_, _, svc := newProfileFixture()

	_, err := svc.SetAvatar(context.Background(), "alice", "video/mp4", strings.NewReader("mp4"))
	assert.ErrorIs(t, err, apperr.ErrInvalidMedia)

	_, err = svc.SetAvatar(context.Background(), "alice", "image/png", nil)
	assert.ErrorIs(t, err, apperr.ErrInvalidMedia)
}

func TestAvatarURLUnset(t *testing.T) {
	_, _, svc := newProfileFixture()
	assert.Empty(t, svc.AvatarURL(context.Background(), nil))
	assert.Empty(t, svc.AvatarURL(context.Background(), strPtr("")))
}
