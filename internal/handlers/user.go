package handlers

import (
	"encoding/json"
	"net/http"

	"twiin-backend/internal/middleware"
	"twiin-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// UserHandler handles profile-related HTTP requests
type UserHandler struct {
	profileService    *services.ProfileService
	submissionService *services.SubmissionService
}

// NewUserHandler creates a new user handler
func NewUserHandler(profileService *services.ProfileService, submissionService *services.SubmissionService) *UserHandler {
	return &UserHandler{
		profileService:    profileService,
		submissionService: submissionService,
	}
}

// UpdateProfileRequest represents the request body for a profile update
type UpdateProfileRequest struct {
	Name string `json:"name"`
	Bio  string `json:"bio"`
}

// PushTokenRequest represents the request body for push token registration
type PushTokenRequest struct {
	PushToken *string `json:"push_token"`
}

// Me handles GET /api/v1/users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	user, err := h.profileService.Get(ctx, userID)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"user":       user,
		"avatar_url": h.profileService.AvatarURL(ctx, user.AvatarKey),
	})
}

// UpdateMe handles PATCH /api/v1/users/me
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.profileService.Update(ctx, userID, req.Name, req.Bio)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to update profile")
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// UploadAvatar handles POST /api/v1/users/me/avatar
func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	file, header, err := r.FormFile("avatar")
	if err != nil {
		respondError(w, "avatar file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	key, err := h.profileService.SetAvatar(ctx, userID, contentType, file)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to set avatar")
		respondAppError(w, err)
		return
	}

	log.Info().Str("user_id", userID).Str("avatar_key", key).Msg("Avatar updated")
	respondJSON(w, http.StatusOK, map[string]string{
		"avatar_key": key,
		"avatar_url": h.profileService.AvatarURL(ctx, &key),
	})
}

// UpdatePushToken handles PUT /api/v1/users/me/push-token
func (h *UserHandler) UpdatePushToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req PushTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.profileService.RegisterPushToken(ctx, userID, req.PushToken); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to register push token")
		respondAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MySubmissions handles GET /api/v1/submissions/mine
func (h *UserHandler) MySubmissions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	subs, err := h.submissionService.History(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list submissions")
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"submissions": subs,
		"total":       len(subs),
	})
}
