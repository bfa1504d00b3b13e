package handlers

import (
	"net/http"

	"twiin-backend/internal/middleware"
	"twiin-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// submissions up to 32 MB are buffered in memory, larger spill to disk
const maxSubmissionMemory = 32 << 20

// SubmissionHandler handles submission HTTP requests
type SubmissionHandler struct {
	submissionService *services.SubmissionService
	profileService    *services.ProfileService
	hub               *services.WSHub
	notifier          *services.Notifier
}

// NewSubmissionHandler creates a new submission handler
func NewSubmissionHandler(
	submissionService *services.SubmissionService,
	profileService *services.ProfileService,
	hub *services.WSHub,
	notifier *services.Notifier,
) *SubmissionHandler {
	return &SubmissionHandler{
		submissionService: submissionService,
		profileService:    profileService,
		hub:               hub,
		notifier:          notifier,
	}
}

// Create handles POST /api/v1/submissions (multipart form: media,
// challenge_id, post_to_feed)
func (h *SubmissionHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	if err := r.ParseMultipartForm(maxSubmissionMemory); err != nil {
		respondError(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	challengeID := r.FormValue("challenge_id")
	if challengeID == "" {
		respondError(w, "challenge_id is required", http.StatusBadRequest)
		return
	}
	postToFeed := r.FormValue("post_to_feed") == "true"

	file, header, err := r.FormFile("media")
	if err != nil {
		respondError(w, "media file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	result, err := h.submissionService.Submit(ctx, services.SubmitInput{
		UserID:      userID,
		ChallengeID: challengeID,
		Media:       file,
		ContentType: header.Header.Get("Content-Type"),
		PostToFeed:  postToFeed,
	})
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("challenge_id", challengeID).
			Msg("Failed to submit")
		respondAppError(w, err)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("submission_id", result.Submission.ID).
		Int("points_awarded", result.PointsAwarded).
		Msg("Submission completed")

	h.hub.NotifySubmissionCompleted(result.PartnerID, result.Submission.ID, challengeID)
	if !h.hub.IsOnline(result.PartnerID) {
		if partner, err := h.profileService.Get(ctx, result.PartnerID); err == nil {
			h.notifier.Push(partner.PushToken, "Your twiin completed the challenge!")
		}
	}

	respondJSON(w, http.StatusOK, result)
}
