package handlers

import (
	"encoding/json"
	"net/http"

	"twiin-backend/internal/middleware"
	"twiin-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// VoteHandler handles challenge selection and agreement HTTP requests
type VoteHandler struct {
	voteService    *services.VoteService
	profileService *services.ProfileService
	hub            *services.WSHub
	notifier       *services.Notifier
}

// NewVoteHandler creates a new vote handler
func NewVoteHandler(
	voteService *services.VoteService,
	profileService *services.ProfileService,
	hub *services.WSHub,
	notifier *services.Notifier,
) *VoteHandler {
	return &VoteHandler{
		voteService:    voteService,
		profileService: profileService,
		hub:            hub,
		notifier:       notifier,
	}
}

// SelectRequest represents the request body for a challenge selection
type SelectRequest struct {
	ChallengeID string `json:"challenge_id"`
}

// Select handles PUT /api/v1/challenges/selection
func (h *VoteHandler) Select(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req SelectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ChallengeID == "" {
		respondError(w, "challenge_id is required", http.StatusBadRequest)
		return
	}

	partnerID, err := h.voteService.Select(ctx, userID, req.ChallengeID)
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("challenge_id", req.ChallengeID).
			Msg("Failed to select challenge")
		respondAppError(w, err)
		return
	}

	agreement, err := h.voteService.Reconcile(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to reconcile after selection")
		respondAppError(w, err)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("challenge_id", req.ChallengeID).
		Str("state", string(agreement.State)).
		Msg("Challenge selected")

	// Push the change to the twiin; offline partners get an APNs nudge.
	if partnerID != "" {
		h.hub.NotifyPartnerSelected(partnerID, req.ChallengeID)
		if agreement.CanProceed {
			h.hub.NotifyAgreement(userID, partnerID, req.ChallengeID)
		}
		if !h.hub.IsOnline(partnerID) {
			if partner, err := h.profileService.Get(ctx, partnerID); err == nil {
				h.notifier.Push(partner.PushToken, "Your twiin picked a challenge!")
			}
		}
	}

	respondJSON(w, http.StatusOK, agreement)
}

// Agreement handles GET /api/v1/challenges/agreement.
// Clients without a WebSocket poll this to detect when both sides agree.
func (h *VoteHandler) Agreement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	agreement, err := h.voteService.Reconcile(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to reconcile agreement")
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, agreement)
}
