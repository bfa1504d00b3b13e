package handlers

import (
	"net/http"

	"twiin-backend/internal/middleware"
	"twiin-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// ChallengeHandler handles round, catalog and match HTTP requests
type ChallengeHandler struct {
	roundService   *services.RoundService
	catalogService *services.CatalogService
	matchService   *services.MatchService
	profileService *services.ProfileService
}

// NewChallengeHandler creates a new challenge handler
func NewChallengeHandler(
	roundService *services.RoundService,
	catalogService *services.CatalogService,
	matchService *services.MatchService,
	profileService *services.ProfileService,
) *ChallengeHandler {
	return &ChallengeHandler{
		roundService:   roundService,
		catalogService: catalogService,
		matchService:   matchService,
		profileService: profileService,
	}
}

// CurrentRound handles GET /api/v1/rounds/current
func (h *ChallengeHandler) CurrentRound(w http.ResponseWriter, r *http.Request) {
	round, err := h.roundService.Current(r.Context())
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, round)
}

// Challenges handles GET /api/v1/rounds/current/challenges
func (h *ChallengeHandler) Challenges(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	round, err := h.roundService.Current(ctx)
	if err != nil {
		respondAppError(w, err)
		return
	}

	grouped, err := h.catalogService.Grouped(ctx, round.ID)
	if err != nil {
		log.Error().Err(err).Str("round_id", round.ID).Msg("Failed to group challenges")
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"round":      round,
		"challenges": grouped,
	})
}

// Match handles GET /api/v1/rounds/current/match
func (h *ChallengeHandler) Match(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	round, err := h.roundService.Current(ctx)
	if err != nil {
		respondAppError(w, err)
		return
	}

	partner, err := h.matchService.Partner(ctx, round.ID, userID)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"partner":    partner,
		"avatar_url": h.profileService.AvatarURL(ctx, partner.AvatarKey),
	})
}
