package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"twiin-backend/internal/middleware"
	"twiin-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// FeedHandler handles feed and reaction HTTP requests
type FeedHandler struct {
	feedService *services.FeedService
}

// NewFeedHandler creates a new feed handler
func NewFeedHandler(feedService *services.FeedService) *FeedHandler {
	return &FeedHandler{feedService: feedService}
}

// ReactionRequest represents the request body for a reaction
type ReactionRequest struct {
	EmojiID string `json:"emoji_id"`
}

// Feed handles GET /api/v1/feed
func (h *FeedHandler) Feed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	limit := 50
	offset := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil {
			limit = parsed
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if parsed, err := strconv.Atoi(offsetStr); err == nil {
			offset = parsed
		}
	}
	feedOnly := r.URL.Query().Get("all") != "true"

	items, err := h.feedService.Feed(ctx, userID, feedOnly, limit, offset)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to load feed")
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
		"total": len(items),
	})
}

// SetReaction handles PUT /api/v1/feed/{submission_id}/reaction
func (h *FeedHandler) SetReaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	submissionID := chi.URLParam(r, "submission_id")

	if submissionID == "" {
		respondError(w, "submission_id is required", http.StatusBadRequest)
		return
	}

	var req ReactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.feedService.SetReaction(ctx, userID, submissionID, req.EmojiID); err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("submission_id", submissionID).
			Msg("Failed to set reaction")
		respondAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
