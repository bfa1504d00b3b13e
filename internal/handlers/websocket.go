package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"twiin-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // mobile clients connect from app schemes
	},
}

// WebSocketHandler handles WebSocket connections
type WebSocketHandler struct {
	hub         *services.WSHub
	authService *services.AuthService
	voteService *services.VoteService
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(hub *services.WSHub, authService *services.AuthService, voteService *services.VoteService) *WebSocketHandler {
	return &WebSocketHandler{
		hub:         hub,
		authService: authService,
		voteService: voteService,
	}
}

// HandleWebSocket handles GET /ws?token=...
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondError(w, "token required", http.StatusUnauthorized)
		return
	}

	userID, err := h.authService.ValidateJWT(token)
	if err != nil {
		respondError(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}
	defer conn.Close()

	h.hub.Register(userID, conn)

	ctx := r.Context()
	partnerID := h.sendAgreement(ctx, userID)
	h.hub.NotifyPartnerStatus(partnerID, true)

	defer func() {
		h.hub.Unregister(userID)
		h.hub.NotifyPartnerStatus(partnerID, false)
	}()

	log.Info().Str("user_id", userID).Msg("WebSocket connection established")

	for {
		_, messageBytes, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("user_id", userID).Msg("WebSocket error")
			}
			break
		}

		var msg services.WSMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			h.sendError(userID, "Invalid message format")
			continue
		}

		switch msg.Type {
		case "refresh_agreement":
			partnerID = h.sendAgreement(ctx, userID)
		default:
			h.sendError(userID, "Unknown message type")
		}
	}
}

// sendAgreement pushes the current agreement status to the user and returns
// the partner id, if any
func (h *WebSocketHandler) sendAgreement(ctx context.Context, userID string) string {
	agreement, err := h.voteService.Reconcile(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to reconcile for WebSocket")
		h.sendError(userID, "Failed to load agreement status")
		return ""
	}

	msg := services.WSMessage{Type: "agreement_status", Data: agreement}
	if err := h.hub.SendToUser(userID, msg); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to send agreement status")
	}

	if agreement.Partner != nil {
		return agreement.Partner.ID
	}
	return ""
}

func (h *WebSocketHandler) sendError(userID, message string) {
	msg := services.WSMessage{Type: "error", Message: message}
	if err := h.hub.SendToUser(userID, msg); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to send error message")
	}
}
