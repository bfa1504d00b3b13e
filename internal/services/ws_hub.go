package services

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type         string      `json:"type"`
	ChallengeID  string      `json:"challenge_id,omitempty"`
	SubmissionID string      `json:"submission_id,omitempty"`
	Online       *bool       `json:"online,omitempty"`
	Message      string      `json:"message,omitempty"`
	Data         interface{} `json:"data,omitempty"`
}

// wsClient wraps a connection with a write mutex. The HTTP handlers and the
// per-connection reader can all push to the same user at once, and
// gorilla/websocket allows only one concurrent writer per connection.
type wsClient struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *wsClient) write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// WSHub manages WebSocket connections. It is the push channel for
// cross-user events: selection changes, agreement, completed submissions
// and partner presence. Clients without a socket fall back to polling the
// agreement endpoint.
type WSHub struct {
	mu          sync.RWMutex
	connections map[string]*wsClient
}

// NewWSHub creates a new WebSocket hub
func NewWSHub() *WSHub {
	return &WSHub{
		connections: make(map[string]*wsClient),
	}
}

// Register registers a new WebSocket connection for a user
func (h *WSHub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Close existing connection if any
	if existing, exists := h.connections[userID]; exists {
		existing.conn.Close()
	}
	h.connections[userID] = &wsClient{conn: conn}

	log.Info().Str("user_id", userID).Msg("WebSocket connection registered")
}

// Unregister removes a WebSocket connection for a user
func (h *WSHub) Unregister(userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client, exists := h.connections[userID]; exists {
		client.conn.Close()
		delete(h.connections, userID)
		log.Info().Str("user_id", userID).Msg("WebSocket connection unregistered")
	}
}

// SendToUser sends a message to a specific user
func (h *WSHub) SendToUser(userID string, message WSMessage) error {
	h.mu.RLock()
	client, exists := h.connections[userID]
	h.mu.RUnlock()

	if !exists {
		return fmt.Errorf("user %s is not connected", userID)
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := client.write(data); err != nil {
		h.Unregister(userID)
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// IsOnline checks if a user is online
func (h *WSHub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, exists := h.connections[userID]
	return exists
}

// NotifyPartnerStatus notifies a user about their twiin going on/offline
func (h *WSHub) NotifyPartnerStatus(partnerID string, online bool) {
	if partnerID == "" || !h.IsOnline(partnerID) {
		return
	}
	if err := h.SendToUser(partnerID, WSMessage{Type: "partner_status", Online: &online}); err != nil {
		log.Error().Err(err).Str("user_id", partnerID).Msg("Failed to notify partner status")
	}
}

// NotifyPartnerSelected tells a user their twiin picked a challenge
func (h *WSHub) NotifyPartnerSelected(partnerID, challengeID string) {
	if !h.IsOnline(partnerID) {
		return
	}
	if err := h.SendToUser(partnerID, WSMessage{Type: "partner_selected", ChallengeID: challengeID}); err != nil {
		log.Error().Err(err).Str("user_id", partnerID).Msg("Failed to notify partner selection")
	}
}

// NotifyAgreement tells both sides their selections now match
func (h *WSHub) NotifyAgreement(userID, partnerID, challengeID string) {
	msg := WSMessage{Type: "agreement_reached", ChallengeID: challengeID}
	for _, id := range []string{userID, partnerID} {
		if !h.IsOnline(id) {
			continue
		}
		if err := h.SendToUser(id, msg); err != nil {
			log.Error().Err(err).Str("user_id", id).Msg("Failed to notify agreement")
		}
	}
}

// NotifySubmissionCompleted tells a user their twiin finished a submission
func (h *WSHub) NotifySubmissionCompleted(partnerID, submissionID, challengeID string) {
	if !h.IsOnline(partnerID) {
		return
	}
	msg := WSMessage{Type: "partner_submitted", SubmissionID: submissionID, ChallengeID: challengeID}
	if err := h.SendToUser(partnerID, msg); err != nil {
		log.Error().Err(err).Str("user_id", partnerID).Msg("Failed to notify submission")
	}
}
