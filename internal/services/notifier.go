package services

import (
	"fmt"

	"twiin-backend/internal/config"

	"github.com/rs/zerolog/log"
	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/certificate"
	"github.com/sideshow/apns2/payload"
)

// Notifier delivers APNs pushes to users who are not connected to the hub.
// A nil *Notifier is valid and drops every push, so callers never need to
// guard.
type Notifier struct {
	client *apns2.Client
	topic  string
}

// NewNotifier creates an APNs notifier from configuration. Returns nil
// (pushes disabled) when no certificate is configured.
func NewNotifier(cfg config.APNsConfig) (*Notifier, error) {
	if cfg.CertPath == "" {
		return nil, nil
	}

	cert, err := certificate.FromP12File(cfg.CertPath, cfg.CertPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to load APNs certificate: %w", err)
	}

	client := apns2.NewClient(cert)
	if cfg.Production {
		client = client.Production()
	} else {
		client = client.Development()
	}

	return &Notifier{client: client, topic: cfg.Topic}, nil
}

// Push sends a best-effort alert to a device token. Failures are logged,
// never surfaced: a lost push only delays the partner until their next
// refresh.
func (n *Notifier) Push(deviceToken *string, alert string) {
	if n == nil || deviceToken == nil || *deviceToken == "" {
		return
	}

	notification := &apns2.Notification{
		DeviceToken: *deviceToken,
		Topic:       n.topic,
		Payload:     payload.NewPayload().Alert(alert).Sound("default"),
	}

	res, err := n.client.Push(notification)
	if err != nil {
		log.Error().Err(err).Msg("APNs push failed")
		return
	}
	if !res.Sent() {
		log.Warn().Str("reason", res.Reason).Int("status", res.StatusCode).Msg("APNs push rejected")
	}
}
