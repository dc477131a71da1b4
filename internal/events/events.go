// Package events publishes accepted site interactions to downstream consumers.
package events

import (
	"context"
	"time"
)

const (
	TypeVisit       = "site.visit"
	TypeContact     = "site.contact"
	TypeNewsletter  = "site.newsletter"
	TypeFeedback    = "site.feedback"
	TypeInteraction = "site.product_interaction"
	TypeQRScan      = "qr.scan"
	TypePublished   = "site.published"
	TypeDeployReady = "site.deploy_ready"
)

type Event struct {
	Type          string         `json:"type"`
	OwnerID       string         `json:"owner_id"`
	SiteID        string         `json:"site_id,omitempty"`
	CorrelationID string         `json:"correlation_id"`
	OccurredAt    time.Time      `json:"occurred_at"`
	Data          map[string]any `json:"data,omitempty"`
}

type Sink interface {
	Emit(ctx context.Context, event Event) error
}

type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, Event) error { return nil }
