package domain

import (
	"encoding/json"
	"time"
)

// TrackingEventType enumerates the engagement events a provider can report.
type TrackingEventType string

const (
	EventDelivered TrackingEventType = "delivered"
	EventOpened    TrackingEventType = "opened"
	EventClicked   TrackingEventType = "clicked"
	EventBounced   TrackingEventType = "bounced"
)

// Valid reports whether t is a known event type.
func (t TrackingEventType) Valid() bool {
	switch t {
	case EventDelivered, EventOpened, EventClicked, EventBounced:
		return true
	}
	return false
}

// StatusFor maps an event type to the recipient status it advances toward.
func (t TrackingEventType) StatusFor() RecipientStatus {
	switch t {
	case EventDelivered:
		return RecipientDelivered
	case EventOpened:
		return RecipientOpened
	case EventClicked:
		return RecipientClicked
	case EventBounced:
		return RecipientBounced
	}
	return RecipientPending
}

// TrackingEvent is an immutable record of one engagement occurrence.
// Events are append-only: re-opens and re-clicks produce additional rows,
// and only the first of each type stamps the recipient's first-occurred-at
// timestamp.
type TrackingEvent struct {
	ID          string            `json:"id" db:"id"`
	RecipientID string            `json:"recipient_id" db:"recipient_id"`
	CampaignID  string            `json:"campaign_id" db:"campaign_id"`
	EventType   TrackingEventType `json:"event_type" db:"event_type"`
	OccurredAt  time.Time         `json:"occurred_at" db:"occurred_at"`
	Payload     json.RawMessage   `json:"payload,omitempty" db:"payload"`
}
