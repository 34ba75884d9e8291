// Package tracking turns recipient actions and provider callbacks into
// ledger events.
//
// The pixel and click endpoints are the hot path: they answer immediately
// and hand the event to a Sink. In production the sink publishes to SQS and
// a separate worker drains the queue into the ledger; in dev mode the sink
// records straight into the ledger.
package tracking

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ignite/nps-engine/internal/domain"
	"github.com/ignite/nps-engine/internal/service/ledger"
)

// Event is the wire form of one engagement occurrence, as produced by the
// tracking endpoints and webhook receiver.
type Event struct {
	EventType   domain.TrackingEventType `json:"event_type"`
	CampaignID  string                   `json:"campaign_id"`
	RecipientID string                   `json:"recipient_id"`
	LinkURL     string                   `json:"link_url,omitempty"`
	Reason      string                   `json:"reason,omitempty"`
	IPAddress   string                   `json:"ip_address,omitempty"`
	UserAgent   string                   `json:"user_agent,omitempty"`
	Timestamp   time.Time                `json:"timestamp"`
}

// Sink receives events from the HTTP surface. Implementations must not
// block the caller on downstream availability.
type Sink interface {
	Record(ctx context.Context, evt Event)
}

// Recorder is the slice of the ledger the tracking pipeline writes to.
type Recorder interface {
	RecordEvent(ctx context.Context, in ledger.EventInput) (*domain.Recipient, error)
}

// input converts the wire event to a ledger event, carrying the full wire
// form along as the payload.
func (e Event) input() ledger.EventInput {
	payload, _ := json.Marshal(e)
	return ledger.EventInput{
		RecipientID: e.RecipientID,
		Type:        e.EventType,
		OccurredAt:  e.Timestamp,
		Payload:     payload,
		Reason:      e.Reason,
	}
}

// DirectSink records events synchronously into the ledger. Dev mode only;
// production deployments publish to SQS instead.
type DirectSink struct {
	recorder Recorder
}

// NewDirectSink creates a sink that writes straight to the ledger.
func NewDirectSink(recorder Recorder) *DirectSink {
	return &DirectSink{recorder: recorder}
}

func (s *DirectSink) Record(ctx context.Context, evt Event) {
	s.recorder.RecordEvent(ctx, evt.input())
}
