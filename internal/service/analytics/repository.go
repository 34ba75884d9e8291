package analytics

import (
	"context"
	"errors"
	"time"

	"github.com/ignite/nps-engine/internal/domain"
)

// ErrNotFound is returned when the campaign being analyzed does not exist.
var ErrNotFound = errors.New("campaign not found")

// HourBucket is one hour-aligned slot of the event timeline.
type HourBucket struct {
	Hour      time.Time                `json:"hour"`
	EventType domain.TrackingEventType `json:"event_type"`
	Count     int                      `json:"count"`
}

// Repository defines the read contract the aggregator needs.
// Implementations must be safe for concurrent use.
type Repository interface {
	// CampaignRecipientCount returns the ledger size for a campaign.
	// Returns ErrNotFound when the campaign does not exist.
	CampaignRecipientCount(ctx context.Context, campaignID string) (int, error)

	// DistinctEventRecipientCounts returns, per event type, how many
	// distinct recipients have at least one event of that type.
	DistinctEventRecipientCounts(ctx context.Context, campaignID string) (map[domain.TrackingEventType]int, error)

	// HourlyEventCounts returns event counts bucketed by hour and type,
	// ascending by hour. Hours with no events are absent.
	HourlyEventCounts(ctx context.Context, campaignID string) ([]HourBucket, error)

	// RecipientStatusCounts returns a live count of recipients per status.
	RecipientStatusCounts(ctx context.Context, campaignID string) (map[domain.RecipientStatus]int, error)
}
