package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/nps-engine/internal/domain"
	"github.com/ignite/nps-engine/internal/service/analytics"
)

// AnalyticsRepo implements analytics.Repository against PostgreSQL.
type AnalyticsRepo struct{ db *sql.DB }

// NewAnalyticsRepo creates a Postgres-backed analytics repository.
func NewAnalyticsRepo(db *sql.DB) *AnalyticsRepo { return &AnalyticsRepo{db: db} }

func (r *AnalyticsRepo) CampaignRecipientCount(ctx context.Context, campaignID string) (int, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM campaigns WHERE id = $1)`, campaignID).Scan(&exists); err != nil {
		return 0, fmt.Errorf("check campaign: %w", err)
	}
	if !exists {
		return 0, analytics.ErrNotFound
	}

	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM campaign_recipients WHERE campaign_id = $1`, campaignID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count recipients: %w", err)
	}
	return n, nil
}

func (r *AnalyticsRepo) DistinctEventRecipientCounts(ctx context.Context, campaignID string) (map[domain.TrackingEventType]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT event_type, COUNT(DISTINCT recipient_id)
		FROM tracking_events WHERE campaign_id = $1
		GROUP BY event_type
	`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("distinct event counts: %w", err)
	}
	defer rows.Close()

	out := make(map[domain.TrackingEventType]int)
	for rows.Next() {
		var t domain.TrackingEventType
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, fmt.Errorf("scan event count: %w", err)
		}
		out[t] = n
	}
	return out, rows.Err()
}

func (r *AnalyticsRepo) HourlyEventCounts(ctx context.Context, campaignID string) ([]analytics.HourBucket, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT date_trunc('hour', occurred_at AT TIME ZONE 'UTC') AS hour, event_type, COUNT(*)
		FROM tracking_events WHERE campaign_id = $1
		GROUP BY hour, event_type
		ORDER BY hour, event_type
	`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("hourly event counts: %w", err)
	}
	defer rows.Close()

	var out []analytics.HourBucket
	for rows.Next() {
		var b analytics.HourBucket
		if err := rows.Scan(&b.Hour, &b.EventType, &b.Count); err != nil {
			return nil, fmt.Errorf("scan hour bucket: %w", err)
		}
		b.Hour = b.Hour.UTC()
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *AnalyticsRepo) RecipientStatusCounts(ctx context.Context, campaignID string) (map[domain.RecipientStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT status, COUNT(*)
		FROM campaign_recipients WHERE campaign_id = $1
		GROUP BY status
	`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("status counts: %w", err)
	}
	defer rows.Close()

	out := make(map[domain.RecipientStatus]int)
	for rows.Next() {
		var s domain.RecipientStatus
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		out[s] = n
	}
	return out, rows.Err()
}
