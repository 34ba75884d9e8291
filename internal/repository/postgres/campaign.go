// Package postgres implements the service repository interfaces against
// PostgreSQL via database/sql and lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/ignite/nps-engine/internal/domain"
	"github.com/ignite/nps-engine/internal/service/campaign"
)

// CampaignRepo implements campaign.Repository against PostgreSQL.
type CampaignRepo struct{ db *sql.DB }

// NewCampaignRepo creates a Postgres-backed campaign repository.
func NewCampaignRepo(db *sql.DB) *CampaignRepo { return &CampaignRepo{db: db} }

func (r *CampaignRepo) GetCampaign(ctx context.Context, id string) (*domain.Campaign, error) {
	c := &domain.Campaign{}
	err := r.db.QueryRowContext(ctx, `
		SELECT c.id, c.name, c.subject, COALESCE(c.from_name,''), COALESCE(c.from_email,''),
		       COALESCE(c.html_content,''), COALESCE(c.text_content,''),
		       c.status, c.scheduled_at, c.sent_at, c.created_at, c.updated_at,
		       (SELECT COUNT(*) FROM campaign_recipients r WHERE r.campaign_id = c.id)
		FROM campaigns c
		WHERE c.id = $1
	`, id).Scan(
		&c.ID, &c.Name, &c.Subject, &c.FromName, &c.FromEmail,
		&c.HTMLContent, &c.TextContent,
		&c.Status, &c.ScheduledAt, &c.SentAt, &c.CreatedAt, &c.UpdatedAt,
		&c.RecipientCount,
	)
	if err == sql.ErrNoRows {
		return nil, campaign.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	return c, nil
}

func (r *CampaignRepo) ListCampaigns(ctx context.Context, f campaign.ListFilter) ([]domain.Campaign, int, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	countQ := `SELECT COUNT(*) FROM campaigns`
	args := []interface{}{}
	if f.Status != "" {
		countQ += ` WHERE status = $1`
		args = append(args, f.Status)
	}
	var total int
	if err := r.db.QueryRowContext(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count campaigns: %w", err)
	}

	q := `
		SELECT c.id, c.name, c.subject, COALESCE(c.from_name,''), COALESCE(c.from_email,''),
		       c.status, c.scheduled_at, c.sent_at, c.created_at, c.updated_at,
		       (SELECT COUNT(*) FROM campaign_recipients r WHERE r.campaign_id = c.id)
		FROM campaigns c`
	qArgs := []interface{}{}
	idx := 1
	if f.Status != "" {
		q += fmt.Sprintf(" WHERE c.status = $%d", idx)
		qArgs = append(qArgs, f.Status)
		idx++
	}
	q += fmt.Sprintf(" ORDER BY c.created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	qArgs = append(qArgs, limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, q, qArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	var out []domain.Campaign
	for rows.Next() {
		var c domain.Campaign
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Subject, &c.FromName, &c.FromEmail,
			&c.Status, &c.ScheduledAt, &c.SentAt, &c.CreatedAt, &c.UpdatedAt,
			&c.RecipientCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan campaign: %w", err)
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *CampaignRepo) CreateCampaign(ctx context.Context, c *domain.Campaign) (string, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO campaigns (id, name, subject, from_name, from_email,
		                       html_content, text_content, status, scheduled_at,
		                       created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, c.ID, c.Name, c.Subject, c.FromName, c.FromEmail,
		c.HTMLContent, c.TextContent, c.Status, c.ScheduledAt,
		c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return "", fmt.Errorf("insert campaign: %w", err)
	}
	return c.ID, nil
}

// TransitionStatus moves the campaign to the target status in one guarded
// UPDATE: the row only changes when its current status is a legal source for
// the target, so concurrent transitions cannot race past the lifecycle table.
func (r *CampaignRepo) TransitionStatus(ctx context.Context, id string, to domain.CampaignStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE campaigns SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = ANY($3)
	`, id, to, pq.Array(transitionSources(to)))
	if err != nil {
		return fmt.Errorf("transition campaign: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("transition campaign: %w", err)
	}
	if n == 0 {
		return r.notFoundOrInvalid(ctx, id)
	}
	return nil
}

func (r *CampaignRepo) SetSchedule(ctx context.Context, id string, at *time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE campaigns SET scheduled_at = $2, updated_at = NOW() WHERE id = $1
	`, id, at)
	if err != nil {
		return fmt.Errorf("set schedule: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return campaign.ErrNotFound
	}
	return nil
}

func (r *CampaignRepo) MarkCampaignSent(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE campaigns SET status = 'sent', sent_at = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'sending'
	`, id, at)
	if err != nil {
		return fmt.Errorf("mark campaign sent: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark campaign sent: %w", err)
	}
	if n == 0 {
		return r.notFoundOrInvalid(ctx, id)
	}
	return nil
}

func (r *CampaignRepo) ListDueScheduled(ctx context.Context, now time.Time) ([]domain.Campaign, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, subject, status, scheduled_at, created_at, updated_at
		FROM campaigns
		WHERE status = 'scheduled' AND scheduled_at <= $1
		ORDER BY scheduled_at
	`, now)
	if err != nil {
		return nil, fmt.Errorf("list due scheduled: %w", err)
	}
	defer rows.Close()

	var out []domain.Campaign
	for rows.Next() {
		var c domain.Campaign
		if err := rows.Scan(&c.ID, &c.Name, &c.Subject, &c.Status,
			&c.ScheduledAt, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan due campaign: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CampaignRepo) notFoundOrInvalid(ctx context.Context, id string) error {
	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM campaigns WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check campaign: %w", err)
	}
	if !exists {
		return campaign.ErrNotFound
	}
	return campaign.ErrInvalidTransition
}

// transitionSources lists the statuses from which the lifecycle table allows
// moving to the target, derived from the same table the services use.
func transitionSources(to domain.CampaignStatus) []string {
	all := []domain.CampaignStatus{
		domain.CampaignDraft, domain.CampaignScheduled, domain.CampaignSending,
		domain.CampaignSent, domain.CampaignPaused, domain.CampaignCancelled,
	}
	var out []string
	for _, from := range all {
		c := domain.Campaign{Status: from}
		if c.CanTransition(to) {
			out = append(out, string(from))
		}
	}
	return out
}
