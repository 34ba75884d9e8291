package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/nps-engine/internal/domain"
	"github.com/ignite/nps-engine/internal/service/ledger"
)

// LedgerRepo implements ledger.Repository against PostgreSQL.
type LedgerRepo struct{ db *sql.DB }

// NewLedgerRepo creates a Postgres-backed recipient ledger repository.
func NewLedgerRepo(db *sql.DB) *LedgerRepo { return &LedgerRepo{db: db} }

func (r *LedgerRepo) InsertRecipients(ctx context.Context, rs []domain.Recipient) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert recipients: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO campaign_recipients (id, campaign_id, email, first_name, last_name,
		                                 status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert recipients: %w", err)
	}
	defer stmt.Close()

	for _, rec := range rs {
		if _, err := stmt.ExecContext(ctx, rec.ID, rec.CampaignID, rec.Email,
			rec.FirstName, rec.LastName, rec.Status, rec.CreatedAt, rec.UpdatedAt); err != nil {
			return fmt.Errorf("insert recipient %s: %w", rec.ID, err)
		}
	}
	return tx.Commit()
}

func (r *LedgerRepo) GetRecipient(ctx context.Context, id string) (*domain.Recipient, error) {
	rec := &domain.Recipient{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, campaign_id, email, COALESCE(first_name,''), COALESCE(last_name,''),
		       status, sent_at, opened_at, clicked_at, COALESCE(bounce_reason,''),
		       created_at, updated_at
		FROM campaign_recipients WHERE id = $1
	`, id).Scan(
		&rec.ID, &rec.CampaignID, &rec.Email, &rec.FirstName, &rec.LastName,
		&rec.Status, &rec.SentAt, &rec.OpenedAt, &rec.ClickedAt, &rec.BounceReason,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get recipient: %w", err)
	}
	return rec, nil
}

func (r *LedgerRepo) ListRecipients(ctx context.Context, campaignID string, status domain.RecipientStatus) ([]domain.Recipient, error) {
	q := `
		SELECT id, campaign_id, email, COALESCE(first_name,''), COALESCE(last_name,''),
		       status, sent_at, opened_at, clicked_at, COALESCE(bounce_reason,''),
		       created_at, updated_at
		FROM campaign_recipients WHERE campaign_id = $1`
	args := []interface{}{campaignID}
	if status != "" {
		q += ` AND status = $2`
		args = append(args, status)
	}
	q += ` ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list recipients: %w", err)
	}
	defer rows.Close()

	var out []domain.Recipient
	for rows.Next() {
		var rec domain.Recipient
		if err := rows.Scan(
			&rec.ID, &rec.CampaignID, &rec.Email, &rec.FirstName, &rec.LastName,
			&rec.Status, &rec.SentAt, &rec.OpenedAt, &rec.ClickedAt, &rec.BounceReason,
			&rec.CreatedAt, &rec.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan recipient: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *LedgerRepo) RecipientEmails(ctx context.Context, campaignID string) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT email FROM campaign_recipients WHERE campaign_id = $1`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list recipient emails: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]bool)
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("scan email: %w", err)
		}
		seen[email] = true
	}
	return seen, rows.Err()
}

// UpdateRecipient runs mutate under a SELECT ... FOR UPDATE row lock, so
// concurrent callbacks for the same recipient serialize at the database.
func (r *LedgerRepo) UpdateRecipient(ctx context.Context, id string, mutate func(*domain.Recipient) error) (*domain.Recipient, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update recipient: %w", err)
	}
	defer tx.Rollback()

	rec := &domain.Recipient{}
	err = tx.QueryRowContext(ctx, `
		SELECT id, campaign_id, email, COALESCE(first_name,''), COALESCE(last_name,''),
		       status, sent_at, opened_at, clicked_at, COALESCE(bounce_reason,''),
		       created_at, updated_at
		FROM campaign_recipients WHERE id = $1
		FOR UPDATE
	`, id).Scan(
		&rec.ID, &rec.CampaignID, &rec.Email, &rec.FirstName, &rec.LastName,
		&rec.Status, &rec.SentAt, &rec.OpenedAt, &rec.ClickedAt, &rec.BounceReason,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock recipient: %w", err)
	}

	if err := mutate(rec); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE campaign_recipients
		SET status = $2, sent_at = $3, opened_at = $4, clicked_at = $5,
		    bounce_reason = $6, updated_at = $7
		WHERE id = $1
	`, rec.ID, rec.Status, rec.SentAt, rec.OpenedAt, rec.ClickedAt,
		rec.BounceReason, rec.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update recipient: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update recipient: %w", err)
	}
	return rec, nil
}

func (r *LedgerRepo) AppendEvent(ctx context.Context, ev *domain.TrackingEvent) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tracking_events (id, recipient_id, campaign_id, event_type, occurred_at, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, ev.ID, ev.RecipientID, ev.CampaignID, ev.EventType, ev.OccurredAt, []byte(ev.Payload))
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}
