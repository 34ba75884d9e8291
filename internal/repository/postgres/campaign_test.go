package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ignite/nps-engine/internal/domain"
	"github.com/ignite/nps-engine/internal/service/campaign"
	"github.com/ignite/nps-engine/internal/service/ledger"
)

func newMock(t *testing.T) (*CampaignRepo, *LedgerRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewCampaignRepo(db), NewLedgerRepo(db), mock
}

func TestTransitionStatusGuardedUpdate(t *testing.T) {
	repo, _, mock := newMock(t)

	mock.ExpectExec(`UPDATE campaigns SET status`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.TransitionStatus(context.Background(), "c1", domain.CampaignSending); err != nil {
		t.Fatalf("TransitionStatus: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestTransitionStatusInvalidFromState(t *testing.T) {
	repo, _, mock := newMock(t)

	// Guard matched no row but the campaign exists: illegal transition.
	mock.ExpectExec(`UPDATE campaigns SET status`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	err := repo.TransitionStatus(context.Background(), "c1", domain.CampaignSent)
	if !errors.Is(err, campaign.ErrInvalidTransition) {
		t.Errorf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestTransitionStatusUnknownCampaign(t *testing.T) {
	repo, _, mock := newMock(t)

	mock.ExpectExec(`UPDATE campaigns SET status`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	err := repo.TransitionStatus(context.Background(), "missing", domain.CampaignSending)
	if !errors.Is(err, campaign.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestTransitionSourcesMatchLifecycle(t *testing.T) {
	got := transitionSources(domain.CampaignSending)
	want := map[string]bool{"draft": true, "scheduled": true, "sending": true, "paused": true}
	if len(got) != len(want) {
		t.Fatalf("sources for sending = %v", got)
	}
	for _, s := range got {
		if !want[s] {
			t.Errorf("unexpected source %q", s)
		}
	}

	if got := transitionSources(domain.CampaignSent); len(got) != 1 || got[0] != "sending" {
		t.Errorf("sources for sent = %v, want [sending]", got)
	}
}

func TestUpdateRecipientLocksRow(t *testing.T) {
	_, repo, mock := newMock(t)
	now := time.Now().UTC()

	cols := []string{"id", "campaign_id", "email", "first_name", "last_name",
		"status", "sent_at", "opened_at", "clicked_at", "bounce_reason",
		"created_at", "updated_at"}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM campaign_recipients WHERE id = \$1\s+FOR UPDATE`).
		WithArgs("r1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("r1", "c1", "a@example.com", "", "",
				"pending", nil, nil, nil, "", now, now))
	mock.ExpectExec(`UPDATE campaign_recipients`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rec, err := repo.UpdateRecipient(context.Background(), "r1", func(r *domain.Recipient) error {
		r.Status = domain.RecipientSent
		return nil
	})
	if err != nil {
		t.Fatalf("UpdateRecipient: %v", err)
	}
	if rec.Status != domain.RecipientSent {
		t.Errorf("status = %s, want sent", rec.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestUpdateRecipientNotFound(t *testing.T) {
	_, repo, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM campaign_recipients`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := repo.UpdateRecipient(context.Background(), "missing", func(*domain.Recipient) error {
		t.Fatal("mutate must not run for a missing recipient")
		return nil
	})
	if !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
