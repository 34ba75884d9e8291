package tracking_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/nps-engine/internal/domain"
	"github.com/ignite/nps-engine/internal/repository/memory"
	"github.com/ignite/nps-engine/internal/service/ledger"
	"github.com/ignite/nps-engine/internal/tracking"
)

func newTestHandler(t *testing.T) (*tracking.Handler, *ledger.Service, string, domain.Recipient) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	led := ledger.NewService(store, store)

	now := time.Now().UTC()
	c := &domain.Campaign{
		ID:        uuid.New().String(),
		Name:      "tracked",
		Subject:   "s",
		Status:    domain.CampaignDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := store.CreateCampaign(ctx, c); err != nil {
		t.Fatalf("create campaign: %v", err)
	}
	if _, err := led.AddRecipients(ctx, c.ID, []ledger.RecipientInput{{Email: "a@example.com"}}); err != nil {
		t.Fatalf("add recipient: %v", err)
	}
	rs, _ := led.Recipients(ctx, c.ID)

	h := tracking.NewHandler(tracking.NewDirectSink(led))
	return h, led, c.ID, rs[0]
}

func TestOpenPixelRecordsEvent(t *testing.T) {
	h, led, campaignID, rec := newTestHandler(t)
	srv := httptest.NewServer(h.Routes())
	defer srv.Close()

	token := tracking.EncodeToken(campaignID, rec.ID)
	resp, err := http.Get(srv.URL + "/track/open/" + token)
	if err != nil {
		t.Fatalf("GET pixel: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/gif" {
		t.Errorf("content type = %s, want image/gif", ct)
	}

	got, _ := led.RecipientStatus(context.Background(), rec.ID)
	if got.Status != domain.RecipientOpened {
		t.Errorf("status = %s, want opened", got.Status)
	}
	if got.OpenedAt == nil {
		t.Error("OpenedAt not stamped")
	}
}

func TestOpenPixelMalformedTokenStillServesPixel(t *testing.T) {
	h, _, _, _ := newTestHandler(t)
	srv := httptest.NewServer(h.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/track/open/%21%21%21")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/gif" {
		t.Errorf("broken token must still serve the pixel, got %d %s",
			resp.StatusCode, resp.Header.Get("Content-Type"))
	}
}

func TestClickRedirectsAndRecords(t *testing.T) {
	h, led, campaignID, rec := newTestHandler(t)
	srv := httptest.NewServer(h.Routes())
	defer srv.Close()

	client := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	token := tracking.EncodeToken(campaignID, rec.ID)
	target := "https://example.com/offer?x=1"
	resp, err := client.Get(srv.URL + "/track/click/" + token + "?url=" + url.QueryEscape(target))
	if err != nil {
		t.Fatalf("GET click: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusTemporaryRedirect {
		t.Errorf("status = %d, want 307", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != target {
		t.Errorf("redirect = %s, want %s", loc, target)
	}

	got, _ := led.RecipientStatus(context.Background(), rec.ID)
	if got.Status != domain.RecipientClicked {
		t.Errorf("status = %s, want clicked", got.Status)
	}
}

func TestClickRejectsMissingURL(t *testing.T) {
	h, _, campaignID, rec := newTestHandler(t)
	srv := httptest.NewServer(h.Routes())
	defer srv.Close()

	token := tracking.EncodeToken(campaignID, rec.ID)
	resp, err := http.Get(srv.URL + "/track/click/" + token)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestWebhookBatch(t *testing.T) {
	h, led, campaignID, rec := newTestHandler(t)
	srv := httptest.NewServer(h.Routes())
	defer srv.Close()

	body := fmt.Sprintf(`[
		{"event_type":"delivered","campaign_id":%q,"recipient_id":%q},
		{"event_type":"bounced","campaign_id":%q,"recipient_id":"ignored-no-such","reason":"bad address"},
		{"event_type":"complained","campaign_id":%q,"recipient_id":%q}
	]`, campaignID, rec.ID, campaignID, campaignID, rec.ID)

	resp, err := http.Post(srv.URL+"/webhooks/events", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST webhook: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	got, _ := led.RecipientStatus(context.Background(), rec.ID)
	if got.Status != domain.RecipientDelivered {
		t.Errorf("status = %s, want delivered (complained skipped as unknown)", got.Status)
	}
}

func TestWebhookRejectsBadPayload(t *testing.T) {
	h, _, _, _ := newTestHandler(t)
	srv := httptest.NewServer(h.Routes())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/webhooks/events", "application/json", strings.NewReader("{not json"))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}
