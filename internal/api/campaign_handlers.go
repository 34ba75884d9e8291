package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/nps-engine/internal/domain"
	"github.com/ignite/nps-engine/internal/service/analytics"
	"github.com/ignite/nps-engine/internal/service/campaign"
	"github.com/ignite/nps-engine/internal/service/ledger"
)

// ListCampaigns returns campaigns, optionally filtered by ?status=.
func (h *Handlers) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	params := ParsePagination(r, 50, 200)
	campaigns, total, err := h.campaigns.List(r.Context(), campaign.ListFilter{
		Status: r.URL.Query().Get("status"),
		Limit:  params.Limit,
		Offset: params.Offset,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, NewPaginatedResponse(campaigns, params, total))
}

// CreateCampaign creates a draft campaign, optionally seeding recipients and
// a schedule in the same call.
func (h *Handlers) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var input campaign.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c, err := h.campaigns.Create(r.Context(), input)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, c)
}

// GetCampaign returns one campaign with live engagement counters and its
// recipient ledger embedded.
func (h *Handlers) GetCampaign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c, err := h.campaigns.Get(ctx, chi.URLParam(r, "campaignID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	counters, err := h.analytics.Counters(ctx, c.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	c.RecipientCount = counters.RecipientCount
	c.DeliveredCount = counters.DeliveredCount
	c.OpenedCount = counters.OpenedCount
	c.ClickedCount = counters.ClickedCount
	c.BouncedCount = counters.BouncedCount

	recipients, err := h.ledger.Recipients(ctx, c.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, struct {
		*domain.Campaign
		Recipients []domain.Recipient `json:"recipients"`
	}{c, recipients})
}

// AddRecipients appends recipients to a draft campaign.
func (h *Handlers) AddRecipients(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Recipients []ledger.RecipientInput `json:"recipients"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	added, err := h.campaigns.AddRecipients(r.Context(), chi.URLParam(r, "campaignID"), input.Recipients)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"added": added})
}

// ListRecipients returns a campaign's ledger, optionally filtered by status.
func (h *Handlers) ListRecipients(w http.ResponseWriter, r *http.Request) {
	recipients, err := h.ledger.Recipients(r.Context(), chi.URLParam(r, "campaignID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"recipients": recipients})
}

// GetRecipient returns one recipient's delivery state.
func (h *Handlers) GetRecipient(w http.ResponseWriter, r *http.Request) {
	rec, err := h.ledger.RecipientStatus(r.Context(), chi.URLParam(r, "recipientID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

// ScheduleCampaign sets a future send time.
func (h *Handlers) ScheduleCampaign(w http.ResponseWriter, r *http.Request) {
	var input struct {
		ScheduledAt time.Time `json:"scheduled_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.campaigns.Schedule(r.Context(), chi.URLParam(r, "campaignID"), input.ScheduledAt); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"scheduled_at": input.ScheduledAt})
}

// SendCampaign initiates (or retries) asynchronous dispatch.
func (h *Handlers) SendCampaign(w http.ResponseWriter, r *http.Request) {
	queued, err := h.campaigns.Send(r.Context(), chi.URLParam(r, "campaignID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"status": "sending",
		"queued": queued,
	})
}

// PauseCampaign halts dispatch.
func (h *Handlers) PauseCampaign(w http.ResponseWriter, r *http.Request) {
	if err := h.campaigns.Pause(r.Context(), chi.URLParam(r, "campaignID")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "paused"})
}

// ResumeCampaign restarts dispatch for a paused campaign.
func (h *Handlers) ResumeCampaign(w http.ResponseWriter, r *http.Request) {
	if err := h.campaigns.Resume(r.Context(), chi.URLParam(r, "campaignID")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "sending"})
}

// CancelCampaign terminates a campaign.
func (h *Handlers) CancelCampaign(w http.ResponseWriter, r *http.Request) {
	if err := h.campaigns.Cancel(r.Context(), chi.URLParam(r, "campaignID")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// CampaignAnalytics returns the full engagement report: a single campaign
// object holding the unique-recipient counters and display rates as whole
// percents, plus the hourly event timeline and the live status breakdown.
func (h *Handlers) CampaignAnalytics(w http.ResponseWriter, r *http.Request) {
	report, err := h.analytics.Campaign(r.Context(), chi.URLParam(r, "campaignID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"campaign": struct {
			analytics.Counters
			analytics.RatePercents
		}{report.Counters, report.Rates.Percents()},
		"tracking_events":  report.Timeline,
		"status_breakdown": report.StatusBreakdown,
	})
}
