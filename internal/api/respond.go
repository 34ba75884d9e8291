package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ignite/nps-engine/internal/service/analytics"
	"github.com/ignite/nps-engine/internal/service/campaign"
	"github.com/ignite/nps-engine/internal/service/ledger"
	"github.com/ignite/nps-engine/internal/service/survey"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service sentinel errors to HTTP status codes.
// Not-found errors become 404, lifecycle/state conflicts 409, validation
// failures 400, everything else 500.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, survey.ErrNotFound),
		errors.Is(err, campaign.ErrNotFound),
		errors.Is(err, ledger.ErrNotFound),
		errors.Is(err, ledger.ErrCampaignNotFound),
		errors.Is(err, analytics.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, campaign.ErrInvalidTransition),
		errors.Is(err, campaign.ErrNoRecipients),
		errors.Is(err, campaign.ErrAlreadySent),
		errors.Is(err, ledger.ErrCampaignNotDraft),
		errors.Is(err, survey.ErrInactive):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, survey.ErrInvalidScore),
		errors.Is(err, survey.ErrMissingTitle),
		errors.Is(err, ledger.ErrMissingEmail),
		errors.Is(err, campaign.ErrScheduleInPast),
		errors.Is(err, campaign.ErrMissingName),
		errors.Is(err, campaign.ErrMissingSubject):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// HealthCheck reports liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
