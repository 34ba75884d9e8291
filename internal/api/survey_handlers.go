package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/nps-engine/internal/service/survey"
)

// ListSurveys returns every survey, newest first.
func (h *Handlers) ListSurveys(w http.ResponseWriter, r *http.Request) {
	surveys, err := h.surveys.List(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"surveys": surveys})
}

// CreateSurvey creates a survey. New surveys start active.
func (h *Handlers) CreateSurvey(w http.ResponseWriter, r *http.Request) {
	var input survey.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s, err := h.surveys.Create(r.Context(), input)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, s)
}

// GetSurvey returns one survey.
func (h *Handlers) GetSurvey(w http.ResponseWriter, r *http.Request) {
	s, err := h.surveys.Get(r.Context(), chi.URLParam(r, "surveyID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, s)
}

// SetSurveyActive toggles whether a survey accepts new responses.
func (h *Handlers) SetSurveyActive(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.surveys.SetActive(r.Context(), chi.URLParam(r, "surveyID"), input.Active); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"active": input.Active})
}

// SubmitResponse ingests one NPS score for a survey.
func (h *Handlers) SubmitResponse(w http.ResponseWriter, r *http.Request) {
	var input survey.ResponseInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	resp, err := h.surveys.SubmitResponse(r.Context(), chi.URLParam(r, "surveyID"), input)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, resp)
}

// ListResponses returns a survey's responses, paginated, newest first.
func (h *Handlers) ListResponses(w http.ResponseWriter, r *http.Request) {
	params := ParsePagination(r, 50, 500)
	responses, total, err := h.surveys.Responses(r.Context(), chi.URLParam(r, "surveyID"), params.Limit, params.Offset)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, NewPaginatedResponse(responses, params, total))
}

// SurveyAnalytics returns the survey's NPS breakdown.
func (h *Handlers) SurveyAnalytics(w http.ResponseWriter, r *http.Request) {
	result, err := h.surveys.Analytics(r.Context(), chi.URLParam(r, "surveyID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
