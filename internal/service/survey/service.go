package survey

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/nps-engine/internal/domain"
	"github.com/ignite/nps-engine/internal/service/nps"
)

// Service implements survey business logic. All public methods are safe for
// concurrent use if the underlying repository is concurrency-safe.
type Service struct {
	repo Repository
}

// NewService creates a survey service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns a single survey.
func (s *Service) Get(ctx context.Context, id string) (*domain.Survey, error) {
	return s.repo.GetSurvey(ctx, id)
}

// List returns all surveys.
func (s *Service) List(ctx context.Context) ([]domain.Survey, error) {
	return s.repo.ListSurveys(ctx)
}

// Create validates and persists a new active survey.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.Survey, error) {
	if input.Title == "" {
		return nil, ErrMissingTitle
	}

	sv := &domain.Survey{
		ID:          uuid.New().String(),
		Title:       input.Title,
		Description: input.Description,
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	id, err := s.repo.CreateSurvey(ctx, sv)
	if err != nil {
		return nil, err
	}
	sv.ID = id
	return sv, nil
}

// SetActive toggles whether the survey accepts new responses.
func (s *Service) SetActive(ctx context.Context, id string, active bool) error {
	return s.repo.SetSurveyActive(ctx, id, active)
}

// SubmitResponse validates and records one NPS submission. Scores outside
// 0-10 are rejected with ErrInvalidScore and never reach storage; inactive
// surveys reject submissions with ErrInactive.
func (s *Service) SubmitResponse(ctx context.Context, surveyID string, input ResponseInput) (*domain.SurveyResponse, error) {
	sv, err := s.repo.GetSurvey(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	if !sv.IsActive {
		return nil, ErrInactive
	}

	r := &domain.SurveyResponse{
		ID:        uuid.New().String(),
		SurveyID:  sv.ID,
		Score:     input.Score,
		Feedback:  input.Feedback,
		Email:     input.Email,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %d", ErrInvalidScore, input.Score)
	}

	if err := s.repo.AddResponse(ctx, r); err != nil {
		return nil, fmt.Errorf("add response: %w", err)
	}
	return r, nil
}

// Responses returns recorded responses, newest first.
func (s *Service) Responses(ctx context.Context, surveyID string, limit, offset int) ([]domain.SurveyResponse, int, error) {
	if _, err := s.repo.GetSurvey(ctx, surveyID); err != nil {
		return nil, 0, err
	}
	return s.repo.ListResponses(ctx, surveyID, limit, offset)
}

// Analytics computes the NPS result over every response recorded so far.
func (s *Service) Analytics(ctx context.Context, surveyID string) (nps.Result, error) {
	if _, err := s.repo.GetSurvey(ctx, surveyID); err != nil {
		return nps.Result{}, err
	}
	scores, err := s.repo.ResponseScores(ctx, surveyID)
	if err != nil {
		return nps.Result{}, fmt.Errorf("load scores: %w", err)
	}
	return nps.Compute(scores), nil
}

// CreateInput holds the fields for creating a new survey.
type CreateInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ResponseInput holds one NPS submission.
type ResponseInput struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback,omitempty"`
	Email    string `json:"email,omitempty"`
}
