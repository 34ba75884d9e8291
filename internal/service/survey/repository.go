package survey

import (
	"context"

	"github.com/ignite/nps-engine/internal/domain"
)

// Repository defines the data access contract for surveys and their
// responses. Implementations must be safe for concurrent use.
type Repository interface {
	// GetSurvey returns a single survey. Returns ErrNotFound if it doesn't exist.
	GetSurvey(ctx context.Context, id string) (*domain.Survey, error)

	// ListSurveys returns all surveys ordered by created_at DESC.
	ListSurveys(ctx context.Context) ([]domain.Survey, error)

	// CreateSurvey inserts a new survey and returns its ID.
	CreateSurvey(ctx context.Context, s *domain.Survey) (string, error)

	// SetSurveyActive toggles whether a survey accepts responses.
	SetSurveyActive(ctx context.Context, id string, active bool) error

	// AddResponse appends an immutable response row.
	AddResponse(ctx context.Context, r *domain.SurveyResponse) error

	// ListResponses returns responses for a survey, newest first.
	ListResponses(ctx context.Context, surveyID string, limit, offset int) ([]domain.SurveyResponse, int, error)

	// ResponseScores returns every score recorded for a survey.
	ResponseScores(ctx context.Context, surveyID string) ([]int, error)
}
