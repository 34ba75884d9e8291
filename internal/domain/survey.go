package domain

import (
	"fmt"
	"time"
)

// Survey represents an NPS survey that collects 0-10 scores from respondents.
type Survey struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// SurveyResponse is a single submitted NPS score. Immutable once created.
type SurveyResponse struct {
	ID        string    `json:"id" db:"id"`
	SurveyID  string    `json:"survey_id" db:"survey_id"`
	Score     int       `json:"score" db:"score"`
	Feedback  string    `json:"feedback,omitempty" db:"feedback"`
	Email     string    `json:"email,omitempty" db:"email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Validate checks the score invariant. Responses with scores outside 0-10
// are rejected at ingestion and never reach the scoring engine.
func (r *SurveyResponse) Validate() error {
	if r.Score < 0 || r.Score > 10 {
		return fmt.Errorf("score must be between 0 and 10, got %d", r.Score)
	}
	return nil
}
