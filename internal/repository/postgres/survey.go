package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/nps-engine/internal/domain"
	"github.com/ignite/nps-engine/internal/service/survey"
)

// SurveyRepo implements survey.Repository against PostgreSQL.
type SurveyRepo struct{ db *sql.DB }

// NewSurveyRepo creates a Postgres-backed survey repository.
func NewSurveyRepo(db *sql.DB) *SurveyRepo { return &SurveyRepo{db: db} }

func (r *SurveyRepo) GetSurvey(ctx context.Context, id string) (*domain.Survey, error) {
	s := &domain.Survey{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, title, COALESCE(description,''), is_active, created_at, updated_at
		FROM surveys WHERE id = $1
	`, id).Scan(&s.ID, &s.Title, &s.Description, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, survey.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get survey: %w", err)
	}
	return s, nil
}

func (r *SurveyRepo) ListSurveys(ctx context.Context) ([]domain.Survey, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, COALESCE(description,''), is_active, created_at, updated_at
		FROM surveys ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list surveys: %w", err)
	}
	defer rows.Close()

	var out []domain.Survey
	for rows.Next() {
		var s domain.Survey
		if err := rows.Scan(&s.ID, &s.Title, &s.Description, &s.IsActive,
			&s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan survey: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SurveyRepo) CreateSurvey(ctx context.Context, s *domain.Survey) (string, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO surveys (id, title, description, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, s.ID, s.Title, s.Description, s.IsActive, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return "", fmt.Errorf("insert survey: %w", err)
	}
	return s.ID, nil
}

func (r *SurveyRepo) SetSurveyActive(ctx context.Context, id string, active bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE surveys SET is_active = $2, updated_at = NOW() WHERE id = $1
	`, id, active)
	if err != nil {
		return fmt.Errorf("set survey active: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return survey.ErrNotFound
	}
	return nil
}

func (r *SurveyRepo) AddResponse(ctx context.Context, resp *domain.SurveyResponse) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO survey_responses (id, survey_id, score, feedback, email, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, resp.ID, resp.SurveyID, resp.Score, resp.Feedback, resp.Email, resp.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert response: %w", err)
	}
	return nil
}

func (r *SurveyRepo) ListResponses(ctx context.Context, surveyID string, limit, offset int) ([]domain.SurveyResponse, int, error) {
	if limit <= 0 {
		limit = 50
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM survey_responses WHERE survey_id = $1`, surveyID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count responses: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, survey_id, score, COALESCE(feedback,''), COALESCE(email,''), created_at
		FROM survey_responses WHERE survey_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, surveyID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list responses: %w", err)
	}
	defer rows.Close()

	var out []domain.SurveyResponse
	for rows.Next() {
		var resp domain.SurveyResponse
		if err := rows.Scan(&resp.ID, &resp.SurveyID, &resp.Score,
			&resp.Feedback, &resp.Email, &resp.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan response: %w", err)
		}
		out = append(out, resp)
	}
	return out, total, rows.Err()
}

func (r *SurveyRepo) ResponseScores(ctx context.Context, surveyID string) ([]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT score FROM survey_responses WHERE survey_id = $1`, surveyID)
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	defer rows.Close()

	var scores []int
	for rows.Next() {
		var s int
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		scores = append(scores, s)
	}
	return scores, rows.Err()
}
