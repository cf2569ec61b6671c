package repository

import (
	"context"
	"encoding/json"

	"github.com/formpulse/formpulse-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ResponseRepository handles survey response data access. Answers live in
// their own table so the autosave worker can upsert them in bulk; reads
// fold them back into a question_id → value map.
type ResponseRepository struct {
	pool *pgxpool.Pool
}

// NewResponseRepository creates a new ResponseRepository.
func NewResponseRepository(pool *pgxpool.Pool) *ResponseRepository {
	return &ResponseRepository{pool: pool}
}

// Create opens a new in-progress response.
func (r *ResponseRepository) Create(ctx context.Context, resp *model.SurveyResponse) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO responses (survey_id, respondent_id, status, device, location, age_bracket)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, started_at`,
		resp.SurveyID, resp.RespondentID, resp.Status,
		resp.Device, resp.Location, resp.AgeBracket,
	).Scan(&resp.ID, &resp.StartedAt)
}

// GetByID retrieves a single response without its answers.
func (r *ResponseRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.SurveyResponse, error) {
	resp := &model.SurveyResponse{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, survey_id, respondent_id, status, started_at, completed_at,
		        device, location, age_bracket
		 FROM responses WHERE id = $1`, id,
	).Scan(&resp.ID, &resp.SurveyID, &resp.RespondentID, &resp.Status,
		&resp.StartedAt, &resp.CompletedAt, &resp.Device, &resp.Location, &resp.AgeBracket)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// ListBySurvey returns every response for a survey with answers folded in,
// ordered by start time. This is the analytics read path.
func (r *ResponseRepository) ListBySurvey(ctx context.Context, surveyID uuid.UUID) ([]model.SurveyResponse, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT r.id, r.survey_id, r.respondent_id, r.status, r.started_at, r.completed_at,
		        r.device, r.location, r.age_bracket,
		        COALESCE(
		          jsonb_object_agg(a.question_id::text, a.value)
		            FILTER (WHERE a.question_id IS NOT NULL),
		          '{}'::jsonb),
		        COALESCE(
		          jsonb_object_agg(a.question_id::text, a.seconds_spent)
		            FILTER (WHERE a.seconds_spent IS NOT NULL),
		          '{}'::jsonb)
		 FROM responses r
		 LEFT JOIN answers a ON a.response_id = r.id
		 WHERE r.survey_id = $1
		 GROUP BY r.id
		 ORDER BY r.started_at ASC`, surveyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var responses []model.SurveyResponse
	for rows.Next() {
		var resp model.SurveyResponse
		var answersJSON, secondsJSON []byte
		if err := rows.Scan(&resp.ID, &resp.SurveyID, &resp.RespondentID, &resp.Status,
			&resp.StartedAt, &resp.CompletedAt, &resp.Device, &resp.Location, &resp.AgeBracket,
			&answersJSON, &secondsJSON); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(answersJSON, &resp.Answers); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(secondsJSON, &resp.QuestionSeconds); err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}
	return responses, rows.Err()
}

// CountBySurvey returns total and completed response counts in one round trip.
func (r *ResponseRepository) CountBySurvey(ctx context.Context, surveyID uuid.UUID) (total, completed int, err error) {
	err = r.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE status = $2)
		 FROM responses WHERE survey_id = $1`,
		surveyID, model.ResponseStatusCompleted,
	).Scan(&total, &completed)
	return
}
