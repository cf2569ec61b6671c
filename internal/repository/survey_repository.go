package repository

import (
	"context"

	"github.com/formpulse/formpulse-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SurveyRepository handles survey data access.
type SurveyRepository struct {
	pool *pgxpool.Pool
}

// NewSurveyRepository creates a new SurveyRepository.
func NewSurveyRepository(pool *pgxpool.Pool) *SurveyRepository {
	return &SurveyRepository{pool: pool}
}

// GetByID retrieves a survey by its UUID.
func (r *SurveyRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Survey, error) {
	s := &model.Survey{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, description, owner_id, status, created_at, updated_at
		 FROM surveys WHERE id = $1`, id,
	).Scan(&s.ID, &s.Title, &s.Description, &s.OwnerID, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ListByOwnerPaginated retrieves surveys filtered by owner with pagination.
func (r *SurveyRepository) ListByOwnerPaginated(ctx context.Context, ownerID, limit, offset int) ([]model.Survey, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM surveys WHERE owner_id = $1`, ownerID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, title, description, owner_id, status, created_at, updated_at
		 FROM surveys WHERE owner_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		ownerID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var surveys []model.Survey
	for rows.Next() {
		var s model.Survey
		if err := rows.Scan(&s.ID, &s.Title, &s.Description, &s.OwnerID, &s.Status,
			&s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, 0, err
		}
		surveys = append(surveys, s)
	}
	return surveys, total, rows.Err()
}

// Create inserts a new survey.
func (r *SurveyRepository) Create(ctx context.Context, s *model.Survey) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO surveys (title, description, owner_id, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		s.Title, s.Description, s.OwnerID, s.Status,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

// Update modifies a survey's editable fields.
func (r *SurveyRepository) Update(ctx context.Context, s *model.Survey) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE surveys SET title = $1, description = $2, updated_at = NOW() WHERE id = $3`,
		s.Title, s.Description, s.ID)
	return err
}

// UpdateStatus updates a survey's lifecycle status.
func (r *SurveyRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.SurveyStatus) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE surveys SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, id)
	return err
}

// Delete removes a survey. Questions, permissions and responses cascade.
func (r *SurveyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM surveys WHERE id = $1`, id)
	return err
}

// ListPublished returns all surveys with PUBLISHED status.
// Used for cache prewarming on application startup.
func (r *SurveyRepository) ListPublished(ctx context.Context) ([]model.Survey, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, description, owner_id, status, created_at, updated_at
		 FROM surveys WHERE status = $1
		 ORDER BY created_at DESC`, model.SurveyStatusPublished)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var surveys []model.Survey
	for rows.Next() {
		var s model.Survey
		if err := rows.Scan(&s.ID, &s.Title, &s.Description, &s.OwnerID, &s.Status,
			&s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		surveys = append(surveys, s)
	}
	return surveys, rows.Err()
}
