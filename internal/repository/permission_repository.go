package repository

import (
	"context"

	"github.com/formpulse/formpulse-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PermissionRepository handles survey permission data access.
type PermissionRepository struct {
	pool *pgxpool.Pool
}

// NewPermissionRepository creates a new PermissionRepository.
func NewPermissionRepository(pool *pgxpool.Pool) *PermissionRepository {
	return &PermissionRepository{pool: pool}
}

// Create inserts the permission record that accompanies a new survey.
func (r *PermissionRepository) Create(ctx context.Context, p *model.SurveyPermission) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO survey_permissions
		   (survey_id, permission_type, allowed_emails, password_hash, start_date, end_date, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING updated_at`,
		p.SurveyID, p.PermissionType, p.AllowedEmails, p.PasswordHash,
		p.StartDate, p.EndDate, p.IsActive,
	).Scan(&p.UpdatedAt)
}

// GetBySurvey retrieves a survey's permission record.
func (r *PermissionRepository) GetBySurvey(ctx context.Context, surveyID uuid.UUID) (*model.SurveyPermission, error) {
	p := &model.SurveyPermission{}
	err := r.pool.QueryRow(ctx,
		`SELECT survey_id, permission_type, allowed_emails, password_hash,
		        start_date, end_date, is_active, updated_at
		 FROM survey_permissions WHERE survey_id = $1`, surveyID,
	).Scan(&p.SurveyID, &p.PermissionType, &p.AllowedEmails, &p.PasswordHash,
		&p.StartDate, &p.EndDate, &p.IsActive, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.HasPassword = p.PasswordHash != ""
	return p, nil
}

// Replace overwrites the whole permission record. Permissions are never
// partially mutated.
func (r *PermissionRepository) Replace(ctx context.Context, p *model.SurveyPermission) error {
	return r.pool.QueryRow(ctx,
		`UPDATE survey_permissions
		 SET permission_type = $1, allowed_emails = $2, password_hash = $3,
		     start_date = $4, end_date = $5, is_active = $6, updated_at = NOW()
		 WHERE survey_id = $7
		 RETURNING updated_at`,
		p.PermissionType, p.AllowedEmails, p.PasswordHash,
		p.StartDate, p.EndDate, p.IsActive, p.SurveyID,
	).Scan(&p.UpdatedAt)
}

// SetActive flips only the active flag, used by publish and close.
func (r *PermissionRepository) SetActive(ctx context.Context, surveyID uuid.UUID, active bool) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE survey_permissions SET is_active = $1, updated_at = NOW() WHERE survey_id = $2`,
		active, surveyID)
	return err
}
