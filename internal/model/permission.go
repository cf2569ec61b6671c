package model

import (
	"time"

	"github.com/formpulse/formpulse-backend/internal/access"
	"github.com/google/uuid"
)

// SurveyPermission is the stored access-control record for a survey. Exactly
// one exists per survey; it is created with the survey (public, inactive) and
// replaced wholesale on update, never partially mutated.
type SurveyPermission struct {
	SurveyID       uuid.UUID             `json:"survey_id"`
	PermissionType access.PermissionType `json:"permission_type"`
	AllowedEmails  []string              `json:"allowed_emails,omitempty"`
	PasswordHash   string                `json:"-"`
	HasPassword    bool                  `json:"has_password"`
	StartDate      *time.Time            `json:"start_date,omitempty"`
	EndDate        *time.Time            `json:"end_date,omitempty"`
	IsActive       bool                  `json:"is_active"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// ToAccess projects the stored record into the evaluator's input shape.
func (p *SurveyPermission) ToAccess() access.Permission {
	return access.Permission{
		SurveyID:      p.SurveyID,
		Type:          p.PermissionType,
		AllowedEmails: p.AllowedEmails,
		PasswordHash:  p.PasswordHash,
		StartDate:     p.StartDate,
		EndDate:       p.EndDate,
		IsActive:      p.IsActive,
	}
}

// Protected reports whether an allow decision should be accompanied by a
// grant token so the respondent does not resend credentials per request.
func (p *SurveyPermission) Protected() bool {
	return p.PasswordHash != "" || p.PermissionType == access.TypeRestricted
}

// UpdatePermissionRequest replaces a survey's permission record. Password is
// plaintext here and hashed at the service boundary; an empty string keeps
// the survey password-less, since permissions are replaced whole.
type UpdatePermissionRequest struct {
	PermissionType string     `json:"permission_type" binding:"required,oneof=public url_access authenticated restricted"`
	AllowedEmails  []string   `json:"allowed_emails" binding:"omitempty,dive,email"`
	Password       string     `json:"password" binding:"omitempty,min=4,max=72"`
	StartDate      *time.Time `json:"start_date" binding:"omitempty"`
	EndDate        *time.Time `json:"end_date" binding:"omitempty,gtfield=StartDate"`
}
