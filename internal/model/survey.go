package model

import (
	"time"

	"github.com/google/uuid"
)

// SurveyStatus enumerates the survey lifecycle states.
type SurveyStatus string

const (
	SurveyStatusDraft     SurveyStatus = "DRAFT"
	SurveyStatusPublished SurveyStatus = "PUBLISHED"
	SurveyStatusClosed    SurveyStatus = "CLOSED"
	SurveyStatusArchived  SurveyStatus = "ARCHIVED"
)

// Survey represents a survey owned by a user.
type Survey struct {
	ID          uuid.UUID    `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	OwnerID     int          `json:"owner_id"`
	Status      SurveyStatus `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// CreateSurveyRequest is the payload for creating a survey.
type CreateSurveyRequest struct {
	Title       string `json:"title" binding:"required,min=1,max=200"`
	Description string `json:"description" binding:"omitempty,max=5000"`
}

// UpdateSurveyRequest is the payload for editing a survey's metadata.
type UpdateSurveyRequest struct {
	Title       string `json:"title" binding:"required,min=1,max=200"`
	Description string `json:"description" binding:"omitempty,max=5000"`
}

// SurveyPayload is the respondent-facing view of a published survey. It is
// what gets cached in Redis at publish time and served on the view endpoint.
type SurveyPayload struct {
	SurveyID    uuid.UUID               `json:"survey_id"`
	Title       string                  `json:"title"`
	Description string                  `json:"description"`
	Questions   []QuestionForRespondent `json:"questions"`
}
