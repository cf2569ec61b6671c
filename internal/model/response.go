package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ResponseStatus enumerates the states of a respondent's submission.
type ResponseStatus string

const (
	ResponseStatusInProgress ResponseStatus = "in_progress"
	ResponseStatusCompleted  ResponseStatus = "completed"
)

// SurveyResponse is one respondent's answer set for a survey. Answers maps
// question ID to the raw answer value as submitted; QuestionSeconds carries
// the optional per-question time spent reported by the client.
type SurveyResponse struct {
	ID              uuid.UUID          `json:"id"`
	SurveyID        uuid.UUID          `json:"survey_id"`
	RespondentID    *int               `json:"respondent_id,omitempty"`
	Answers         map[string]any     `json:"answers"`
	QuestionSeconds map[string]float64 `json:"question_seconds,omitempty"`
	Status          ResponseStatus     `json:"status"`
	StartedAt       time.Time          `json:"started_at"`
	CompletedAt     *time.Time         `json:"completed_at,omitempty"`
	Device          string             `json:"device,omitempty"`
	Location        string             `json:"location,omitempty"`
	AgeBracket      string             `json:"age_bracket,omitempty"`
}

// OpenResponseRequest starts a new in-progress response. Demographic fields
// are optional and self-reported except the device class, which the handler
// infers from the user agent.
type OpenResponseRequest struct {
	Location   string `json:"location" binding:"omitempty,max=100"`
	AgeBracket string `json:"age_bracket" binding:"omitempty,oneof=<18 18-24 25-34 35-44 45-54 55-64 65+"`
}

// AutosaveAnswerRequest saves one answer into the in-progress buffer.
// SecondsSpent is optional client-reported time on the question.
type AutosaveAnswerRequest struct {
	QuestionID   string          `json:"question_id" binding:"required,uuid"`
	Value        json.RawMessage `json:"value" binding:"required"`
	SecondsSpent *float64        `json:"seconds_spent" binding:"omitempty,gt=0"`
}
