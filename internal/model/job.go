package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// PersistAnswerJob is one autosaved answer queued for bulk persistence.
type PersistAnswerJob struct {
	ResponseID   uuid.UUID       `json:"response_id"`
	QuestionID   uuid.UUID       `json:"question_id"`
	Value        json.RawMessage `json:"value"`
	SecondsSpent *float64        `json:"seconds_spent,omitempty"`
}

// PersistSubmissionJob marks a response completed, queued for bulk persistence.
type PersistSubmissionJob struct {
	SurveyID    uuid.UUID `json:"survey_id"`
	ResponseID  uuid.UUID `json:"response_id"`
	CompletedAt time.Time `json:"completed_at"`
}

// LiveEvent is published on a survey's Redis channel whenever a response is
// submitted, and forwarded verbatim to live-results WebSocket subscribers.
type LiveEvent struct {
	Type        string    `json:"type"`
	SurveyID    uuid.UUID `json:"survey_id"`
	ResponseID  uuid.UUID `json:"response_id"`
	CompletedAt time.Time `json:"completed_at"`
}

// LiveEventResponseSubmitted is the only event type currently published.
const LiveEventResponseSubmitted = "response_submitted"
