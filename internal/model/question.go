package model

import (
	"encoding/json"

	"github.com/google/uuid"
)

// QuestionType enumerates the supported answer shapes.
type QuestionType string

const (
	QuestionTypeSingleChoice QuestionType = "SINGLE_CHOICE"
	QuestionTypeMultiChoice  QuestionType = "MULTI_CHOICE"
	QuestionTypeText         QuestionType = "TEXT"
	QuestionTypeRating       QuestionType = "RATING"
	QuestionTypeNumber       QuestionType = "NUMBER"
)

// Question represents a single survey question.
type Question struct {
	ID           uuid.UUID       `json:"id"`
	SurveyID     uuid.UUID       `json:"survey_id"`
	QuestionText string          `json:"question_text"`
	QuestionType QuestionType    `json:"question_type"`
	Options      json.RawMessage `json:"options,omitempty"`
	Required     bool            `json:"required"`
	OrderNum     int             `json:"order_num"`
}

// QuestionForRespondent is the respondent-facing projection of a question.
type QuestionForRespondent struct {
	ID           uuid.UUID       `json:"id"`
	QuestionText string          `json:"question_text"`
	QuestionType QuestionType    `json:"question_type"`
	Options      json.RawMessage `json:"options,omitempty"`
	Required     bool            `json:"required"`
	OrderNum     int             `json:"order_num"`
}

// AddQuestionRequest is the payload for adding a question to a survey.
type AddQuestionRequest struct {
	QuestionText string          `json:"question_text" binding:"required,min=1,max=2000"`
	QuestionType string          `json:"question_type" binding:"required,oneof=SINGLE_CHOICE MULTI_CHOICE TEXT RATING NUMBER"`
	Options      json.RawMessage `json:"options" binding:"omitempty"`
	Required     bool            `json:"required"`
	OrderNum     int             `json:"order_num" binding:"min=0"`
}

// ReplaceQuestionsRequest is the payload for bulk replacing a survey's questions.
type ReplaceQuestionsRequest struct {
	Questions []AddQuestionRequest `json:"questions" binding:"dive"`
}
