package handler

import (
	"net/http"

	"github.com/formpulse/formpulse-backend/internal/middleware"
	"github.com/formpulse/formpulse-backend/internal/model"
	"github.com/formpulse/formpulse-backend/internal/response"
	"github.com/formpulse/formpulse-backend/internal/service"
	"github.com/formpulse/formpulse-backend/internal/validator"
	"github.com/gin-gonic/gin"
)

// QuestionHandler handles the owner-facing question endpoints.
type QuestionHandler struct {
	questionService *service.QuestionService
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(questionService *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{questionService: questionService}
}

// List godoc
// GET /api/v1/surveys/:survey_id/questions
func (h *QuestionHandler) List(c *gin.Context) {
	claims := middleware.GetClaims(c)
	id, ok := surveyID(c)
	if !ok {
		return
	}

	questions, err := h.questionService.List(c.Request.Context(), claims.UserID, id)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// Add godoc
// POST /api/v1/surveys/:survey_id/questions
func (h *QuestionHandler) Add(c *gin.Context) {
	claims := middleware.GetClaims(c)
	id, ok := surveyID(c)
	if !ok {
		return
	}

	var req model.AddQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, err := h.questionService.Add(c.Request.Context(), claims.UserID, id, &req)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"question": question})
}

// ReplaceAll godoc
// PUT /api/v1/surveys/:survey_id/questions
func (h *QuestionHandler) ReplaceAll(c *gin.Context) {
	claims := middleware.GetClaims(c)
	id, ok := surveyID(c)
	if !ok {
		return
	}

	var req model.ReplaceQuestionsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	questions, err := h.questionService.ReplaceAll(c.Request.Context(), claims.UserID, id, &req)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}
