package handler

import (
	"net/http"
	"strconv"

	"github.com/formpulse/formpulse-backend/internal/middleware"
	"github.com/formpulse/formpulse-backend/internal/model"
	"github.com/formpulse/formpulse-backend/internal/response"
	"github.com/formpulse/formpulse-backend/internal/service"
	"github.com/formpulse/formpulse-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SurveyHandler handles the owner-facing survey endpoints.
type SurveyHandler struct {
	surveyService *service.SurveyService
}

// NewSurveyHandler creates a new SurveyHandler.
func NewSurveyHandler(surveyService *service.SurveyService) *SurveyHandler {
	return &SurveyHandler{surveyService: surveyService}
}

// surveyID parses the :survey_id path param, failing the request on bad input.
func surveyID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("survey_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

// Create godoc
// POST /api/v1/surveys
func (h *SurveyHandler) Create(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.CreateSurveyRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	survey, err := h.surveyService.Create(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"survey": survey})
}

// List godoc
// GET /api/v1/surveys?page=1&per_page=20
func (h *SurveyHandler) List(c *gin.Context) {
	claims := middleware.GetClaims(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	surveys, total, err := h.surveyService.List(c.Request.Context(), claims.UserID, perPage, (page-1)*perPage)
	if err != nil {
		failFromService(c, err)
		return
	}

	totalPages := (total + perPage - 1) / perPage
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"surveys": surveys}, &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: totalPages,
	})
}

// Get godoc
// GET /api/v1/surveys/:survey_id
func (h *SurveyHandler) Get(c *gin.Context) {
	claims := middleware.GetClaims(c)
	id, ok := surveyID(c)
	if !ok {
		return
	}

	survey, err := h.surveyService.GetOwned(c.Request.Context(), claims.UserID, id)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"survey": survey})
}

// Update godoc
// PUT /api/v1/surveys/:survey_id
func (h *SurveyHandler) Update(c *gin.Context) {
	claims := middleware.GetClaims(c)
	id, ok := surveyID(c)
	if !ok {
		return
	}

	var req model.UpdateSurveyRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	survey, err := h.surveyService.Update(c.Request.Context(), claims.UserID, id, &req)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"survey": survey})
}

// Delete godoc
// DELETE /api/v1/surveys/:survey_id
func (h *SurveyHandler) Delete(c *gin.Context) {
	claims := middleware.GetClaims(c)
	id, ok := surveyID(c)
	if !ok {
		return
	}

	if err := h.surveyService.Delete(c.Request.Context(), claims.UserID, id); err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// Publish godoc
// POST /api/v1/surveys/:survey_id/publish
func (h *SurveyHandler) Publish(c *gin.Context) {
	claims := middleware.GetClaims(c)
	id, ok := surveyID(c)
	if !ok {
		return
	}

	survey, err := h.surveyService.Publish(c.Request.Context(), claims.UserID, id)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"survey": survey})
}

// Close godoc
// POST /api/v1/surveys/:survey_id/close
func (h *SurveyHandler) Close(c *gin.Context) {
	claims := middleware.GetClaims(c)
	id, ok := surveyID(c)
	if !ok {
		return
	}

	survey, err := h.surveyService.Close(c.Request.Context(), claims.UserID, id)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"survey": survey})
}

// GetPermission godoc
// GET /api/v1/surveys/:survey_id/permission
func (h *SurveyHandler) GetPermission(c *gin.Context) {
	claims := middleware.GetClaims(c)
	id, ok := surveyID(c)
	if !ok {
		return
	}

	perm, err := h.surveyService.GetPermission(c.Request.Context(), claims.UserID, id)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"permission": perm})
}

// UpdatePermission godoc
// PUT /api/v1/surveys/:survey_id/permission
func (h *SurveyHandler) UpdatePermission(c *gin.Context) {
	claims := middleware.GetClaims(c)
	id, ok := surveyID(c)
	if !ok {
		return
	}

	var req model.UpdatePermissionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	perm, err := h.surveyService.UpdatePermission(c.Request.Context(), claims.UserID, id, &req)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"permission": perm})
}
