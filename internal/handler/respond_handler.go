package handler

import (
	"net/http"
	"strings"

	"github.com/formpulse/formpulse-backend/internal/access"
	"github.com/formpulse/formpulse-backend/internal/middleware"
	"github.com/formpulse/formpulse-backend/internal/model"
	"github.com/formpulse/formpulse-backend/internal/response"
	"github.com/formpulse/formpulse-backend/internal/service"
	"github.com/formpulse/formpulse-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Credential headers for protected surveys. The grant token also doubles as
// a query param so shared links keep working.
const (
	headerSurveyEmail    = "X-Survey-Email"
	headerSurveyPassword = "X-Survey-Password"
	headerSurveyToken    = "X-Survey-Token"
)

// RespondHandler handles the public respondent endpoints.
type RespondHandler struct {
	respondService *service.RespondService
}

// NewRespondHandler creates a new RespondHandler.
func NewRespondHandler(respondService *service.RespondService) *RespondHandler {
	return &RespondHandler{respondService: respondService}
}

// credentials collects everything the request presents for access evaluation.
func credentials(c *gin.Context) service.AccessCredentials {
	creds := service.AccessCredentials{
		Email:      c.GetHeader(headerSurveyEmail),
		Password:   c.GetHeader(headerSurveyPassword),
		GrantToken: c.GetHeader(headerSurveyToken),
	}
	if creds.GrantToken == "" {
		creds.GrantToken = c.Query("grant")
	}
	if claims := middleware.GetClaims(c); claims != nil {
		creds.AuthenticatedUserID = claims.UserID
		creds.AuthenticatedEmail = claims.Email
	}
	return creds
}

// failFromDecision maps a denial to its HTTP status and error code. Missing
// credentials are 401 so clients know to prompt; everything else is 403.
func failFromDecision(c *gin.Context, d access.Decision) {
	status := http.StatusForbidden
	switch d.Reason {
	case access.ReasonAuthenticationRequired, access.ReasonPasswordRequired:
		status = http.StatusUnauthorized
	}
	response.Fail(c, status, response.AccessCode(d.Reason))
}

// deviceClass buckets the User-Agent into the coarse demographic classes
// analytics reports on.
func deviceClass(userAgent string) string {
	ua := strings.ToLower(userAgent)
	switch {
	case strings.Contains(ua, "ipad") || strings.Contains(ua, "tablet"):
		return "tablet"
	case strings.Contains(ua, "mobi") || strings.Contains(ua, "android") || strings.Contains(ua, "iphone"):
		return "mobile"
	case ua == "":
		return ""
	default:
		return "desktop"
	}
}

// View godoc
// GET /api/v1/r/:survey_id
// Evaluates access and returns the survey payload. Protected surveys get a
// short-lived grant token back so follow-up requests skip the credentials.
func (h *RespondHandler) View(c *gin.Context) {
	id, ok := surveyID(c)
	if !ok {
		return
	}

	view, err := h.respondService.ViewSurvey(c.Request.Context(), id, credentials(c))
	if err != nil {
		failFromService(c, err)
		return
	}
	if !view.Decision.Allowed {
		failFromDecision(c, view.Decision)
		return
	}

	body := gin.H{"survey": view.Payload}
	if view.GrantToken != "" {
		body["grant_token"] = view.GrantToken
	}
	response.Success(c, http.StatusOK, body)
}

// Open godoc
// POST /api/v1/r/:survey_id/responses
// Starts an in-progress response after re-checking access.
func (h *RespondHandler) Open(c *gin.Context) {
	id, ok := surveyID(c)
	if !ok {
		return
	}

	var req model.OpenResponseRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	resp, decision, err := h.respondService.OpenResponse(
		c.Request.Context(), id, credentials(c), &req, deviceClass(c.GetHeader("User-Agent")))
	if err != nil {
		failFromService(c, err)
		return
	}
	if decision != nil && !decision.Allowed {
		failFromDecision(c, *decision)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"response": resp})
}

// Autosave godoc
// PUT /api/v1/r/:survey_id/responses/:response_id/answers
// Buffers one answer; safe to call repeatedly per question.
func (h *RespondHandler) Autosave(c *gin.Context) {
	id, ok := surveyID(c)
	if !ok {
		return
	}
	responseID, err := uuid.Parse(c.Param("response_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.AutosaveAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	decision, err := h.respondService.Autosave(c.Request.Context(), id, responseID, &req)
	if err != nil {
		failFromService(c, err)
		return
	}
	if decision != nil && !decision.Allowed {
		failFromDecision(c, *decision)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": "saved"})
}

// Submit godoc
// POST /api/v1/r/:survey_id/responses/:response_id/submit
// Finalizes a response. Persistence is asynchronous through the worker queue.
func (h *RespondHandler) Submit(c *gin.Context) {
	id, ok := surveyID(c)
	if !ok {
		return
	}
	responseID, err := uuid.Parse(c.Param("response_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	decision, err := h.respondService.Submit(c.Request.Context(), id, responseID)
	if err != nil {
		failFromService(c, err)
		return
	}
	if decision != nil && !decision.Allowed {
		failFromDecision(c, *decision)
		return
	}

	response.Success(c, http.StatusAccepted, gin.H{"status": "submitted"})
}
