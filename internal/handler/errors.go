package handler

import (
	"errors"
	"net/http"

	"github.com/formpulse/formpulse-backend/internal/response"
	"github.com/formpulse/formpulse-backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

// failFromService translates service-layer sentinel errors into the API
// error vocabulary. Anything unmapped is an internal error.
func failFromService(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrNotOwner):
		response.Fail(c, http.StatusForbidden, response.ErrNotSurveyOwner)
	case errors.Is(err, service.ErrSurveyNotDraft):
		response.Fail(c, http.StatusConflict, response.ErrSurveyNotDraft)
	case errors.Is(err, service.ErrSurveyNotPublished):
		response.Fail(c, http.StatusConflict, response.ErrSurveyNotPublished)
	case errors.Is(err, service.ErrNoQuestions):
		response.Fail(c, http.StatusConflict, response.ErrNoQuestions)
	case errors.Is(err, service.ErrAllowlistRequired):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrAllowlistRequired)
	case errors.Is(err, service.ErrInvalidDateWindow):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrInvalidDateWindow)
	case errors.Is(err, service.ErrResponseCompleted):
		response.Fail(c, http.StatusConflict, response.ErrResponseCompleted)
	case errors.Is(err, service.ErrResponseMismatch):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrUnknownChart):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
