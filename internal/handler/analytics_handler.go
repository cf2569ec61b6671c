package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/formpulse/formpulse-backend/internal/analytics"
	"github.com/formpulse/formpulse-backend/internal/middleware"
	"github.com/formpulse/formpulse-backend/internal/response"
	"github.com/formpulse/formpulse-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// AnalyticsHandler handles the owner-facing analytics endpoints.
type AnalyticsHandler struct {
	analyticsService *service.AnalyticsService
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(analyticsService *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

// dateRange parses optional from/to query params as YYYY-MM-DD days. Zero
// values mean "derive from the data".
func dateRange(c *gin.Context) (from, to time.Time, ok bool) {
	const layout = "2006-01-02"
	if v := c.Query("from"); v != "" {
		parsed, err := time.Parse(layout, v)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
			return from, to, false
		}
		from = parsed
	}
	if v := c.Query("to"); v != "" {
		parsed, err := time.Parse(layout, v)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
			return from, to, false
		}
		to = parsed
	}
	return from, to, true
}

// Snapshot godoc
// GET /api/v1/surveys/:survey_id/analytics?from=2026-01-01&to=2026-01-31
// Recomputes the full analytics aggregate for the survey.
func (h *AnalyticsHandler) Snapshot(c *gin.Context) {
	claims := middleware.GetClaims(c)
	id, ok := surveyID(c)
	if !ok {
		return
	}
	from, to, ok := dateRange(c)
	if !ok {
		return
	}

	snap, err := h.analyticsService.Snapshot(c.Request.Context(), claims.UserID, id, from, to)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"analytics": snap})
}

// Chart godoc
// GET /api/v1/surveys/:survey_id/analytics/charts/:chart?y_min=0&y_max=100
// Returns one named chart, processed for rendering. Supplying both y_min and
// y_max configures an explicit y-domain, which also switches bar charts to
// descending-by-value order.
func (h *AnalyticsHandler) Chart(c *gin.Context) {
	claims := middleware.GetClaims(c)
	id, ok := surveyID(c)
	if !ok {
		return
	}
	from, to, ok := dateRange(c)
	if !ok {
		return
	}

	var yDomain *analytics.YDomain
	if minStr, maxStr := c.Query("y_min"), c.Query("y_max"); minStr != "" && maxStr != "" {
		yMin, errMin := strconv.ParseFloat(minStr, 64)
		yMax, errMax := strconv.ParseFloat(maxStr, 64)
		if errMin != nil || errMax != nil || yMax < yMin {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
			return
		}
		yDomain = &analytics.YDomain{Min: yMin, Max: yMax}
	}

	chart, err := h.analyticsService.Chart(c.Request.Context(), claims.UserID, id, c.Param("chart"), from, to, yDomain)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"chart": chart})
}
