package handler

import (
	"net/http"
	"strings"

	"github.com/formpulse/formpulse-backend/internal/config"
	"github.com/formpulse/formpulse-backend/internal/metrics"
	"github.com/formpulse/formpulse-backend/internal/middleware"
	"github.com/formpulse/formpulse-backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	ws "github.com/formpulse/formpulse-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// LiveHandler streams submitted responses to a survey owner's dashboard over
// WebSocket, fed by the survey's Redis Pub/Sub channel.
type LiveHandler struct {
	rdb              *redis.Client
	surveyService    *service.SurveyService
	analyticsService *service.AnalyticsService
	metrics          *metrics.Metrics
	log              zerolog.Logger
	upgrader         websocket.Upgrader
}

// NewLiveHandler creates a new LiveHandler.
func NewLiveHandler(
	rdb *redis.Client,
	surveyService *service.SurveyService,
	analyticsService *service.AnalyticsService,
	m *metrics.Metrics,
	log zerolog.Logger,
	allowedOrigins []string,
) *LiveHandler {
	return &LiveHandler{
		rdb:              rdb,
		surveyService:    surveyService,
		analyticsService: analyticsService,
		metrics:          m,
		log:              log.With().Str("component", "live_handler").Logger(),
		upgrader:         buildUpgrader(allowedOrigins),
	}
}

// LiveResultsStream godoc
// WS /ws/v1/surveys/:survey_id/live?token=...
// Upgrades to WebSocket and forwards every submitted response as it happens.
// Only the survey owner may subscribe.
func (h *LiveHandler) LiveResultsStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	surveyID, err := uuid.Parse(c.Param("survey_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid survey ID"})
		return
	}

	// Ownership is checked before the upgrade so rejections stay plain HTTP.
	if _, err := h.surveyService.GetOwned(c.Request.Context(), claims.UserID, surveyID); err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "not the survey owner"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	h.metrics.LiveConnections.Inc()
	defer h.metrics.LiveConnections.Dec()

	wsLog := h.log.With().
		Int("user_id", claims.UserID).
		Str("survey_id", surveyID.String()).
		Logger()
	wsLog.Info().Msg("Live dashboard connected")

	total, completed, err := h.analyticsService.Counts(c.Request.Context(), claims.UserID, surveyID)
	if err != nil {
		ws.WriteError(conn, "failed to load response counts")
		return
	}
	if err := ws.WriteTyped(conn, ws.HelloResponse{
		Event:     ws.EventHello,
		SurveyID:  surveyID.String(),
		Total:     total,
		Completed: completed,
	}); err != nil {
		return
	}

	pubsub := h.rdb.Subscribe(c.Request.Context(), config.CacheKey.SurveyLiveChannel(surveyID.String()))
	defer pubsub.Close()

	// Reader goroutine: consumes pings and detects the client going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var msg ws.RequestEnvelope
			if err := ws.ReadJSON(conn, &msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					wsLog.Warn().Err(err).Msg("Unexpected close")
				} else {
					wsLog.Debug().Msg("Connection closed")
				}
				return
			}
			if msg.Action == ws.ActionPing {
				_ = ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
			}
		}
	}()

	events := pubsub.Channel()
	for {
		select {
		case <-done:
			return
		case msg, ok := <-events:
			if !ok {
				return
			}
			if err := ws.WriteTyped(conn, ws.ResponseEvent{
				Event:   ws.EventResponse,
				Payload: msg.Payload,
			}); err != nil {
				wsLog.Debug().Err(err).Msg("Live event write failed")
				return
			}
		}
	}
}
