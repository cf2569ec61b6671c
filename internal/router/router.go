package router

import (
	"net/http"
	"time"

	"github.com/formpulse/formpulse-backend/internal/config"
	"github.com/formpulse/formpulse-backend/internal/handler"
	"github.com/formpulse/formpulse-backend/internal/middleware"
	"github.com/formpulse/formpulse-backend/internal/response"
	"github.com/formpulse/formpulse-backend/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth      *handler.AuthHandler
	Survey    *handler.SurveyHandler
	Question  *handler.QuestionHandler
	Analytics *handler.AnalyticsHandler
	Respond   *handler.RespondHandler
	Live      *handler.LiveHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
	registry *prometheus.Registry,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{
		"Origin", "Content-Type", "Authorization", "X-Request-ID",
		"X-Survey-Email", "X-Survey-Password", "X-Survey-Token",
	}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Prometheus scrape endpoint, served from the injected registry.
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)
	// Submissions get a tighter budget since each one fans out work.
	submitLimiter := middleware.NewRateLimiter(20, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/login", handlers.Auth.Login)

		// Authenticated profile routes
		auth.GET("/me", middleware.RequireUserJWT(authService), handlers.Auth.Me)
		auth.POST("/logout", middleware.RequireUserJWT(authService), handlers.Auth.Logout)
	}

	// ─── 2. Owner Group (JWT + Active Session) ─────────────────────────
	ownerAPI := router.Group("/api/v1/surveys")
	ownerAPI.Use(
		middleware.RequireUserJWT(authService),
		middleware.CheckActiveSession(authService),
	)
	{
		ownerAPI.POST("", handlers.Survey.Create)
		ownerAPI.GET("", handlers.Survey.List)
		ownerAPI.GET("/:survey_id", handlers.Survey.Get)
		ownerAPI.PUT("/:survey_id", handlers.Survey.Update)
		ownerAPI.DELETE("/:survey_id", handlers.Survey.Delete)
		ownerAPI.POST("/:survey_id/publish", handlers.Survey.Publish)
		ownerAPI.POST("/:survey_id/close", handlers.Survey.Close)

		ownerAPI.GET("/:survey_id/permission", handlers.Survey.GetPermission)
		ownerAPI.PUT("/:survey_id/permission", handlers.Survey.UpdatePermission)

		ownerAPI.GET("/:survey_id/questions", handlers.Question.List)
		ownerAPI.POST("/:survey_id/questions", handlers.Question.Add)
		ownerAPI.PUT("/:survey_id/questions", handlers.Question.ReplaceAll)

		ownerAPI.GET("/:survey_id/analytics", handlers.Analytics.Snapshot)
		ownerAPI.GET("/:survey_id/analytics/charts/:chart", handlers.Analytics.Chart)
	}

	// ─── 3. Respondent Group (Optional JWT) ────────────────────────────
	// Anonymous access is the norm; a session only adds identity for the
	// access evaluator.
	respondAPI := router.Group("/api/v1/r")
	respondAPI.Use(middleware.OptionalUserJWT(authService))
	{
		respondAPI.GET("/:survey_id", middleware.CacheControl(60), handlers.Respond.View)
		respondAPI.POST("/:survey_id/responses", handlers.Respond.Open)
		respondAPI.PUT("/:survey_id/responses/:response_id/answers", handlers.Respond.Autosave)
		respondAPI.POST("/:survey_id/responses/:response_id/submit",
			submitLimiter.Middleware(), handlers.Respond.Submit)
	}

	// ─── 4. WebSocket Group (WS Auth via query token) ──────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireUserWSAuth(authService))
	{
		ws.GET("/surveys/:survey_id/live", handlers.Live.LiveResultsStream)
	}

	return router
}
