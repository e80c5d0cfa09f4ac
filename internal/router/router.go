package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/hackmate/hackathon-console/internal/config"
	"github.com/hackmate/hackathon-console/internal/handler"
	"github.com/hackmate/hackathon-console/internal/middleware"
	"github.com/hackmate/hackathon-console/internal/model"
	"github.com/hackmate/hackathon-console/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Questionnaire *handler.QuestionnaireHandler
	Board         *handler.BoardHandler
	BoardStream   *handler.BoardStreamHandler
	Health        *handler.HealthHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	auth middleware.TokenValidator,
	counter middleware.Counter,
	handlers *Handlers,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Retry-After"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Request ID and the request-scoped logger come first so every later
	// middleware can log through them.
	router.Use(response.RequestIDMiddleware(log), response.AccessLog())

	router.Use(middleware.Brotli())

	if handlers.Health != nil {
		router.GET("/health", handlers.Health.Health)
	} else {
		router.GET("/health", func(c *gin.Context) {
			response.Success(c, http.StatusOK, gin.H{"status": "ok"})
		})
	}

	// ─── 1. Participant Group (Participant JWT) ────────────────────────
	submitLimiter := middleware.NewRateLimiter(counter, "questionnaire_submit", cfg.SubmitRateLimit, time.Minute, log)

	participantAPI := router.Group("/api/v1/participant/hackathons/:hackathon_id")
	participantAPI.Use(
		middleware.RequireParticipantJWT(auth),
		middleware.NoStore(),
	)
	{
		q := handlers.Questionnaire
		participantAPI.POST("/questionnaire", q.StartQuestionnaire)
		participantAPI.GET("/questionnaire", q.GetQuestionnaire)
		participantAPI.DELETE("/questionnaire", q.DiscardQuestionnaire)
		participantAPI.PUT("/questionnaire/answers/:question_id", q.SetAnswer)
		participantAPI.POST("/questionnaire/answers/:question_id/options/:option_id/toggle", q.ToggleOption)
		participantAPI.POST("/questionnaire/navigate", q.Navigate)
		participantAPI.POST("/questionnaire/refresh", q.RefreshQuestionnaire)
		participantAPI.POST("/questionnaire/submit", submitLimiter.Middleware(), q.SubmitQuestionnaire)
	}

	// ─── 2. Organizer Group (Organizer JWT + RBAC) ─────────────────────
	adminAPI := router.Group("/api/v1/admin/hackathons/:hackathon_id/board")
	adminAPI.Use(middleware.RequireOrganizerJWT(auth))
	{
		b := handlers.Board
		canRead := middleware.RequireAnyPermission(model.PermissionTeamsRead, model.PermissionTeamsWrite)
		canWrite := middleware.RequirePermission(model.PermissionTeamsWrite)

		adminAPI.GET("", canRead, b.GetBoard)
		adminAPI.GET("/activity", canRead, b.ListActivity)

		adminAPI.POST("/moves", canWrite, b.MoveMember)
		adminAPI.PUT("/teams/:team_id/name", canWrite, b.RenameTeam)
		adminAPI.DELETE("/teams/:team_id", canWrite, b.DeleteTeam)
		adminAPI.DELETE("/teams/:team_id/members/:participant_id", canWrite, b.RemoveMember)
	}

	// ─── 3. WebSocket Group (Organizer WS Auth) ────────────────────────
	ws := router.Group("/ws/v1/admin")
	ws.Use(
		middleware.RequireOrganizerWSAuth(auth),
		middleware.RequireAnyPermission(model.PermissionTeamsRead, model.PermissionTeamsWrite),
	)
	{
		ws.GET("/hackathons/:hackathon_id/board/stream", handlers.BoardStream.BoardStream)
	}

	router.NoRoute(func(c *gin.Context) {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	})

	return router
}
