package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ranklift/ranklift-backend/internal/config"
	"github.com/ranklift/ranklift-backend/internal/handler"
	"github.com/ranklift/ranklift-backend/internal/middleware"
	"github.com/ranklift/ranklift-backend/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Session    *handler.SessionHandler
	Chat       *handler.ChatHandler
	Proctor    *handler.ProctorHandler
	Transcribe *handler.TranscribeHandler
	Question   *handler.QuestionHandler
	User       *handler.UserHandler
	WS         *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(handlers *Handlers, cfg *config.Config) *gin.Engine {
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
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for the routes that fan out to AI upstreams
	// (10 requests per minute per IP).
	aiLimiter := middleware.NewRateLimiter(10, time.Minute)

	// ─── 1. Sessions (optional auth: anonymous or owned) ───────────────
	sessions := router.Group("/api/v1/sessions")
	sessions.Use(middleware.OptionalJWT(cfg.JWTSecret))
	{
		sessions.POST("", handlers.Session.Create)
		sessions.GET("/:id", handlers.Session.Get)
		sessions.POST("/:id/autosave", handlers.Session.Autosave)
		sessions.POST("/:id/check-timing", handlers.Session.CheckTiming)
		sessions.POST("/:id/next-question", handlers.Session.NextQuestion)
		sessions.POST("/:id/submit", handlers.Session.Submit)
		sessions.POST("/:id/grade", aiLimiter.Middleware(), handlers.Session.Grade)
	}

	// ─── 2. Clarification Chat (AI rate limited) ───────────────────────
	chat := router.Group("/api/v1/chat")
	{
		chat.POST("/:session_id", aiLimiter.Middleware(), handlers.Chat.Ask)
		chat.GET("/:session_id", handlers.Chat.History)
	}

	// ─── 3. Proctoring ─────────────────────────────────────────────────
	proctoring := router.Group("/api/v1/proctoring")
	{
		proctoring.POST("/initialize", handlers.Proctor.Initialize)
		proctoring.POST("/violations", handlers.Proctor.RecordViolation)
		proctoring.GET("/sessions/:id/status", handlers.Proctor.Status)
		proctoring.POST("/sessions/:id/flags", handlers.Proctor.SetFlags)
	}

	// ─── 4. Transcription and Question Bank ────────────────────────────
	api := router.Group("/api/v1")
	{
		api.POST("/transcribe", aiLimiter.Middleware(), handlers.Transcribe.Transcribe)
		api.GET("/questions/random", handlers.Question.Random)
	}

	// ─── 5. User (JWT required) ────────────────────────────────────────
	user := router.Group("/api/v1/user")
	user.Use(middleware.RequireJWT(cfg.JWTSecret))
	{
		user.GET("/sessions", handlers.User.Sessions)
	}

	// ─── 6. WebSocket ──────────────────────────────────────────────────
	ws := router.Group("/ws/v1")
	{
		ws.GET("/sessions/:id/stream", handlers.WS.SessionEventStream)
	}

	return router
}
