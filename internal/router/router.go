package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/srbmarine/exam-portal/internal/config"
	"github.com/srbmarine/exam-portal/internal/handler"
	"github.com/srbmarine/exam-portal/internal/middleware"
	"github.com/srbmarine/exam-portal/internal/response"
	"github.com/srbmarine/exam-portal/internal/service"
)

const questionCacheSeconds = 300

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Identity *handler.IdentityHandler
	Auth     *handler.AuthHandler
	Question *handler.QuestionHandler
	Result   *handler.ResultHandler
	Contact  *handler.ContactHandler
	Admin    *handler.AdminHandler
	WS       *handler.WSHandler
	System   *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
	rdb *redis.Client,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.RequestLogger(log.With().Str("component", "http").Logger()))
	router.Use(middleware.SecureHeaders(cfg.GinMode == gin.DebugMode))

	// ─── CORS ──────────────────────────────────────────────────────────
	// Exact origins and origin suffixes both come from config; with
	// neither set every origin is allowed so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOriginFunc = cfg.OriginAllowed
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", handlers.System.Health)

	api := router.Group("/api/v1")
	api.Use(middleware.RateLimit(rdb, cfg.RateLimitWindow, cfg.RateLimitMax))

	candidateAuth := []gin.HandlerFunc{
		middleware.RequireCandidateJWT(authService),
		middleware.RequireLiveSession(authService),
		middleware.NoStore(),
	}

	// ─── 1. Identity Group ─────────────────────────────────────────────
	identity := api.Group("/identity")
	{
		identity.POST("/register", handlers.Identity.Register)
		identity.POST("/login", handlers.Identity.Login)
		identity.POST("/logout", append(candidateAuth, handlers.Identity.Logout)...)
		identity.GET("/me", append(candidateAuth, handlers.Identity.Me)...)
	}

	// ─── 2. Exam Content & Scoring ─────────────────────────────────────
	api.GET("/questions", middleware.CacheControl(questionCacheSeconds), handlers.Question.ListQuestions)
	api.POST("/results/submit", append(candidateAuth, handlers.Result.Submit)...)
	api.GET("/session/result", append(candidateAuth, handlers.Result.SessionResult)...)
	api.POST("/contacts", handlers.Contact.CreateContact)

	// ─── 3. Admin Auth ─────────────────────────────────────────────────
	api.POST("/auth/admin/login", handlers.Auth.AdminLogin)

	// ─── 4. WebSocket Group (Candidate WS Auth) ────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(
		middleware.RequireCandidateWSAuth(authService),
		middleware.RequireLiveSession(authService),
	)
	{
		ws.GET("/exam/stream", handlers.WS.ExamStream)
	}

	// ─── 5. Admin Group (JWT) ──────────────────────────────────────────
	adminAPI := api.Group("/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService), middleware.NoStore())
	{
		adminAPI.GET("/candidates", handlers.Admin.ListCandidates)
		adminAPI.GET("/candidates/:candidate_id", handlers.Admin.GetCandidate)
		adminAPI.GET("/candidates/:candidate_id/integrity-events", handlers.Admin.ListIntegrityEvents)
		adminAPI.GET("/results", handlers.Admin.ListResults)
		adminAPI.GET("/results/candidate/:candidate_id", handlers.Admin.ListCandidateResults)
		adminAPI.GET("/contacts", handlers.Admin.ListContacts)
	}

	return router
}
