package router

import (
	"context"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizprep-backend/internal/config"
	"github.com/stemsi/quizprep-backend/internal/handler"
	"github.com/stemsi/quizprep-backend/internal/logger"
	"github.com/stemsi/quizprep-backend/internal/middleware"
	"github.com/stemsi/quizprep-backend/internal/response"
)

const (
	// publicCacheSeconds is how long clients may cache the public catalogue.
	publicCacheSeconds = 30

	// Per client IP.
	loginsPerMinute         = 30
	sessionCreatesPerMinute = 60
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth      *handler.AuthHandler
	Question  *handler.QuestionHandler
	Practice  *handler.PracticeHandler
	WS        *handler.WSHandler
	Dashboard *handler.DashboardHandler
	System    *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// ctx bounds background work started for the router, such as rate limiter sweeps.
func SetupRouter(
	ctx context.Context,
	auth middleware.TokenValidator,
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
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Content-Disposition", "Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(logger.Middleware(log, response.ContextKeyRequestID))

	router.Use(middleware.BrotliWithConfig(middleware.BrotliConfig{
		Quality:   middleware.DefaultBrotliConfig.Quality,
		MinLength: middleware.DefaultBrotliConfig.MinLength,
		Skipper: func(c *gin.Context) bool {
			return strings.HasPrefix(c.Request.URL.Path, "/ws/")
		},
	}))

	router.GET("/health", handlers.System.Health)

	api := router.Group("/api/v1")
	api.GET("/health", handlers.System.Health)

	// ─── 1. Public Catalogue ───────────────────────────────────────────
	questions := api.Group("/questions")
	questions.Use(middleware.CacheControl(publicCacheSeconds))
	{
		questions.GET("", handlers.Question.ListQuestions)
		questions.GET("/:id", handlers.Question.GetQuestion)
	}

	// ─── 2. Auth Group (Public, Rate Limited) ──────────────────────────
	authLimiter := middleware.NewRateLimiter(ctx, loginsPerMinute, time.Minute)
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/admin/login", authLimiter.Middleware(), handlers.Auth.AdminLogin)
		authGroup.GET("/admin/me", middleware.RequireAdminJWT(auth), handlers.Auth.GetAdminProfile)
	}

	// ─── 3. Practice Sessions (Anonymous) ──────────────────────────────
	sessionLimiter := middleware.NewRateLimiter(ctx, sessionCreatesPerMinute, time.Minute)
	practice := api.Group("/practice/sessions")
	practice.Use(middleware.NoStore())
	{
		practice.POST("", sessionLimiter.Middleware(), handlers.Practice.CreateSession)
		practice.GET("/:id", handlers.Practice.GetSession)
		practice.POST("/:id/actions", handlers.Practice.ApplyAction)
		practice.DELETE("/:id", handlers.Practice.ResetSession)
		practice.GET("/:id/history", handlers.Practice.GetHistory)
	}

	// ─── 4. WebSocket Group ────────────────────────────────────────────
	ws := router.Group("/ws/v1")
	{
		ws.GET("/practice/sessions/:id/stream", handlers.WS.PracticeStream)
	}

	// ─── 5. Admin Group (JWT) ──────────────────────────────────────────
	adminAPI := api.Group("/admin")
	adminAPI.Use(middleware.RequireAdminJWT(auth))
	{
		adminAPI.GET("/questions", handlers.Question.SearchQuestions)
		adminAPI.POST("/questions", handlers.Question.CreateQuestion)
		adminAPI.PUT("/questions/:id", handlers.Question.UpdateQuestion)
		adminAPI.DELETE("/questions/:id", handlers.Question.DeleteQuestion)

		adminAPI.GET("/backup", handlers.Question.Backup)
		adminAPI.POST("/restore", handlers.Question.Restore)

		adminAPI.GET("/dashboard", handlers.Dashboard.GetDashboardData)
		adminAPI.GET("/system/metrics", handlers.System.SystemMetricsSSE)
	}

	return router
}
