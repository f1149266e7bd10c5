package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/competency-advisor/internal/http/handlers"
	httpMW "github.com/yungbote/competency-advisor/internal/http/middleware"
	"github.com/yungbote/competency-advisor/internal/observability"
	"github.com/yungbote/competency-advisor/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	AllowedOrigins []string
	Metrics        *observability.Metrics

	AuthMiddleware *httpMW.AuthMiddleware
	RateLimiter    *httpMW.RateLimiter

	AuthHandler       *httpH.AuthHandler
	CompetencyHandler *httpH.CompetencyHandler
	AdvisorHandler    *httpH.AdvisorHandler
	HealthHandler     *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))
	r.Use(httpMW.Metrics(cfg.Metrics))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics))
	}

	api := r.Group("/api")
	{
		// Auth (public)
		if cfg.AuthHandler != nil {
			api.POST("/auth/login", cfg.AuthHandler.Login)
		}
	}

	// Plain retrieval answers are open; a valid token attributes the audit row.
	if cfg.AdvisorHandler != nil {
		ask := api.Group("/")
		if cfg.AuthMiddleware != nil {
			ask.Use(cfg.AuthMiddleware.OptionalAuth())
		}
		ask.POST("/ask", limited(cfg.RateLimiter, cfg.AdvisorHandler.AskRetrieval)...)
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		if cfg.AuthHandler != nil {
			protected.POST("/auth/logout", cfg.AuthHandler.Logout)
			protected.GET("/me", cfg.AuthHandler.Me)
		}

		if cfg.AdvisorHandler != nil {
			protected.POST("/advisor", limited(cfg.RateLimiter, cfg.AdvisorHandler.Ask)...)
			protected.GET("/advisor/history", cfg.AdvisorHandler.History)
		}

		if cfg.CompetencyHandler != nil {
			protected.GET("/competencies/path", cfg.CompetencyHandler.Path)
			protected.GET("/competencies/roadmap", cfg.CompetencyHandler.Roadmap)
			protected.POST("/competencies/sequence", cfg.CompetencyHandler.Sequence)
			protected.GET("/competencies/:id", cfg.CompetencyHandler.Get)
			protected.POST("/competencies/:id/start", cfg.CompetencyHandler.Start)
			protected.POST("/competencies/:id/complete", cfg.CompetencyHandler.Complete)
			protected.PATCH("/competencies/:id/progress", cfg.CompetencyHandler.UpdateProgress)
			protected.GET("/my-competencies", cfg.CompetencyHandler.MyCompetencies)
			protected.GET("/learning-roadmap", cfg.CompetencyHandler.LearningRoadmap)
			protected.GET("/roadmap/next", cfg.CompetencyHandler.Next)
		}
	}

	return r
}

// limited prefixes h with the rate limiter when one is configured.
func limited(rl *httpMW.RateLimiter, h gin.HandlerFunc) []gin.HandlerFunc {
	if rl == nil {
		return []gin.HandlerFunc{h}
	}
	return []gin.HandlerFunc{rl.Middleware(), h}
}
