package app

import (
	"context"

	"gorm.io/gorm"

	apphttp "github.com/yungbote/competency-advisor/internal/http"
	httpH "github.com/yungbote/competency-advisor/internal/http/handlers"
	httpMW "github.com/yungbote/competency-advisor/internal/http/middleware"
	"github.com/yungbote/competency-advisor/internal/observability"
	"github.com/yungbote/competency-advisor/internal/platform/logger"
)

func wireRouterConfig(log *logger.Logger, cfg Config, db *gorm.DB, s Services, metrics *observability.Metrics) (apphttp.RouterConfig, error) {
	log.Info("Wiring handlers...")
	limiter, err := httpMW.NewRateLimiter(httpMW.RateLimitConfig{
		PerMinute: cfg.HTTP.RateLimit.PerMinute,
		Burst:     cfg.HTTP.RateLimit.Burst,
	})
	if err != nil {
		return apphttp.RouterConfig{}, err
	}
	return apphttp.RouterConfig{
		Log:            log,
		ServiceName:    cfg.Telemetry.ServiceName,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Metrics:        metrics,

		AuthMiddleware: httpMW.NewAuthMiddleware(log, s.Auth),
		RateLimiter:    limiter,

		AuthHandler:       httpH.NewAuthHandler(log, s.Auth),
		CompetencyHandler: httpH.NewCompetencyHandler(log, s.Catalog, s.Roadmap, s.Progress, s.Recommendation),
		AdvisorHandler:    httpH.NewAdvisorHandler(log, s.Advisor, metrics),
		HealthHandler: httpH.NewHealthHandler(func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}),
	}, nil
}
