package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/competency-advisor/internal/learning"
	"github.com/yungbote/competency-advisor/internal/platform/logger"
	"github.com/yungbote/competency-advisor/internal/services"
)

type Services struct {
	Auth            services.AuthService
	Catalog         services.CatalogService
	Roadmap         services.RoadmapService
	Progress        services.ProgressService
	Recommendation  services.RecommendationService
	Retrieval       services.RetrievalService
	Advisor         services.AdvisorService
	Ingest          services.IngestService
	Eval            services.EvalService
	VectorIndexName string
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, c Clients, index services.VectorIndex) Services {
	log.Info("Wiring services...")
	extractor := learning.PhraseExtractor{}

	catalog := services.NewCatalogService(log, r.Competency)
	roadmap := services.NewRoadmapService(log, catalog, r.Progress)
	retrieval := services.NewRetrievalService(log, c.Embedder, c.Generator, index, cfg.Advisor.TopK)
	advisor := services.NewAdvisorService(log, extractor, roadmap, retrieval, r.Progress, r.AdvisorQuery)

	return Services{
		Auth:            services.NewAuthService(log, r.Employee, r.Session, c.SessionCache, cfg.Auth.JWTSecret, cfg.Auth.SessionTTL),
		Catalog:         catalog,
		Roadmap:         roadmap,
		Progress:        services.NewProgressService(db, log, r.Competency, r.Progress),
		Recommendation:  services.NewRecommendationService(log, r.Competency, r.Progress),
		Retrieval:       retrieval,
		Advisor:         advisor,
		Ingest:          services.NewIngestService(log, r.Competency, c.Embedder, index),
		Eval:            services.NewEvalService(log, advisor, extractor),
		VectorIndexName: index.Provider(),
	}
}
