package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/competency-advisor/internal/data/repos"
	"github.com/yungbote/competency-advisor/internal/observability"
	"github.com/yungbote/competency-advisor/internal/platform/logger"
	"github.com/yungbote/competency-advisor/internal/platform/qdrant"
	"github.com/yungbote/competency-advisor/internal/services"
)

type VectorProviderConfigErrorCode string

const (
	VectorProviderConfigErrorUnknownProvider      VectorProviderConfigErrorCode = "unknown_provider"
	VectorProviderConfigErrorRequiresPostgres     VectorProviderConfigErrorCode = "pgvector_requires_postgres"
	VectorProviderConfigErrorMissingQdrantURL     VectorProviderConfigErrorCode = "missing_qdrant_url"
	VectorProviderConfigErrorInvalidQdrantURL     VectorProviderConfigErrorCode = "invalid_qdrant_url"
	VectorProviderConfigErrorMissingQdrantColl    VectorProviderConfigErrorCode = "missing_qdrant_collection"
	VectorProviderConfigErrorInvalidQdrantVector  VectorProviderConfigErrorCode = "invalid_qdrant_vector_dim"
	VectorProviderConfigErrorUnknownQdrantFailure VectorProviderConfigErrorCode = "qdrant_config_error"
)

type VectorProviderConfigError struct {
	Code     VectorProviderConfigErrorCode
	Provider string
	Driver   string
	Cause    error
}

func (e *VectorProviderConfigError) Error() string {
	if e == nil {
		return "invalid vector provider config"
	}
	return fmt.Sprintf(
		"invalid vector provider config (code=%s provider=%q database_driver=%q): %v",
		e.Code,
		e.Provider,
		e.Driver,
		e.Cause,
	)
}

func (e *VectorProviderConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// resolveVectorProvider checks the provider against the database driver:
// pgvector needs postgres, sqlite deployments must use qdrant.
func resolveVectorProvider(cfg VectorConfig, driver string) (string, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	switch provider {
	case services.VectorProviderPGVector:
		if driver != "postgres" {
			return "", &VectorProviderConfigError{
				Code:     VectorProviderConfigErrorRequiresPostgres,
				Provider: provider,
				Driver:   driver,
				Cause:    errors.New("pgvector search needs the postgres driver; use vector.provider=qdrant"),
			}
		}
		return provider, nil
	case services.VectorProviderQdrant:
		if err := qdrant.ValidateConfig(cfg.Qdrant); err != nil {
			return "", mapQdrantConfigError(driver, err)
		}
		return provider, nil
	default:
		return "", &VectorProviderConfigError{
			Code:     VectorProviderConfigErrorUnknownProvider,
			Provider: provider,
			Driver:   driver,
			Cause:    fmt.Errorf("unsupported vector provider %q", cfg.Provider),
		}
	}
}

func mapQdrantConfigError(driver string, err error) error {
	code := VectorProviderConfigErrorUnknownQdrantFailure
	var qerr *qdrant.ConfigError
	if errors.As(err, &qerr) {
		switch qerr.Code {
		case qdrant.ConfigErrorMissingURL:
			code = VectorProviderConfigErrorMissingQdrantURL
		case qdrant.ConfigErrorInvalidURL:
			code = VectorProviderConfigErrorInvalidQdrantURL
		case qdrant.ConfigErrorMissingCollection:
			code = VectorProviderConfigErrorMissingQdrantColl
		case qdrant.ConfigErrorInvalidVectorDim:
			code = VectorProviderConfigErrorInvalidQdrantVector
		}
	}
	return &VectorProviderConfigError{
		Code:     code,
		Provider: services.VectorProviderQdrant,
		Driver:   driver,
		Cause:    err,
	}
}

func wireVectorIndex(ctx context.Context, log *logger.Logger, cfg Config, competencyRepo repos.CompetencyRepo, metrics *observability.Metrics) (services.VectorIndex, error) {
	provider, err := resolveVectorProvider(cfg.Vector, cfg.Database.Driver)
	if err != nil {
		return nil, err
	}
	var index services.VectorIndex
	switch provider {
	case services.VectorProviderQdrant:
		store, err := qdrant.NewVectorStore(ctx, log, cfg.Vector.Qdrant)
		if err != nil {
			return nil, fmt.Errorf("init qdrant: %w", err)
		}
		index = services.NewQdrantIndex(log, store, competencyRepo)
	default:
		index = services.NewPGVectorIndex(log, competencyRepo)
	}
	log.Info("Vector index ready", "provider", index.Provider())
	return instrumentVectorIndex(index, metrics), nil
}
