package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/competency-advisor/internal/data/db"
	apphttp "github.com/yungbote/competency-advisor/internal/http"
	"github.com/yungbote/competency-advisor/internal/observability"
	"github.com/yungbote/competency-advisor/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Metrics  *observability.Metrics
	Repos    Repos
	Clients  Clients
	Services Services

	store        *db.PostgresService
	otelShutdown func(context.Context) error
}

// New connects storage and upstream clients and wires every service. It does
// not migrate; call Migrate or run the migrate command first.
func New(ctx context.Context, cfg Config) (*App, error) {
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	a, err := newWithLogger(ctx, log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}
	return a, nil
}

func newWithLogger(ctx context.Context, log *logger.Logger, cfg Config) (*App, error) {
	a := &App{Log: log, Cfg: cfg}
	a.otelShutdown = observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Environment: cfg.Env,
		Version:     cfg.Telemetry.Version,
	})
	if cfg.Telemetry.Metrics {
		a.Metrics = observability.NewMetrics()
	}

	var err error
	switch cfg.Database.Driver {
	case "sqlite":
		a.store, err = db.NewSQLiteService(log, cfg.Database)
	default:
		a.store, err = db.NewPostgresService(log, cfg.Database)
	}
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	a.DB = a.store.DB()
	a.Repos = wireRepos(a.DB, log)

	a.Clients, err = wireClients(ctx, log, cfg, a.Metrics)
	if err != nil {
		a.Close()
		return nil, err
	}
	index, err := wireVectorIndex(ctx, log, cfg, a.Repos.Competency, a.Metrics)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Services = wireServices(a.DB, log, cfg, a.Repos, a.Clients, index)
	return a, nil
}

func (a *App) Migrate() error {
	if err := db.AutoMigrateAll(a.DB); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}

// Serve runs the HTTP API until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	routerCfg, err := wireRouterConfig(a.Log, a.Cfg, a.DB, a.Services, a.Metrics)
	if err != nil {
		return err
	}
	srv := apphttp.NewServer(a.Log, apphttp.ServerConfig{
		Addr:            a.Cfg.HTTP.Addr,
		ReadTimeout:     a.Cfg.HTTP.ReadTimeout,
		WriteTimeout:    a.Cfg.HTTP.WriteTimeout,
		ShutdownTimeout: a.Cfg.HTTP.ShutdownTimeout,
	}, routerCfg)
	return srv.Run(ctx)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Clients.Close()
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.Log.Warn("Database close failed", "error", err)
		}
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(context.Background()); err != nil {
			a.Log.Warn("OTel shutdown failed", "error", err)
		}
	}
	a.Log.Sync()
}
