package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/yungbote/competency-advisor/internal/observability"
	"github.com/yungbote/competency-advisor/internal/platform/embedcache"
	"github.com/yungbote/competency-advisor/internal/platform/llm"
	"github.com/yungbote/competency-advisor/internal/platform/logger"
	"github.com/yungbote/competency-advisor/internal/platform/ollama"
	"github.com/yungbote/competency-advisor/internal/platform/openai"
	"github.com/yungbote/competency-advisor/internal/platform/sessioncache"
)

type Clients struct {
	Embedder     llm.Embedder
	Generator    llm.Generator
	SessionCache sessioncache.Cache
}

type llmClient interface {
	llm.Embedder
	llm.Generator
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config, metrics *observability.Metrics) (Clients, error) {
	log.Info("Wiring clients...")

	provider := strings.ToLower(cfg.LLM.Provider)
	var (
		client llmClient
		model  string
		err    error
	)
	switch provider {
	case "openai":
		c := cfg.LLM.OpenAI
		model = c.EmbedModel
		client, err = openai.NewClient(log, openai.Config{
			APIKey:        c.APIKey,
			BaseURL:       c.BaseURL,
			EmbedModel:    c.EmbedModel,
			GenerateModel: c.GenerateModel,
			Timeout:       c.Timeout,
			EmbedRetries:  c.EmbedRetries,
		}, nil)
	default:
		c := cfg.LLM.Ollama
		model = c.EmbedModel
		client, err = ollama.NewClient(log, ollama.Config{
			BaseURL:       c.BaseURL,
			EmbedModel:    c.EmbedModel,
			GenerateModel: c.GenerateModel,
			Timeout:       c.Timeout,
			EmbedRetries:  c.EmbedRetries,
		}, nil)
	}
	if err != nil {
		return Clients{}, fmt.Errorf("init %s client: %w", provider, err)
	}
	instrumented := instrumentLLM(provider, client, client, metrics)

	var embedder llm.Embedder = instrumented
	if cfg.LLM.EmbedCacheSize > 0 {
		cached, err := embedcache.New(instrumented, provider+"/"+model, cfg.LLM.EmbedCacheSize)
		if err != nil {
			return Clients{}, fmt.Errorf("init embedding cache: %w", err)
		}
		embedder = cached
	}

	var cache sessioncache.Cache = sessioncache.Nop{}
	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		cache, err = sessioncache.NewRedis(ctx, log, sessioncache.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
		if err != nil {
			return Clients{}, fmt.Errorf("init redis session cache: %w", err)
		}
	}

	return Clients{
		Embedder:     embedder,
		Generator:    instrumented,
		SessionCache: cache,
	}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if closer, ok := c.SessionCache.(io.Closer); ok {
		_ = closer.Close()
	}
}
