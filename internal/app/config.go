package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/competency-advisor/internal/data/db"
	"github.com/yungbote/competency-advisor/internal/platform/envutil"
	"github.com/yungbote/competency-advisor/internal/platform/qdrant"
)

const devJWTSecret = "dev-only-secret"

type Config struct {
	Env     string `yaml:"env"`
	LogMode string `yaml:"log_mode"`

	HTTP      HTTPConfig      `yaml:"http"`
	Database  db.Config       `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Redis     RedisConfig     `yaml:"redis"`
	LLM       LLMConfig       `yaml:"llm"`
	Vector    VectorConfig    `yaml:"vector"`
	Advisor   AdvisorConfig   `yaml:"advisor"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	RateLimit       struct {
		PerMinute float64 `yaml:"per_minute"`
		Burst     int     `yaml:"burst"`
	} `yaml:"rate_limit"`
}

type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

// RedisConfig is optional; an empty Addr disables the session cache.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

type LLMProviderConfig struct {
	APIKey        string        `yaml:"api_key"`
	BaseURL       string        `yaml:"base_url"`
	EmbedModel    string        `yaml:"embed_model"`
	GenerateModel string        `yaml:"generate_model"`
	Timeout       time.Duration `yaml:"timeout"`
	EmbedRetries  int           `yaml:"embed_retries"`
}

type LLMConfig struct {
	Provider       string            `yaml:"provider"`
	EmbedCacheSize int               `yaml:"embed_cache_size"`
	Ollama         LLMProviderConfig `yaml:"ollama"`
	OpenAI         LLMProviderConfig `yaml:"openai"`
}

type VectorConfig struct {
	Provider string        `yaml:"provider"`
	Qdrant   qdrant.Config `yaml:"qdrant"`
}

type AdvisorConfig struct {
	TopK int `yaml:"top_k"`
}

type IngestConfig struct {
	BatchSize   int `yaml:"batch_size"`
	Concurrency int `yaml:"concurrency"`
}

type TelemetryConfig struct {
	ServiceName string `yaml:"service_name"`
	Version     string `yaml:"version"`
	Metrics     bool   `yaml:"metrics"`
}

func DefaultConfig() Config {
	cfg := Config{
		Env:     "development",
		LogMode: "development",
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    180 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Database: db.Config{
			Driver:          "postgres",
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			Name:            "competency",
			SSLMode:         "disable",
			MaxOpenConns:    20,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Auth: AuthConfig{SessionTTL: 24 * time.Hour},
		LLM: LLMConfig{
			Provider:       "ollama",
			EmbedCacheSize: 1024,
			Ollama: LLMProviderConfig{
				BaseURL:       "http://localhost:11434",
				EmbedModel:    "nomic-embed-text",
				GenerateModel: "llama3.2",
				Timeout:       120 * time.Second,
				EmbedRetries:  2,
			},
			OpenAI: LLMProviderConfig{
				Timeout:      60 * time.Second,
				EmbedRetries: 2,
			},
		},
		Vector: VectorConfig{
			Provider: "pgvector",
			Qdrant: qdrant.Config{
				Collection: "competency_catalog",
				VectorDim:  768,
				Timeout:    10 * time.Second,
			},
		},
		Advisor:   AdvisorConfig{TopK: 5},
		Ingest:    IngestConfig{BatchSize: 64, Concurrency: 4},
		Telemetry: TelemetryConfig{ServiceName: "competency-advisor"},
	}
	cfg.HTTP.RateLimit.PerMinute = 30
	cfg.HTTP.RateLimit.Burst = 10
	return cfg
}

// LoadConfig layers defaults, then the YAML file at path (or CONFIG_PATH),
// then environment variables, and validates the result.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = envutil.String("CONFIG_PATH", "")
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	if cfg.Auth.JWTSecret == "" && cfg.Env == "development" {
		cfg.Auth.JWTSecret = devJWTSecret
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Env = envutil.String("APP_ENV", cfg.Env)
	cfg.LogMode = envutil.String("LOG_MODE", cfg.LogMode)

	cfg.HTTP.Addr = envutil.String("HTTP_ADDR", cfg.HTTP.Addr)
	if port := envutil.String("PORT", ""); port != "" {
		cfg.HTTP.Addr = ":" + port
	}
	cfg.HTTP.AllowedOrigins = envutil.List("HTTP_ALLOWED_ORIGINS", cfg.HTTP.AllowedOrigins)
	cfg.HTTP.RateLimit.PerMinute = envutil.Float("RATE_LIMIT_PER_MINUTE", cfg.HTTP.RateLimit.PerMinute)
	cfg.HTTP.RateLimit.Burst = envutil.Int("RATE_LIMIT_BURST", cfg.HTTP.RateLimit.Burst)

	cfg.Database.Driver = envutil.String("DB_DRIVER", cfg.Database.Driver)
	cfg.Database.DSN = envutil.String("DATABASE_URL", cfg.Database.DSN)
	cfg.Database.Host = envutil.String("POSTGRES_HOST", cfg.Database.Host)
	cfg.Database.Port = envutil.Int("POSTGRES_PORT", cfg.Database.Port)
	cfg.Database.User = envutil.String("POSTGRES_USER", cfg.Database.User)
	cfg.Database.Password = envutil.String("POSTGRES_PASSWORD", cfg.Database.Password)
	cfg.Database.Name = envutil.String("POSTGRES_DB", cfg.Database.Name)
	cfg.Database.SSLMode = envutil.String("POSTGRES_SSLMODE", cfg.Database.SSLMode)
	cfg.Database.MaxOpenConns = envutil.Int("DB_MAX_OPEN_CONNS", cfg.Database.MaxOpenConns)

	cfg.Auth.JWTSecret = envutil.String("JWT_SECRET_KEY", cfg.Auth.JWTSecret)
	cfg.Auth.SessionTTL = envutil.Duration("SESSION_TTL", cfg.Auth.SessionTTL)

	cfg.Redis.Addr = envutil.String("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = envutil.String("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = envutil.Int("REDIS_DB", cfg.Redis.DB)

	cfg.LLM.Provider = envutil.String("LLM_PROVIDER", cfg.LLM.Provider)
	cfg.LLM.EmbedCacheSize = envutil.Int("EMBED_CACHE_SIZE", cfg.LLM.EmbedCacheSize)
	cfg.LLM.Ollama.BaseURL = envutil.String("OLLAMA_BASE_URL", cfg.LLM.Ollama.BaseURL)
	cfg.LLM.Ollama.EmbedModel = envutil.String("OLLAMA_EMBED_MODEL", cfg.LLM.Ollama.EmbedModel)
	cfg.LLM.Ollama.GenerateModel = envutil.String("OLLAMA_GENERATE_MODEL", cfg.LLM.Ollama.GenerateModel)
	cfg.LLM.OpenAI.APIKey = envutil.String("OPENAI_API_KEY", cfg.LLM.OpenAI.APIKey)
	cfg.LLM.OpenAI.BaseURL = envutil.String("OPENAI_BASE_URL", cfg.LLM.OpenAI.BaseURL)
	cfg.LLM.OpenAI.EmbedModel = envutil.String("OPENAI_EMBED_MODEL", cfg.LLM.OpenAI.EmbedModel)
	cfg.LLM.OpenAI.GenerateModel = envutil.String("OPENAI_GENERATE_MODEL", cfg.LLM.OpenAI.GenerateModel)

	cfg.Vector.Provider = envutil.String("VECTOR_PROVIDER", cfg.Vector.Provider)
	cfg.Vector.Qdrant.URL = envutil.String("QDRANT_URL", cfg.Vector.Qdrant.URL)
	cfg.Vector.Qdrant.Collection = envutil.String("QDRANT_COLLECTION", cfg.Vector.Qdrant.Collection)
	cfg.Vector.Qdrant.VectorDim = envutil.Int("QDRANT_VECTOR_DIM", cfg.Vector.Qdrant.VectorDim)
	cfg.Vector.Qdrant.CreateCollection = envutil.Bool("QDRANT_CREATE_COLLECTION", cfg.Vector.Qdrant.CreateCollection)

	cfg.Advisor.TopK = envutil.Int("ADVISOR_TOP_K", cfg.Advisor.TopK)
	cfg.Telemetry.Metrics = envutil.Bool("METRICS_ENABLED", cfg.Telemetry.Metrics)
	cfg.Telemetry.Version = envutil.String("APP_VERSION", cfg.Telemetry.Version)
}

func (c Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("database.driver %q: want postgres or sqlite", c.Database.Driver))
	}
	switch strings.ToLower(c.LLM.Provider) {
	case "ollama":
		if c.LLM.Ollama.BaseURL == "" {
			errs = append(errs, errors.New("llm.ollama.base_url is required"))
		}
	case "openai":
		if c.LLM.OpenAI.APIKey == "" {
			errs = append(errs, errors.New("llm.openai.api_key is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("llm.provider %q: want ollama or openai", c.LLM.Provider))
	}
	if _, err := resolveVectorProvider(c.Vector, c.Database.Driver); err != nil {
		errs = append(errs, err)
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required outside development"))
	}
	if c.Auth.SessionTTL <= 0 {
		errs = append(errs, errors.New("auth.session_ttl must be positive"))
	}
	if c.Advisor.TopK <= 0 {
		errs = append(errs, errors.New("advisor.top_k must be positive"))
	}
	return errors.Join(errs...)
}
