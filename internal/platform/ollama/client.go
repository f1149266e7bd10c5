package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yungbote/competency-advisor/internal/pkg/httpx"
	"github.com/yungbote/competency-advisor/internal/platform/llm"
	"github.com/yungbote/competency-advisor/internal/platform/logger"
)

const providerName = "ollama"

type Config struct {
	BaseURL       string
	EmbedModel    string
	GenerateModel string
	Timeout       time.Duration
	// EmbedRetries applies to embeddings only; generation is never retried.
	EmbedRetries int
}

type Client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

var (
	_ llm.Embedder  = (*Client)(nil)
	_ llm.Generator = (*Client)(nil)
)

func NewClient(log *logger.Logger, cfg Config, httpClient *http.Client) (*Client, error) {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("ollama: missing base url")
	}
	if cfg.EmbedModel == "" {
		cfg.EmbedModel = "nomic-embed-text"
	}
	if cfg.GenerateModel == "" {
		cfg.GenerateModel = "llama3.2"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.EmbedRetries < 0 {
		cfg.EmbedRetries = 0
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		log:        log.With("client", "OllamaClient"),
		cfg:        cfg,
		httpClient: httpClient,
	}, nil
}

type httpError struct {
	StatusCode int
	Body       string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("ollama http %d: %s", e.StatusCode, e.Body)
}

func (e *httpError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

type embeddingsRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embeddingsResponse struct {
	Embedding []float64 `json:"embedding"`
}

func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, span := otel.Tracer("ollama").Start(ctx, "ollama.embed")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", c.cfg.EmbedModel))

	req := embeddingsRequest{Model: c.cfg.EmbedModel, Prompt: text}
	var resp embeddingsResponse
	if err := c.doWithRetry(ctx, "/api/embeddings", req, &resp, c.cfg.EmbedRetries); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, toServiceError(llm.OpEmbed, err)
	}
	if len(resp.Embedding) == 0 {
		err := &llm.ServiceError{Provider: providerName, Op: llm.OpEmbed, Err: fmt.Errorf("empty embedding")}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	vec := make([]float32, len(resp.Embedding))
	for i, f := range resp.Embedding {
		vec[i] = float32(f)
	}
	return vec, nil
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, span := otel.Tracer("ollama").Start(ctx, "ollama.generate")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", c.cfg.GenerateModel), attribute.Int("llm.prompt_chars", len(prompt)))

	req := generateRequest{Model: c.cfg.GenerateModel, Prompt: prompt, Stream: false}
	var resp generateResponse
	if err := c.doWithRetry(ctx, "/api/generate", req, &resp, 0); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", toServiceError(llm.OpGenerate, err)
	}
	return resp.Response, nil
}

func (c *Client) doOnce(ctx context.Context, path string, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &httpError{StatusCode: resp.StatusCode, Body: truncate(string(raw), 512)}
	}
	return resp, raw, nil
}

func (c *Client) doWithRetry(ctx context.Context, path string, body any, out any, maxRetries int) error {
	backoff := 500 * time.Millisecond
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		resp, raw, err := c.doOnce(ctx, path, body)
		if err == nil {
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("ollama decode %s: %w", path, uErr)
			}
			return nil
		}
		if attempt == maxRetries || !httpx.IsRetryableError(err) {
			return err
		}
		sleepFor := httpx.JitterSleep(httpx.RetryAfterDuration(resp, backoff, 5*time.Second))
		c.log.Warn("Ollama request retrying",
			"path", path,
			"attempt", attempt+1,
			"max_retries", maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)
		if sErr := httpx.Sleep(ctx, sleepFor); sErr != nil {
			return err
		}
		backoff *= 2
	}
	return fmt.Errorf("unreachable retry loop")
}

func toServiceError(op llm.Op, err error) error {
	if he, ok := err.(*httpError); ok {
		return &llm.ServiceError{Provider: providerName, Op: op, StatusCode: he.StatusCode, Body: he.Body, Err: he}
	}
	return llm.Wrap(providerName, op, err)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
