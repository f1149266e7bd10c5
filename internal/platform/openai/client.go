package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yungbote/competency-advisor/internal/pkg/httpx"
	"github.com/yungbote/competency-advisor/internal/platform/llm"
	"github.com/yungbote/competency-advisor/internal/platform/logger"
)

const providerName = "openai"

type Config struct {
	APIKey        string
	BaseURL       string
	EmbedModel    string
	GenerateModel string
	Timeout       time.Duration
	EmbedRetries  int
}

// Client serves embeddings and chat completions from OpenAI or any
// OpenAI-compatible endpoint.
type Client struct {
	log    *logger.Logger
	cfg    Config
	client *goopenai.Client
}

var (
	_ llm.Embedder  = (*Client)(nil)
	_ llm.Generator = (*Client)(nil)
)

func NewClient(log *logger.Logger, cfg Config, httpClient *http.Client) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("openai: missing api key")
	}
	if cfg.EmbedModel == "" {
		cfg.EmbedModel = string(goopenai.SmallEmbedding3)
	}
	if cfg.GenerateModel == "" {
		cfg.GenerateModel = goopenai.GPT4oMini
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	conf := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		conf.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	conf.HTTPClient = httpClient
	return &Client{
		log:    log.With("client", "OpenAIClient"),
		cfg:    cfg,
		client: goopenai.NewClientWithConfig(conf),
	}, nil
}

func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, span := otel.Tracer("openai").Start(ctx, "openai.embed")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", c.cfg.EmbedModel))

	req := goopenai.EmbeddingRequest{
		Input: []string{text},
		Model: goopenai.EmbeddingModel(c.cfg.EmbedModel),
	}
	backoff := 500 * time.Millisecond
	for attempt := 0; ; attempt++ {
		resp, err := c.client.CreateEmbeddings(ctx, req)
		if err == nil {
			if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
				return nil, &llm.ServiceError{Provider: providerName, Op: llm.OpEmbed, Err: fmt.Errorf("empty embedding")}
			}
			return resp.Data[0].Embedding, nil
		}
		mapped := mapError(llm.OpEmbed, err)
		if attempt >= c.cfg.EmbedRetries || !httpx.IsRetryableError(mapped) {
			span.SetStatus(codes.Error, mapped.Error())
			return nil, mapped
		}
		sleepFor := httpx.JitterSleep(backoff)
		c.log.Warn("OpenAI embedding retrying", "attempt", attempt+1, "sleep", sleepFor.String(), "error", mapped.Error())
		if sErr := httpx.Sleep(ctx, sleepFor); sErr != nil {
			return nil, mapped
		}
		backoff *= 2
	}
}

const systemPrompt = "You answer questions about an internal competency catalog."

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, span := otel.Tracer("openai").Start(ctx, "openai.generate")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", c.cfg.GenerateModel))

	resp, err := c.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: c.cfg.GenerateModel,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		mapped := mapError(llm.OpGenerate, err)
		span.SetStatus(codes.Error, mapped.Error())
		return "", mapped
	}
	if len(resp.Choices) == 0 {
		return "", &llm.ServiceError{Provider: providerName, Op: llm.OpGenerate, Err: fmt.Errorf("no choices in response")}
	}
	span.SetAttributes(attribute.Int("llm.output_tokens", resp.Usage.CompletionTokens))
	return resp.Choices[0].Message.Content, nil
}

func mapError(op llm.Op, err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return &llm.ServiceError{Provider: providerName, Op: op, StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message, Err: err}
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return &llm.ServiceError{Provider: providerName, Op: op, StatusCode: reqErr.HTTPStatusCode, Err: err}
	}
	return llm.Wrap(providerName, op, err)
}
