package app

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	types "github.com/yungbote/competency-advisor/internal/domain"
	"github.com/yungbote/competency-advisor/internal/observability"
	"github.com/yungbote/competency-advisor/internal/platform/llm"
	"github.com/yungbote/competency-advisor/internal/services"
)

var tracer = otel.Tracer("github.com/yungbote/competency-advisor/internal/app")

// instrumentedLLM records a span and a latency sample per upstream call.
type instrumentedLLM struct {
	provider  string
	embedder  llm.Embedder
	generator llm.Generator
	metrics   *observability.Metrics
}

func instrumentLLM(provider string, embedder llm.Embedder, generator llm.Generator, metrics *observability.Metrics) *instrumentedLLM {
	return &instrumentedLLM{provider: provider, embedder: embedder, generator: generator, metrics: metrics}
}

func (l *instrumentedLLM) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, finish := l.observe(ctx, string(llm.OpEmbed))
	vec, err := l.embedder.Embed(ctx, text)
	finish(err)
	return vec, err
}

func (l *instrumentedLLM) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, finish := l.observe(ctx, string(llm.OpGenerate))
	out, err := l.generator.Generate(ctx, prompt)
	finish(err)
	return out, err
}

func (l *instrumentedLLM) observe(ctx context.Context, op string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "llm."+op)
	span.SetAttributes(attribute.String("llm.provider", l.provider))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		l.metrics.ObserveUpstream(l.provider, op, err, time.Since(start))
	}
}

type instrumentedVectorIndex struct {
	inner   services.VectorIndex
	metrics *observability.Metrics
}

func instrumentVectorIndex(inner services.VectorIndex, metrics *observability.Metrics) services.VectorIndex {
	if inner == nil || metrics == nil {
		return inner
	}
	return &instrumentedVectorIndex{inner: inner, metrics: metrics}
}

func (v *instrumentedVectorIndex) Provider() string { return v.inner.Provider() }

func (v *instrumentedVectorIndex) Nearest(ctx context.Context, vec []float32, k int) ([]*types.Competency, error) {
	start := time.Now()
	rows, err := v.inner.Nearest(ctx, vec, k)
	v.metrics.ObserveUpstream(v.inner.Provider(), "nearest", err, time.Since(start))
	return rows, err
}

func (v *instrumentedVectorIndex) Index(ctx context.Context, row *types.Competency, vec []float32) error {
	start := time.Now()
	err := v.inner.Index(ctx, row, vec)
	v.metrics.ObserveUpstream(v.inner.Provider(), "index", err, time.Since(start))
	return err
}
