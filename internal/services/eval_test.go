package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvalServiceScoresProvidedAndAdvisorAnswers(t *testing.T) {
	f := newAdvisorFixture(t)
	f.env.ladder(t, "Azure", nil, "E0", "E1", "E2")
	svc := NewEvalService(f.env.log, f.advisor, nil)

	report, err := svc.Evaluate(context.Background(), []EvalCase{
		{Question: "How to complete Azure (Level: E1)"},
		{Question: "How to complete Azure (Level: E1)", Answer: "I do not know."},
		{Question: "tell me something", Answer: "Azure E1"},
	})
	require.NoError(t, err)
	require.Len(t, report.Results, 3)

	assert.Equal(t, "roadmap", report.Results[0].Strategy)
	assert.InDelta(t, 1.0, report.Results[0].Report.Score, 1e-9)
	assert.InDelta(t, 0.0, report.Results[1].Report.Score, 1e-9)
	assert.False(t, report.Results[2].Report.Parsed)

	// the unparseable question drags the mean down
	assert.Equal(t, 3, report.Scored)
	assert.Zero(t, report.Failed)
	assert.InDelta(t, 1.0/3.0, report.Mean, 1e-9)
}

func TestEvalServiceSkipsFailedAdvisorCalls(t *testing.T) {
	f := newAdvisorFixture(t)
	f.emb.err = errors.New("embedder down")
	svc := NewEvalService(f.env.log, f.advisor, nil)

	report, err := svc.Evaluate(context.Background(), []EvalCase{
		{Question: "what is cloud networking?"},
		{Question: "How to complete Azure (Level: E1)", Answer: "Azure E0 then E1"},
	})
	require.NoError(t, err)
	require.Len(t, report.Results, 2)
	assert.NotEmpty(t, report.Results[0].Error)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Scored)
	assert.InDelta(t, 1.0, report.Mean, 1e-9)
}
