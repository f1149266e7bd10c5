package services

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	types "github.com/yungbote/competency-advisor/internal/domain"
	"github.com/yungbote/competency-advisor/internal/learning"
	"github.com/yungbote/competency-advisor/internal/platform/llm"
	"github.com/yungbote/competency-advisor/internal/platform/logger"
)

func TestRetrievalServiceNoMatchSkipsGeneration(t *testing.T) {
	emb := &fakeEmbedder{}
	gen := &fakeGenerator{out: "should not be used"}
	svc := NewRetrievalService(logger.Nop(), emb, gen, &fakeIndex{}, 0)

	res, err := svc.Answer(context.Background(), "anything about kotlin?")
	require.NoError(t, err)
	assert.Equal(t, learning.NoMatchAnswer, res.Answer)
	assert.Empty(t, res.Sources)
	assert.Equal(t, 0, gen.calls)
	assert.EqualValues(t, 1, emb.calls.Load())
}

func TestRetrievalServiceGeneratesFromContext(t *testing.T) {
	rows := []*types.Competency{
		{ID: 1, Name: "Azure", FocusArea: "Cloud", ProficiencyLevel: "E0", Description: "basics"},
		{ID: 2, Name: "Azure", FocusArea: "Cloud", ProficiencyLevel: "E1", Description: "networking"},
	}
	gen := &fakeGenerator{out: "  Azure E1 covers networking.  "}
	svc := NewRetrievalService(logger.Nop(), &fakeEmbedder{}, gen, &fakeIndex{rows: rows}, 1)

	res, err := svc.Answer(context.Background(), "What is in Azure E1?")
	require.NoError(t, err)
	assert.Equal(t, "Azure E1 covers networking.", res.Answer)
	require.Len(t, res.Sources, 1, "top k bounds the context")
	assert.Equal(t, learning.Source{CompetencyID: 1, Name: "Azure", FocusArea: "Cloud", Level: "E0"}, res.Sources[0])
	assert.Contains(t, gen.lastPrompt, "Competency: Azure\nDescription: basics")
	assert.Contains(t, gen.lastPrompt, "Question:\nWhat is in Azure E1?")
}

func TestRetrievalServiceUpstreamFailures(t *testing.T) {
	tests := []struct {
		name   string
		emb    *fakeEmbedder
		gen    *fakeGenerator
		status int
		code   string
	}{
		{
			name:   "embed unavailable",
			emb:    &fakeEmbedder{err: &llm.ServiceError{Provider: "ollama", Op: llm.OpEmbed, StatusCode: 500}},
			gen:    &fakeGenerator{},
			status: http.StatusBadGateway,
			code:   "upstream_unavailable",
		},
		{
			name:   "generate timeout",
			emb:    &fakeEmbedder{},
			gen:    &fakeGenerator{err: &llm.ServiceError{Provider: "ollama", Op: llm.OpGenerate, Timeout: true}},
			status: http.StatusGatewayTimeout,
			code:   "upstream_timeout",
		},
		{
			name:   "untyped failure",
			emb:    &fakeEmbedder{err: errors.New("boom")},
			gen:    &fakeGenerator{},
			status: http.StatusBadGateway,
			code:   "upstream_unavailable",
		},
	}
	rows := []*types.Competency{{ID: 1, Name: "Go", ProficiencyLevel: "E0"}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewRetrievalService(logger.Nop(), tt.emb, tt.gen, &fakeIndex{rows: rows}, 5)
			_, err := svc.Answer(context.Background(), "go?")
			requireAPIError(t, err, tt.status, tt.code)
		})
	}
}

func TestRetrievalServiceRejectsBlankQuestion(t *testing.T) {
	emb := &fakeEmbedder{}
	svc := NewRetrievalService(logger.Nop(), emb, &fakeGenerator{}, &fakeIndex{}, 5)
	_, err := svc.Answer(context.Background(), "   ")
	requireAPIError(t, err, http.StatusBadRequest, "missing_question")
	assert.Zero(t, emb.calls.Load())
}
