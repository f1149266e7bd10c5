package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapClassifiesTimeouts(t *testing.T) {
	err := Wrap("ollama", OpGenerate, fmt.Errorf("post: %w", context.DeadlineExceeded))
	se, ok := AsServiceError(err)
	require.True(t, ok)
	assert.True(t, se.Timeout)
	assert.Equal(t, http.StatusGatewayTimeout, se.ResponseStatus())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWrapKeepsExistingServiceError(t *testing.T) {
	orig := &ServiceError{Provider: "openai", Op: OpEmbed, StatusCode: 500}
	err := Wrap("openai", OpEmbed, fmt.Errorf("ctx: %w", orig))
	se, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Same(t, orig, se)
	assert.Equal(t, http.StatusBadGateway, se.ResponseStatus())
}

func TestWrapLeavesCancellation(t *testing.T) {
	err := Wrap("ollama", OpEmbed, context.Canceled)
	_, ok := AsServiceError(err)
	assert.False(t, ok)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap("x", OpEmbed, nil))
}
