package ollama

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/competency-advisor/internal/platform/llm"
	"github.com/yungbote/competency-advisor/internal/platform/logger"
)

func newTestClient(t *testing.T, srv *httptest.Server, retries int) *Client {
	t.Helper()
	c, err := NewClient(logger.Nop(), Config{BaseURL: srv.URL, EmbedRetries: retries, Timeout: 2 * time.Second}, srv.Client())
	require.NoError(t, err)
	return c
}

func TestEmbedDecodesVector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/embeddings", r.URL.Path)
		var body embeddingsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "nomic-embed-text", body.Model)
		assert.Equal(t, "python", body.Prompt)
		_ = json.NewEncoder(w).Encode(map[string]any{"embedding": []float64{0.5, -1, 2}})
	}))
	defer srv.Close()

	vec, err := newTestClient(t, srv, 0).Embed(context.Background(), "python")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, -1, 2}, vec)
}

func TestEmbedRetriesTransientFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"embedding": []float64{1}})
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, 2).Embed(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGenerateDoesNotRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("model crashed"))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, 3).Generate(context.Background(), "prompt")
	require.Error(t, err)
	se, ok := llm.AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
	assert.Equal(t, llm.OpGenerate, se.Op)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGenerateSendsNonStreamingRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate", r.URL.Path)
		var body generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.False(t, body.Stream)
		assert.Equal(t, "llama3.2", body.Model)
		_ = json.NewEncoder(w).Encode(map[string]any{"response": "E0 then E1", "done": true})
	}))
	defer srv.Close()

	out, err := newTestClient(t, srv, 0).Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "E0 then E1", out)
}

func TestGenerateTimeoutIsTyped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := newTestClient(t, srv, 0)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.Generate(ctx, "slow")
	se, ok := llm.AsServiceError(err)
	require.True(t, ok)
	assert.True(t, se.Timeout)
	assert.Equal(t, http.StatusGatewayTimeout, se.ResponseStatus())
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient(logger.Nop(), Config{}, nil)
	require.Error(t, err)
}
