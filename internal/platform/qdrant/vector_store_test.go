package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/yungbote/competency-advisor/internal/platform/logger"
)

func TestVectorStoreUpsertRequestShape(t *testing.T) {
	var captured map[string]any
	s := newTestVectorStore(t, func(r *http.Request) (*http.Response, error) {
		if r.Method != http.MethodPut {
			t.Fatalf("method: want=%s got=%s", http.MethodPut, r.Method)
		}
		if r.URL.Path != "/collections/competencies/points" {
			t.Fatalf("path: got=%q", r.URL.Path)
		}
		if r.URL.RawQuery != "wait=true" {
			t.Fatalf("query: got=%q", r.URL.RawQuery)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		return okResponse(t, map[string]any{"status": "acknowledged"}), nil
	})

	meta := map[string]any{"name": "Python"}
	err := s.Upsert(context.Background(), []Point{
		{CompetencyID: 11, Vector: []float32{1, 2, 3}, Payload: meta},
		{CompetencyID: 12, Vector: []float32{4, 5, 6}},
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	points, ok := captured["points"].([]any)
	if !ok || len(points) != 2 {
		t.Fatalf("points: got=%v", captured["points"])
	}
	first := points[0].(map[string]any)
	if first["id"] != s.pointID(11) {
		t.Fatalf("point id mismatch: got=%v", first["id"])
	}
	payload := first["payload"].(map[string]any)
	if payload[payloadNamespaceKey] != "nomic" {
		t.Fatalf("payload namespace: got=%v", payload[payloadNamespaceKey])
	}
	if payload[payloadCompetencyIDKey] != float64(11) {
		t.Fatalf("payload competency id: got=%v", payload[payloadCompetencyIDKey])
	}
	if _, exists := meta[payloadNamespaceKey]; exists {
		t.Fatalf("input payload mutated")
	}
}

func TestVectorStoreUpsertRejectsDimensionMismatch(t *testing.T) {
	s := newTestVectorStore(t, func(r *http.Request) (*http.Response, error) {
		t.Fatalf("no request expected")
		return nil, nil
	})
	err := s.Upsert(context.Background(), []Point{{CompetencyID: 1, Vector: []float32{1}}})
	var oe *OperationError
	if !errors.As(err, &oe) || oe.Code != OperationErrorValidation {
		t.Fatalf("expected validation error, got=%v", err)
	}
}

func TestVectorStoreSearchOrdersByScoreThenID(t *testing.T) {
	var captured map[string]any
	s := newTestVectorStore(t, func(r *http.Request) (*http.Response, error) {
		if r.URL.Path != "/collections/competencies/points/search" {
			t.Fatalf("path: got=%q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		return okResponse(t, []map[string]any{
			{"id": "b", "score": 0.5, "payload": map[string]any{payloadCompetencyIDKey: 9}},
			{"id": "a", "score": 0.9, "payload": map[string]any{payloadCompetencyIDKey: 4}},
			{"id": "c", "score": 0.5, "payload": map[string]any{payloadCompetencyIDKey: 2}},
			{"id": "d", "score": 0.99, "payload": map[string]any{}},
		}), nil
	})

	matches, err := s.Search(context.Background(), []float32{1, 2, 3}, 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	want := []int64{4, 2, 9}
	if len(matches) != len(want) {
		t.Fatalf("matches: got=%v", matches)
	}
	for i, id := range want {
		if matches[i].CompetencyID != id {
			t.Fatalf("match[%d]: want=%d got=%d", i, id, matches[i].CompetencyID)
		}
	}
	if captured["limit"] != float64(3) {
		t.Fatalf("limit: got=%v", captured["limit"])
	}
	filter := captured["filter"].(map[string]any)
	must := filter["must"].([]any)
	cond := must[0].(map[string]any)
	if cond["key"] != payloadNamespaceKey {
		t.Fatalf("filter key: got=%v", cond["key"])
	}
}

func TestVectorStoreSearchSurfacesHTTPStatus(t *testing.T) {
	s := newTestVectorStore(t, func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusServiceUnavailable,
			Header:     make(http.Header),
			Body:       io.NopCloser(bytes.NewBufferString("down")),
		}, nil
	})
	_, err := s.Search(context.Background(), []float32{1, 2, 3}, 5)
	var oe *OperationError
	if !errors.As(err, &oe) {
		t.Fatalf("expected OperationError, got=%T", err)
	}
	if oe.HTTPStatusCode() != http.StatusServiceUnavailable {
		t.Fatalf("status: got=%d", oe.StatusCode)
	}
}

func TestVectorStoreDeleteDedupes(t *testing.T) {
	var captured map[string]any
	s := newTestVectorStore(t, func(r *http.Request) (*http.Response, error) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		return okResponse(t, map[string]any{"status": "acknowledged"}), nil
	})
	if err := s.Delete(context.Background(), []int64{3, 3, 0, 4}); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := len(captured["points"].([]any)); got != 2 {
		t.Fatalf("points: want=2 got=%d", got)
	}
}

func TestVerifyReadyCreatesMissingCollection(t *testing.T) {
	var created bool
	s := newTestVectorStore(t, func(r *http.Request) (*http.Response, error) {
		switch {
		case r.URL.Path == "/readyz":
			return okResponse(t, nil), nil
		case r.Method == http.MethodGet:
			return &http.Response{StatusCode: http.StatusNotFound, Header: make(http.Header), Body: io.NopCloser(bytes.NewBufferString(`{"status":{"error":"Not found"}}`))}, nil
		case r.Method == http.MethodPut:
			created = true
			return okResponse(t, true), nil
		}
		return nil, fmt.Errorf("unexpected %s %s", r.Method, r.URL.Path)
	})
	s.cfg.CreateCollection = true
	if err := s.verifyReady(context.Background()); err != nil {
		t.Fatalf("verifyReady: %v", err)
	}
	if !created {
		t.Fatalf("collection was not created")
	}
}

func TestValidateConfig(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		code ConfigErrorCode
	}{
		{"missing url", Config{Collection: "c", VectorDim: 3}, ConfigErrorMissingURL},
		{"relative url", Config{URL: "qdrant:6333", Collection: "c", VectorDim: 3}, ConfigErrorInvalidURL},
		{"missing collection", Config{URL: "http://q:6333", VectorDim: 3}, ConfigErrorMissingCollection},
		{"bad dim", Config{URL: "http://q:6333", Collection: "c"}, ConfigErrorInvalidVectorDim},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var ce *ConfigError
			if err := ValidateConfig(tc.cfg); !errors.As(err, &ce) || ce.Code != tc.code {
				t.Fatalf("want code %q, got %v", tc.code, err)
			}
		})
	}
	if err := ValidateConfig(Config{URL: "http://q:6333", Collection: "c", VectorDim: 768}); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestClassifyHTTPCallErrorTransport(t *testing.T) {
	err := classifyHTTPCallError("search", "transport", fmt.Errorf("boom"))
	var oe *OperationError
	if !errors.As(err, &oe) || oe.Code != OperationErrorTransportFailed {
		t.Fatalf("expected transport error, got=%v", err)
	}
	err = classifyHTTPCallError("search", "timeout", context.DeadlineExceeded)
	if !errors.As(err, &oe) || oe.Code != OperationErrorTimeout {
		t.Fatalf("expected timeout error, got=%v", err)
	}
}

func newTestVectorStore(t *testing.T, roundTrip func(*http.Request) (*http.Response, error)) *VectorStore {
	t.Helper()
	s := newVectorStore(newTestLogger(t), Config{
		URL:        "http://qdrant.local",
		Collection: "competencies",
		Namespace:  "nomic",
		VectorDim:  3,
	}, &http.Client{Transport: roundTripFunc(roundTrip)})
	s.distance = "Cosine"
	return s
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(func() {
		log.Sync()
	})
	return log
}

func okResponse(t *testing.T, result any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"result": result,
		"status": "ok",
		"time":   0.001,
	})
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     make(http.Header),
		Body:       io.NopCloser(bytes.NewReader(raw)),
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}
