package observability

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMetricsWritePrometheus(t *testing.T) {
	m := NewMetrics()
	m.ObserveAPI("get", "/api/me", "200", 30*time.Millisecond)
	m.ObserveAPI("GET", "/api/me", "200", 2*time.Second)
	m.APIInflight(1)
	m.ObserveUpstream("ollama", "embed", nil, 100*time.Millisecond)
	m.ObserveUpstream("ollama", "generate", errors.New("boom"), time.Second)
	m.IncAdvisorAnswer("roadmap")
	m.AddIngest(3, 1)

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`competency_api_requests_total{method="GET",route="/api/me",status="200"} 2`,
		`competency_api_request_duration_seconds_bucket{method="GET",route="/api/me",le="0.05"} 1`,
		`competency_api_request_duration_seconds_bucket{method="GET",route="/api/me",le="+Inf"} 2`,
		`competency_api_request_duration_seconds_count{method="GET",route="/api/me"} 2`,
		`competency_api_inflight_requests 1`,
		`competency_upstream_requests_total{provider="ollama",op="generate",status="error"} 1`,
		`competency_advisor_answers_total{strategy="roadmap"} 1`,
		`competency_ingest_rows_total{outcome="failed"} 1`,
		"# TYPE competency_api_request_duration_seconds histogram",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/", "200", time.Millisecond)
	m.IncAdvisorAnswer("roadmap")
	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestEscapeLabel(t *testing.T) {
	if got := renderLabels([]string{"a"}, []string{"x\"y\n"}); got != `{a="x\"y\n"}` {
		t.Fatalf("renderLabels=%s", got)
	}
}
