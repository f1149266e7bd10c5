package observability

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

// Metrics is a small Prometheus text-format registry. A nil *Metrics is a
// valid no-op so callers never branch on whether metrics are enabled.
type Metrics struct {
	apiRequests *seriesVec
	apiLatency  *histogramVec
	apiInflight *seriesVec

	upstreamRequests *seriesVec
	upstreamLatency  *histogramVec

	advisorAnswers *seriesVec
	ingestRows     *seriesVec
}

func NewMetrics() *Metrics {
	latency := []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}
	return &Metrics{
		apiRequests:      newSeriesVec("competency_api_requests_total", "HTTP requests by method, route and status.", "counter", "method", "route", "status"),
		apiLatency:       newHistogramVec("competency_api_request_duration_seconds", "HTTP request latency.", latency, "method", "route"),
		apiInflight:      newSeriesVec("competency_api_inflight_requests", "HTTP requests being served.", "gauge"),
		upstreamRequests: newSeriesVec("competency_upstream_requests_total", "Model and vector index calls by provider, op and outcome.", "counter", "provider", "op", "status"),
		upstreamLatency:  newHistogramVec("competency_upstream_request_duration_seconds", "Model and vector index call latency.", latency, "provider", "op"),
		advisorAnswers:   newSeriesVec("competency_advisor_answers_total", "Advisor answers by strategy.", "counter", "strategy"),
		ingestRows:       newSeriesVec("competency_ingest_rows_total", "Catalog rows processed by ingest.", "counter", "outcome"),
	}
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unknown"
	}
	m.apiRequests.add(1, strings.ToUpper(method), route, status)
	m.apiLatency.observe(dur.Seconds(), strings.ToUpper(method), route)
}

func (m *Metrics) APIInflight(delta float64) {
	if m == nil {
		return
	}
	m.apiInflight.add(delta)
}

func (m *Metrics) ObserveUpstream(provider, op string, err error, dur time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.upstreamRequests.add(1, provider, op, status)
	m.upstreamLatency.observe(dur.Seconds(), provider, op)
}

func (m *Metrics) IncAdvisorAnswer(strategy string) {
	if m == nil {
		return
	}
	m.advisorAnswers.add(1, strategy)
}

func (m *Metrics) AddIngest(embedded, failed int) {
	if m == nil {
		return
	}
	m.ingestRows.add(float64(embedded), "embedded")
	m.ingestRows.add(float64(failed), "failed")
}

func (m *Metrics) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, f := range []interface{ write(io.Writer) error }{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.upstreamRequests, m.upstreamLatency,
		m.advisorAnswers, m.ingestRows,
	} {
		if err := f.write(w); err != nil {
			return err
		}
	}
	return nil
}

// seriesVec is a counter or gauge family keyed by rendered label set.
type seriesVec struct {
	name   string
	help   string
	kind   string
	labels []string

	mu     sync.Mutex
	values map[string]float64
}

func newSeriesVec(name, help, kind string, labels ...string) *seriesVec {
	return &seriesVec{name: name, help: help, kind: kind, labels: labels, values: map[string]float64{}}
}

func (s *seriesVec) add(v float64, values ...string) {
	key := renderLabels(s.labels, values)
	s.mu.Lock()
	s.values[key] += v
	s.mu.Unlock()
}

func (s *seriesVec) write(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeHeader(w, s.name, s.help, s.kind); err != nil {
		return err
	}
	for _, k := range sortedKeys(s.values) {
		if _, err := fmt.Fprintf(w, "%s%s %g\n", s.name, k, s.values[k]); err != nil {
			return err
		}
	}
	return nil
}

type histogramVec struct {
	name    string
	help    string
	labels  []string
	buckets []float64

	mu     sync.Mutex
	series map[string]*histogram
}

type histogram struct {
	counts []uint64 // cumulative per bucket, then +Inf
	sum    float64
}

func newHistogramVec(name, help string, buckets []float64, labels ...string) *histogramVec {
	return &histogramVec{name: name, help: help, labels: labels, buckets: buckets, series: map[string]*histogram{}}
}

func (h *histogramVec) observe(v float64, values ...string) {
	key := renderLabels(h.labels, values)
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.series[key]
	if !ok {
		s = &histogram{counts: make([]uint64, len(h.buckets)+1)}
		h.series[key] = s
	}
	s.sum += v
	for i, b := range h.buckets {
		if v <= b {
			s.counts[i]++
		}
	}
	s.counts[len(h.buckets)]++
}

func (h *histogramVec) write(w io.Writer) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := writeHeader(w, h.name, h.help, "histogram"); err != nil {
		return err
	}
	keys := make([]string, 0, len(h.series))
	for k := range h.series {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		s := h.series[k]
		for i, b := range h.buckets {
			if _, err := fmt.Fprintf(w, "%s_bucket%s %d\n", h.name, withLe(k, fmt.Sprintf("%g", b)), s.counts[i]); err != nil {
				return err
			}
		}
		total := s.counts[len(h.buckets)]
		if _, err := fmt.Fprintf(w, "%s_bucket%s %d\n%s_sum%s %g\n%s_count%s %d\n",
			h.name, withLe(k, "+Inf"), total, h.name, k, s.sum, h.name, k, total); err != nil {
			return err
		}
	}
	return nil
}

func writeHeader(w io.Writer, name, help, kind string) error {
	_, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n", name, help, name, kind)
	return err
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func renderLabels(names, values []string) string {
	if len(names) == 0 {
		return ""
	}
	parts := make([]string, len(names))
	for i, n := range names {
		v := "unknown"
		if i < len(values) && values[i] != "" {
			v = values[i]
		}
		parts[i] = n + `="` + escapeLabel(v) + `"`
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func escapeLabel(v string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`).Replace(v)
}

func withLe(labels, le string) string {
	if labels == "" {
		return `{le="` + le + `"}`
	}
	return strings.TrimSuffix(labels, "}") + `,le="` + le + `"}`
}
