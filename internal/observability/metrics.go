package observability

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Metrics is a process-wide registry rendered in Prometheus text format.
// Nil receivers are safe everywhere so call sites never guard.
type Metrics struct {
	llmRequests   *CounterVec
	llmLatency    *HistogramVec
	mergeAdded    *Counter
	mergeConflict *Counter
	syncProjects  *Counter
	syncUpdates   *Counter
	vectorEvents  *CounterVec
	apiRequests   *CounterVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	v := strings.TrimSpace(os.Getenv("METRICS_ENABLED"))
	if v == "" {
		return false
	}
	return strings.EqualFold(v, "true") || v == "1" || strings.EqualFold(v, "yes")
}

func Init() *Metrics {
	initOnce.Do(func() {
		if !Enabled() {
			return
		}
		instance = &Metrics{
			llmRequests: NewCounterVec("sitelore_llm_requests_total",
				"LLM gateway requests by model, endpoint and status.",
				[]string{"model", "endpoint", "status"}),
			llmLatency: NewHistogramVec("sitelore_llm_request_seconds",
				"LLM gateway request latency.",
				[]string{"model", "endpoint"},
				[]float64{0.5, 1, 2, 5, 10, 30, 60, 120}),
			mergeAdded: NewCounter("sitelore_merge_lessons_added_total",
				"Lessons appended to collections by the merge engine."),
			mergeConflict: NewCounter("sitelore_merge_conflicts_total",
				"Conflicts flagged by the merge engine."),
			syncProjects: NewCounter("sitelore_checklist_projects_synced_total",
				"Projects processed by checklist sync."),
			syncUpdates: NewCounter("sitelore_checklist_item_writes_total",
				"Checklist item writes issued by checklist sync."),
			vectorEvents: NewCounterVec("sitelore_vector_sync_events_total",
				"Vector sync events by kind and outcome.",
				[]string{"kind", "outcome"}),
			apiRequests: NewCounterVec("sitelore_api_requests_total",
				"API requests by method, route and status.",
				[]string{"method", "route", "status"}),
		}
	})
	return instance
}

func Current() *Metrics { return instance }

func (m *Metrics) ObserveLLMRequest(model, endpoint, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.llmRequests.Inc(orUnknown(model), orUnknown(endpoint), orUnknown(status))
	if dur > 0 {
		m.llmLatency.Observe(dur.Seconds(), orUnknown(model), orUnknown(endpoint))
	}
}

func (m *Metrics) ObserveMerge(added, conflicts int) {
	if m == nil {
		return
	}
	m.mergeAdded.Add(float64(added))
	m.mergeConflict.Add(float64(conflicts))
}

func (m *Metrics) ObserveChecklistSync(projects, updates int) {
	if m == nil {
		return
	}
	m.syncProjects.Add(float64(projects))
	m.syncUpdates.Add(float64(updates))
}

func (m *Metrics) IncVectorEvent(kind, outcome string) {
	if m == nil {
		return
	}
	m.vectorEvents.Inc(orUnknown(kind), orUnknown(outcome))
}

func (m *Metrics) IncAPIRequest(method, route, status string) {
	if m == nil {
		return
	}
	m.apiRequests.Inc(orUnknown(method), orUnknown(route), orUnknown(status))
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	writers := []interface{ WritePrometheus(io.Writer) error }{
		m.llmRequests, m.llmLatency, m.mergeAdded, m.mergeConflict,
		m.syncProjects, m.syncUpdates, m.vectorEvents, m.apiRequests,
	}
	for _, wr := range writers {
		if err := wr.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func orUnknown(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "unknown"
	}
	return s
}

// -------------------- primitives --------------------

type Counter struct {
	name string
	help string
	mu   sync.RWMutex
	val  float64
}

func NewCounter(name, help string) *Counter {
	return &Counter{name: name, help: help}
}

func (c *Counter) Inc() { c.Add(1) }

func (c *Counter) Add(v float64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.val += v
	c.mu.Unlock()
}

func (c *Counter) Value() float64 {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.val
}

func (c *Counter) WritePrometheus(w io.Writer) error {
	if c == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n", c.name, c.help, c.name); err != nil {
		return err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, err := fmt.Fprintf(w, "%s %f\n", c.name, c.val)
	return err
}

type CounterVec struct {
	name       string
	help       string
	labelNames []string
	mu         sync.RWMutex
	values     map[string]float64
}

func NewCounterVec(name, help string, labels []string) *CounterVec {
	return &CounterVec{name: name, help: help, labelNames: labels, values: map[string]float64{}}
}

func (c *CounterVec) Inc(values ...string) { c.Add(1, values...) }

func (c *CounterVec) Add(v float64, values ...string) {
	if c == nil {
		return
	}
	lbl := labelString(c.labelNames, values)
	c.mu.Lock()
	c.values[lbl] += v
	c.mu.Unlock()
}

func (c *CounterVec) WritePrometheus(w io.Writer) error {
	if c == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n", c.name, c.help, c.name); err != nil {
		return err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, err := fmt.Fprintf(w, "%s%s %f\n", c.name, k, c.values[k]); err != nil {
			return err
		}
	}
	return nil
}

type HistogramVec struct {
	name       string
	help       string
	labelNames []string
	buckets    []float64
	mu         sync.RWMutex
	counts     map[string][]float64
	sums       map[string]float64
	totals     map[string]float64
}

func NewHistogramVec(name, help string, labels []string, buckets []float64) *HistogramVec {
	return &HistogramVec{
		name:       name,
		help:       help,
		labelNames: labels,
		buckets:    buckets,
		counts:     map[string][]float64{},
		sums:       map[string]float64{},
		totals:     map[string]float64{},
	}
}

func (h *HistogramVec) Observe(v float64, values ...string) {
	if h == nil {
		return
	}
	lbl := labelString(h.labelNames, values)
	h.mu.Lock()
	defer h.mu.Unlock()
	counts, ok := h.counts[lbl]
	if !ok {
		counts = make([]float64, len(h.buckets))
		h.counts[lbl] = counts
	}
	for i, upper := range h.buckets {
		if v <= upper {
			counts[i]++
		}
	}
	h.sums[lbl] += v
	h.totals[lbl]++
}

func (h *HistogramVec) WritePrometheus(w io.Writer) error {
	if h == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s histogram\n", h.name, h.help, h.name); err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	keys := make([]string, 0, len(h.totals))
	for k := range h.totals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, lbl := range keys {
		counts := h.counts[lbl]
		for i, upper := range h.buckets {
			le := fmt.Sprintf("%g", upper)
			if _, err := fmt.Fprintf(w, "%s_bucket%s %f\n", h.name, mergeLabel(lbl, "le", le), counts[i]); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s_bucket%s %f\n", h.name, mergeLabel(lbl, "le", "+Inf"), h.totals[lbl]); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s_sum%s %f\n", h.name, lbl, h.sums[lbl]); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s_count%s %f\n", h.name, lbl, h.totals[lbl]); err != nil {
			return err
		}
	}
	return nil
}

func labelString(names, values []string) string {
	if len(names) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("{")
	for i, n := range names {
		if i > 0 {
			b.WriteString(",")
		}
		v := ""
		if i < len(values) {
			v = values[i]
		}
		fmt.Fprintf(&b, "%s=%q", n, v)
	}
	b.WriteString("}")
	return b.String()
}

func mergeLabel(existing, name, value string) string {
	extra := fmt.Sprintf("%s=%q", name, value)
	if existing == "" {
		return "{" + extra + "}"
	}
	return strings.TrimSuffix(existing, "}") + "," + extra + "}"
}
