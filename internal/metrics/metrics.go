// Package metrics provides Prometheus-compatible counters, gauges and
// histograms for keyjournal.
//
// Metrics are exported in the Prometheus text format, either to a writer or
// atomically to a textfile that a node exporter can pick up.
package metrics

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Labels are constant metric labels.
type Labels map[string]string

// String renders labels in exposition order: {a="1",b="2"}.
func (l Labels) String() string {
	if len(l) == 0 {
		return ""
	}

	keys := make([]string, 0, len(l))
	for k := range l {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(l))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf(`%s=%q`, k, l[k]))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// Counter is a monotonically increasing counter.
type Counter struct {
	name   string
	help   string
	labels Labels
	value  atomic.Uint64
}

// Inc increments the counter by 1.
func (c *Counter) Inc() { c.value.Add(1) }

// Add adds v to the counter.
func (c *Counter) Add(v uint64) { c.value.Add(v) }

// Value returns the current value.
func (c *Counter) Value() uint64 { return c.value.Load() }

// Gauge is a value that can go up and down.
type Gauge struct {
	name   string
	help   string
	labels Labels
	value  atomic.Int64
}

// Set sets the gauge.
func (g *Gauge) Set(v int64) { g.value.Store(v) }

// Inc increments the gauge by 1.
func (g *Gauge) Inc() { g.value.Add(1) }

// Dec decrements the gauge by 1.
func (g *Gauge) Dec() { g.value.Add(-1) }

// Value returns the current value.
func (g *Gauge) Value() int64 { return g.value.Load() }

// Histogram tracks the distribution of observed values.
type Histogram struct {
	name    string
	help    string
	labels  Labels
	buckets []float64

	mu     sync.Mutex
	counts []uint64 // per bucket, plus +Inf
	sum    float64
	count  uint64
}

// DurationBuckets are buckets for durations in seconds.
var DurationBuckets = []float64{
	0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5,
}

// Observe records v.
func (h *Histogram) Observe(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.sum += v
	h.count++
	i, _ := slices.BinarySearch(h.buckets, v)
	h.counts[i]++
}

// ObserveDuration records d in seconds.
func (h *Histogram) ObserveDuration(d time.Duration) {
	h.Observe(d.Seconds())
}

// Count returns the number of observations.
func (h *Histogram) Count() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

// Sum returns the sum of observations.
func (h *Histogram) Sum() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sum
}

// Registry holds named metrics. Registering an existing name returns the
// metric already registered under it.
type Registry struct {
	namespace string

	mu         sync.RWMutex
	counters   map[string]*Counter
	gauges     map[string]*Gauge
	histograms map[string]*Histogram
}

// NewRegistry creates a registry prefixing every name with namespace.
func NewRegistry(namespace string) *Registry {
	return &Registry{
		namespace:  namespace,
		counters:   make(map[string]*Counter),
		gauges:     make(map[string]*Gauge),
		histograms: make(map[string]*Histogram),
	}
}

func (r *Registry) fullName(name string) string {
	if r.namespace == "" {
		return name
	}
	return r.namespace + "_" + name
}

// Counter registers a counter.
func (r *Registry) Counter(name, help string, labels Labels) *Counter {
	full := r.fullName(name)
	key := full + labels.String()

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.counters[key]; ok {
		return c
	}
	c := &Counter{name: full, help: help, labels: labels}
	r.counters[key] = c
	return c
}

// Gauge registers a gauge.
func (r *Registry) Gauge(name, help string, labels Labels) *Gauge {
	full := r.fullName(name)
	key := full + labels.String()

	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok := r.gauges[key]; ok {
		return g
	}
	g := &Gauge{name: full, help: help, labels: labels}
	r.gauges[key] = g
	return g
}

// Histogram registers a histogram. Nil buckets select DurationBuckets.
func (r *Registry) Histogram(name, help string, labels Labels, buckets []float64) *Histogram {
	full := r.fullName(name)
	key := full + labels.String()

	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.histograms[key]; ok {
		return h
	}
	if buckets == nil {
		buckets = DurationBuckets
	}
	sorted := slices.Clone(buckets)
	slices.Sort(sorted)
	h := &Histogram{
		name:    full,
		help:    help,
		labels:  labels,
		buckets: sorted,
		counts:  make([]uint64, len(sorted)+1),
	}
	r.histograms[key] = h
	return h
}

// WritePrometheus writes every metric in the Prometheus text format, sorted
// by name.
func (r *Registry) WritePrometheus(w io.Writer) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var b strings.Builder
	described := make(map[string]bool)
	describe := func(name, help, kind string) {
		if described[name] {
			return
		}
		described[name] = true
		fmt.Fprintf(&b, "# HELP %s %s\n", name, help)
		fmt.Fprintf(&b, "# TYPE %s %s\n", name, kind)
	}

	for _, key := range sortedKeys(r.counters) {
		c := r.counters[key]
		describe(c.name, c.help, "counter")
		fmt.Fprintf(&b, "%s%s %d\n", c.name, c.labels, c.Value())
	}

	for _, key := range sortedKeys(r.gauges) {
		g := r.gauges[key]
		describe(g.name, g.help, "gauge")
		fmt.Fprintf(&b, "%s%s %d\n", g.name, g.labels, g.Value())
	}

	for _, key := range sortedKeys(r.histograms) {
		h := r.histograms[key]
		describe(h.name, h.help, "histogram")

		prefix := "{"
		if s := h.labels.String(); s != "" {
			prefix = s[:len(s)-1] + ","
		}

		h.mu.Lock()
		var cumulative uint64
		for i, upper := range h.buckets {
			cumulative += h.counts[i]
			fmt.Fprintf(&b, "%s_bucket%sle=\"%g\"} %d\n", h.name, prefix, upper, cumulative)
		}
		cumulative += h.counts[len(h.buckets)]
		fmt.Fprintf(&b, "%s_bucket%sle=\"+Inf\"} %d\n", h.name, prefix, cumulative)
		fmt.Fprintf(&b, "%s_sum%s %g\n", h.name, h.labels, h.sum)
		fmt.Fprintf(&b, "%s_count%s %d\n", h.name, h.labels, h.count)
		h.mu.Unlock()
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteTextfile atomically replaces path with the current metrics.
func (r *Registry) WriteTextfile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".metrics-*.prom")
	if err != nil {
		return fmt.Errorf("create metrics file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := r.WritePrometheus(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
