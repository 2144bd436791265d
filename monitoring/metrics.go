// Package monitoring keeps in-process counters and gauges and renders them in
// the Prometheus text format.
package monitoring

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// MetricType is the Prometheus type a series is exported as.
type MetricType string

const (
	MetricTypeCounter MetricType = "counter"
	MetricTypeGauge   MetricType = "gauge"
)

// Metric is one labelled series.
type Metric struct {
	Name   string            `json:"name"`
	Type   MetricType        `json:"type"`
	Value  float64           `json:"value"`
	Labels map[string]string `json:"labels,omitempty"`
}

type family struct {
	metricType MetricType
	help       string
	series     map[string]*Metric
}

// MetricsCollector is safe for concurrent use. A name keeps the type it was
// first recorded with; mismatched updates are dropped.
type MetricsCollector struct {
	mu        sync.RWMutex
	families  map[string]*family
	startTime time.Time
}

func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		families:  make(map[string]*family),
		startTime: time.Now(),
	}
}

// Describe sets the HELP line of a metric.
func (mc *MetricsCollector) Describe(name, help string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	if f, ok := mc.families[name]; ok {
		f.help = help
		return
	}
	mc.families[name] = &family{help: help, series: make(map[string]*Metric)}
}

// IncrCounter adds value to a counter. Negative values are ignored.
func (mc *MetricsCollector) IncrCounter(name string, value float64, labels map[string]string) {
	if value < 0 {
		return
	}
	mc.record(name, MetricTypeCounter, labels, func(m *Metric) { m.Value += value })
}

// SetGauge replaces the value of a gauge.
func (mc *MetricsCollector) SetGauge(name string, value float64, labels map[string]string) {
	mc.record(name, MetricTypeGauge, labels, func(m *Metric) { m.Value = value })
}

func (mc *MetricsCollector) record(name string, metricType MetricType, labels map[string]string, update func(*Metric)) {
	key := labelString(labels)

	mc.mu.Lock()
	defer mc.mu.Unlock()

	f, ok := mc.families[name]
	if !ok {
		f = &family{series: make(map[string]*Metric)}
		mc.families[name] = f
	}
	if f.metricType == "" {
		f.metricType = metricType
	}
	if f.metricType != metricType {
		return
	}

	m, ok := f.series[key]
	if !ok {
		copied := make(map[string]string, len(labels))
		for k, v := range labels {
			copied[k] = v
		}
		m = &Metric{Name: name, Type: metricType, Labels: copied}
		f.series[key] = m
	}
	update(m)
}

// Value returns the current value of a series and whether it exists.
func (mc *MetricsCollector) Value(name string, labels map[string]string) (float64, bool) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	f, ok := mc.families[name]
	if !ok {
		return 0, false
	}
	m, ok := f.series[labelString(labels)]
	if !ok {
		return 0, false
	}
	return m.Value, true
}

// ExportPrometheus renders every series, sorted by name and labels.
func (mc *MetricsCollector) ExportPrometheus() string {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	names := make([]string, 0, len(mc.families))
	for name, f := range mc.families {
		if len(f.series) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		f := mc.families[name]
		help := f.help
		if help == "" {
			help = fmt.Sprintf("Metric %s", name)
		}
		fmt.Fprintf(&b, "# HELP %s %s\n", name, help)
		fmt.Fprintf(&b, "# TYPE %s %s\n", name, f.metricType)

		keys := make([]string, 0, len(f.series))
		for key := range f.series {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Fprintf(&b, "%s%s %g\n", name, key, f.series[key].Value)
		}
	}
	fmt.Fprintf(&b, "# HELP process_uptime_seconds Seconds since the collector started\n")
	fmt.Fprintf(&b, "# TYPE process_uptime_seconds gauge\n")
	fmt.Fprintf(&b, "process_uptime_seconds %g\n", mc.GetUptime().Seconds())
	return b.String()
}

func (mc *MetricsCollector) GetUptime() time.Duration {
	return time.Since(mc.startTime)
}

// labelString renders labels as {k="v",...} with sorted keys, or "" when empty.
func labelString(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		v := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`).Replace(labels[k])
		parts[i] = fmt.Sprintf(`%s="%s"`, k, v)
	}
	return "{" + strings.Join(parts, ",") + "}"
}
