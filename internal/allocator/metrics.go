package allocator

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "mintdraw"

// Metrics tracks draw activity in its own registry so it can be dumped to a
// node-exporter textfile at the end of a CLI run.
type Metrics struct {
	registry  *prometheus.Registry
	draws     prometheus.Counter
	exhausted prometheus.Counter
	remaining *prometheus.GaugeVec
}

// NewMetrics creates and registers the allocator metrics.
func NewMetrics() (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		draws: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "draws_total",
			Help:      "Number of identifiers drawn",
		}),
		exhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exhausted_total",
			Help:      "Number of draws rejected because no identifiers were left",
		}),
		remaining: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "remaining",
			Help:      "Identifiers left to draw",
		}, []string{"allocator"}),
	}
	for _, c := range []prometheus.Collector{m.draws, m.exhausted, m.remaining} {
		if err := m.registry.Register(c); err != nil {
			return nil, fmt.Errorf("registering metric: %w", err)
		}
	}
	return m, nil
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes every metric to path in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}

func (m *Metrics) observeDraw(key string, remaining uint64) {
	if m == nil {
		return
	}
	m.draws.Inc()
	m.remaining.WithLabelValues(key).Set(float64(remaining))
}

func (m *Metrics) observeExhausted(key string) {
	if m == nil {
		return
	}
	m.exhausted.Inc()
	m.remaining.WithLabelValues(key).Set(0)
}

func (m *Metrics) observeRemaining(key string, remaining uint64) {
	if m == nil {
		return
	}
	m.remaining.WithLabelValues(key).Set(float64(remaining))
}
