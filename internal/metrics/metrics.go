// Package metrics counts store operations in a private prometheus registry
// and renders it in the text exposition format.
package metrics

import (
	"context"
	"errors"
	"io"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/alexanderramin/delegate/internal/store"
)

const namespace = "delegate"

// Outcome labels.
const (
	OutcomeOK                = "ok"
	OutcomeNotFound          = "not_found"
	OutcomeInvalid           = "invalid"
	OutcomeInvalidTransition = "invalid_transition"
	OutcomeLocked            = "locked"
	OutcomeSessionActive     = "session_active"
	OutcomeCycle             = "cycle"
	OutcomePersist           = "persist_failed"
	OutcomeError             = "error"
)

// Outcome classifies a store error into a metric label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, store.ErrPersist):
		return OutcomePersist
	case errors.Is(err, store.ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, store.ErrInvalidTransition):
		return OutcomeInvalidTransition
	case errors.Is(err, store.ErrLocked):
		return OutcomeLocked
	case errors.Is(err, store.ErrSessionActive):
		return OutcomeSessionActive
	case errors.Is(err, store.ErrCycle):
		return OutcomeCycle
	case errors.Is(err, store.ErrInvalid):
		return OutcomeInvalid
	}
	return OutcomeError
}

// Observer is a store.UseCaseObserver backed by prometheus collectors.
type Observer struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

var _ store.UseCaseObserver = (*Observer)(nil)

// NewObserver registers the operation counters on a fresh registry.
func NewObserver() *Observer {
	o := &Observer{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Store operations by use case and outcome.",
		}, []string{"use_case", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Store operation latency including persistence.",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
		}, []string{"use_case"}),
	}
	o.registry.MustRegister(o.operations, o.duration)
	return o
}

func (o *Observer) ObserveUseCase(_ context.Context, event store.UseCaseEvent) {
	o.operations.WithLabelValues(event.Name, Outcome(event.Err)).Inc()
	o.duration.WithLabelValues(event.Name).Observe(event.Duration.Seconds())
}

// TrackCollections exports one gauge sample per collection, read from
// counts at scrape time.
func (o *Observer) TrackCollections(counts func() map[string]int) error {
	return o.registry.Register(&collectionCollector{counts: counts})
}

// Gatherer exposes the registry for callers that render it themselves.
func (o *Observer) Gatherer() prometheus.Gatherer { return o.registry }

// WriteText renders every metric family in the text exposition format.
func (o *Observer) WriteText(w io.Writer) error {
	families, err := o.registry.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

// WriteTextfile writes the registry to path for a node_exporter textfile
// collector. The file is replaced atomically.
func (o *Observer) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, o.registry)
}

var collectionDesc = prometheus.NewDesc(
	prometheus.BuildFQName(namespace, "state", "records"),
	"Records held per collection.",
	[]string{"collection"}, nil,
)

type collectionCollector struct {
	counts func() map[string]int
}

func (c *collectionCollector) Describe(ch chan<- *prometheus.Desc) { ch <- collectionDesc }

func (c *collectionCollector) Collect(ch chan<- prometheus.Metric) {
	counts := c.counts()
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		ch <- prometheus.MustNewConstMetric(collectionDesc, prometheus.GaugeValue, float64(counts[name]), name)
	}
}
