package board

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Board operations tracked by the metrics
const (
	operationList   = "list"
	operationCreate = "create"
	operationUpdate = "update"
	operationDelete = "delete"
)

// Operation outcomes tracked by the metrics
const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
	outcomeSkipped = "skipped"
)

// Metrics request board operation metrics. One instance is shared by every board of a process.
type Metrics struct {
	operations *prometheus.CounterVec
	latency    *prometheus.HistogramVec
}

/*
NewMetrics define request board metrics

	@param registerer prometheus.Registerer - registry to install the metrics in. Optional.
	@returns new metrics collection
*/
func NewMetrics(registerer prometheus.Registerer) (*Metrics, error) {
	instance := &Metrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "requestboard_operations_total",
				Help: "Request board operations by outcome.",
			},
			[]string{"operation", "outcome"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "requestboard_record_store_call_duration_seconds",
				Help:    "Duration of Record Store calls issued by request boards.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}

	if registerer != nil {
		for _, collector := range []prometheus.Collector{instance.operations, instance.latency} {
			if err := registerer.Register(collector); err != nil {
				return nil, fmt.Errorf("failed to register request board metrics [%w]", err)
			}
		}
	}

	return instance, nil
}

// observeCall record the outcome of one Record Store call
func (m *Metrics) observeCall(operation string, startTime time.Time, err error) {
	if m == nil {
		return
	}
	m.latency.WithLabelValues(operation).Observe(time.Since(startTime).Seconds())
	if err != nil {
		m.operations.WithLabelValues(operation, outcomeFailure).Inc()
	} else {
		m.operations.WithLabelValues(operation, outcomeSuccess).Inc()
	}
}

// observeSkipped record an operation dropped before reaching the Record Store
func (m *Metrics) observeSkipped(operation string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, outcomeSkipped).Inc()
}
