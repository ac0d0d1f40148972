package codec

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "serialcompat"

// Error kinds used as the "kind" label of the errors counter.
const (
	errKindInstance    = "instance"
	errKindMalformed   = "malformed"
	errKindFieldAccess = "field_access"
	errKindHook        = "hook"
)

type metrics struct {
	snapshots prometheus.Counter
	restores  *prometheus.CounterVec
	strayKeys prometheus.Counter
	errors    *prometheus.CounterVec
}

func newMetrics() *metrics {
	return &metrics{
		snapshots: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "snapshots_total",
			Help:      "Number of instances snapshotted into current payloads.",
		}),
		restores: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "restores_total",
			Help:      "Number of completed restores by payload generation.",
		}, []string{"generation"}),
		strayKeys: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "stray_keys_total",
			Help:      "Number of payload keys ignored because no field matched them.",
		}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "errors_total",
			Help:      "Number of failed codec calls by error kind.",
		}, []string{"kind"}),
	}
}

func (m *metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.snapshots, m.restores, m.strayKeys, m.errors}
}
