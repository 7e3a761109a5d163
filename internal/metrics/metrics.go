// Package metrics exposes Prometheus instrumentation for scans, matching,
// transfers and catalog traffic.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "reelname"

// Metrics holds the counters fed from bus events and the catalog transport.
type Metrics struct {
	GroupsScanned    prometheus.Counter
	JobsScanned      prometheus.Counter
	MatchOutcomes    *prometheus.CounterVec
	TransferBytes    prometheus.Counter
	TransferOutcomes *prometheus.CounterVec
	TransfersActive  prometheus.Gauge
	CatalogRequests  *prometheus.CounterVec
}

// New creates and registers the metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		GroupsScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "groups_added_total",
			Help:      "Groups inserted by scans.",
		}),
		JobsScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "jobs_added_total",
			Help:      "Files inserted by scans.",
		}),
		MatchOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "match",
			Name:      "groups_total",
			Help:      "Groups processed by the matcher, by outcome.",
		}, []string{"outcome"}),
		TransferBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transfer",
			Name:      "bytes_total",
			Help:      "Bytes written to destinations.",
		}),
		TransferOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transfer",
			Name:      "jobs_total",
			Help:      "Finished transfers, by status.",
		}, []string{"status"}),
		TransfersActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "transfer",
			Name:      "active",
			Help:      "Jobs currently copying.",
		}),
		CatalogRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "requests_total",
			Help:      "Catalog API requests, by response code.",
		}, []string{"code"}),
	}

	reg.MustRegister(
		m.GroupsScanned,
		m.JobsScanned,
		m.MatchOutcomes,
		m.TransferBytes,
		m.TransferOutcomes,
		m.TransfersActive,
		m.CatalogRequests,
	)
	return m
}

// InstrumentTransport counts catalog requests made through rt.
func (m *Metrics) InstrumentTransport(rt http.RoundTripper) http.RoundTripper {
	if rt == nil {
		rt = http.DefaultTransport
	}
	return promhttp.InstrumentRoundTripperCounter(m.CatalogRequests, rt)
}
