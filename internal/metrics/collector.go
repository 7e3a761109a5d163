package metrics

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sentient-soup/reelname/internal/events"
	"github.com/sentient-soup/reelname/internal/library"
)

// LibraryCollector reports group and job counts per status, read from the
// store on each scrape.
type LibraryCollector struct {
	store *library.Store
	log   *slog.Logger

	groups *prometheus.Desc
	jobs   *prometheus.Desc
}

// NewLibraryCollector creates a collector over store.
func NewLibraryCollector(store *library.Store, log *slog.Logger) *LibraryCollector {
	if log == nil {
		log = slog.Default()
	}
	return &LibraryCollector{
		store: store,
		log:   log.With("component", "metrics"),
		groups: prometheus.NewDesc(
			namespace+"_library_groups",
			"Groups in the library by status.",
			[]string{"status"}, nil,
		),
		jobs: prometheus.NewDesc(
			namespace+"_library_jobs",
			"Jobs in the library by status.",
			[]string{"status"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *LibraryCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.groups
	ch <- c.jobs
}

// Collect implements prometheus.Collector.
func (c *LibraryCollector) Collect(ch chan<- prometheus.Metric) {
	for _, st := range library.Statuses() {
		_, n, err := c.store.ListGroups(library.GroupFilter{Statuses: []library.Status{st}, Limit: 1})
		if err != nil {
			c.log.Warn("count groups", "status", st, "error", err)
			continue
		}
		ch <- prometheus.MustNewConstMetric(c.groups, prometheus.GaugeValue, float64(n), string(st))
	}
	for _, st := range library.Statuses() {
		_, n, err := c.store.ListJobs(library.JobFilter{Statuses: []library.Status{st}, Limit: 1})
		if err != nil {
			c.log.Warn("count jobs", "status", st, "error", err)
			continue
		}
		ch <- prometheus.MustNewConstMetric(c.jobs, prometheus.GaugeValue, float64(n), string(st))
	}
}

// NewDroppedEventsCounter reports bus deliveries skipped because a
// subscriber was full.
func NewDroppedEventsCounter(bus *events.Bus) prometheus.CounterFunc {
	return prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_dropped_total",
		Help:      "Event deliveries dropped because a subscriber was full.",
	}, func() float64 { return float64(bus.Dropped()) })
}
