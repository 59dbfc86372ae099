package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	MetricTreasuriesOpen     = "treasuries_open"
	MetricProposalsPolled    = "proposals_polled_total"
	MetricOutboxPublished    = "outbox_published_total"
	MetricBlocksProcessed    = "blocks_processed_total"
	MetricHTTPRequestsFailed = "http_requests_failed_total"
)

var (
	initOnce sync.Once
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
)

// Init registers the process metrics. Safe to call from every entrypoint;
// registration happens once.
func Init() {
	initOnce.Do(register)
}

func register() {
	counters = make(map[string]prometheus.Counter)
	gauges = make(map[string]prometheus.Gauge)

	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "daobank",
		Subsystem: "treasury",
		Name:      MetricTreasuriesOpen,
		Help:      "Number of currently open treasuries",
	})
	prometheus.MustRegister(gauge)
	gauges[MetricTreasuriesOpen] = gauge

	for name, help := range map[string]string{
		MetricProposalsPolled:    "Proposals advanced by the block poller",
		MetricOutboxPublished:    "Outbox rows published to the bus",
		MetricBlocksProcessed:    "Blocks processed by the worker loop",
		MetricHTTPRequestsFailed: "HTTP requests that ended in an error response",
	} {
		counter := prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "daobank",
			Subsystem: "treasury",
			Name:      name,
			Help:      help,
		})
		prometheus.MustRegister(counter)
		counters[name] = counter
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func IncCounter(name string) {
	if counter, ok := counters[name]; ok {
		counter.Inc()
	}
}

func AddCounter(name string, delta float64) {
	if counter, ok := counters[name]; ok {
		counter.Add(delta)
	}
}

func SetGauge(name string, value float64) {
	if gauge, ok := gauges[name]; ok {
		gauge.Set(value)
	}
}
