package clickhouse

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	queryCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chdash",
		Subsystem: "clickhouse",
		Name:      "queries_total",
		Help:      "Number of queries sent to ClickHouse.",
	}, []string{"host", "query", "result"})

	queryDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "chdash",
		Subsystem: "clickhouse",
		Name:      "query_duration_seconds",
		Help:      "Latency of queries sent to ClickHouse.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 14),
	}, []string{"host", "query"})

	hostUp = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "chdash",
		Subsystem: "clickhouse",
		Name:      "host_up",
		Help:      "Whether the last health probe of a ClickHouse host succeeded.",
	}, []string{"host"})
)

func init() {
	prometheus.MustRegister(queryCounter, queryDuration, hostUp)
}

const (
	resultOK        = "ok"
	resultException = "exception"
	resultError     = "error"
)
