package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "comfyprompt",
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests served",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "comfyprompt",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})

	ScansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "comfyprompt",
		Name:      "scans_total",
		Help:      "Total number of dataset scans",
	}, []string{"trigger"})

	RecordsAdded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "comfyprompt",
		Name:      "records_added_total",
		Help:      "Total number of records appended to the collection",
	})

	Records = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "comfyprompt",
		Name:      "records",
		Help:      "Current number of records in the collection",
	})

	MemoHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "comfyprompt",
		Name:      "memo_cache_hits_total",
		Help:      "Memo cache hits, by kind",
	}, []string{"kind"})

	MemoMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "comfyprompt",
		Name:      "memo_cache_misses_total",
		Help:      "Memo cache misses, by kind",
	}, []string{"kind"})
)
