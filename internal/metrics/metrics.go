package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	LookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "sacredview_lookups_total", Help: "Database lookups by endpoint and outcome"},
		[]string{"endpoint", "outcome"},
	)
	LookupDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "sacredview_lookup_duration_seconds", Help: "Connect plus query latency", Buckets: prometheus.DefBuckets},
		[]string{"endpoint"},
	)

	once sync.Once
)

// Init registers the collectors with the default registry. Safe to call more than once.
func Init() {
	once.Do(func() {
		prometheus.MustRegister(LookupsTotal)
		prometheus.MustRegister(LookupDuration)
	})
}
