package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HashIndexMetrics instruments a hashindex.Index backend (memory or badger).
// A nil *HashIndexMetrics is safe to call every method on.
type HashIndexMetrics struct {
	checkHashesBatch prometheus.Histogram
	checkHashesHits  prometheus.Counter
	checkHashesMiss  prometheus.Counter
	checkDuration    prometheus.Histogram
	addDuration      prometheus.Histogram
	addErrors        prometheus.Counter
}

// NewHashIndexMetrics returns nil when metrics are disabled.
func NewHashIndexMetrics() *HashIndexMetrics {
	if !IsEnabled() {
		return nil
	}
	reg := GetRegistry()

	return &HashIndexMetrics{
		checkHashesBatch: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "acquire_hashindex_check_batch_size",
			Help:    "Number of composite hashes passed per CheckHashes call.",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 200, 500},
		}),
		checkHashesHits: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "acquire_hashindex_check_hits_total",
			Help: "Total known-URN hashes returned by CheckHashes, across all calls.",
		}),
		checkHashesMiss: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "acquire_hashindex_check_misses_total",
			Help: "Total unknown hashes returned by CheckHashes, across all calls.",
		}),
		checkDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "acquire_hashindex_check_duration_seconds",
			Help:    "Duration of CheckHashes calls.",
			Buckets: prometheus.DefBuckets,
		}),
		addDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "acquire_hashindex_add_duration_seconds",
			Help:    "Duration of AddURNToIndex calls.",
			Buckets: prometheus.DefBuckets,
		}),
		addErrors: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "acquire_hashindex_add_errors_total",
			Help: "Total AddURNToIndex calls that returned an error.",
		}),
	}
}

func (m *HashIndexMetrics) ObserveCheckHashes(total, hits int, d time.Duration) {
	if m == nil {
		return
	}
	m.checkHashesBatch.Observe(float64(total))
	m.checkHashesHits.Add(float64(hits))
	m.checkHashesMiss.Add(float64(total - hits))
	m.checkDuration.Observe(d.Seconds())
}

func (m *HashIndexMetrics) ObserveAdd(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.addDuration.Observe(d.Seconds())
	if err != nil {
		m.addErrors.Inc()
	}
}
