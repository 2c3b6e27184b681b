package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BlobStoreMetrics instruments a blobstore.Store backend (diskfs or s3fs).
// A nil *BlobStoreMetrics is safe to call every method on.
type BlobStoreMetrics struct {
	putOperations   *prometheus.CounterVec
	putDuration     *prometheus.HistogramVec
	putBytes        *prometheus.HistogramVec
	getOperations   *prometheus.CounterVec
	getDuration     *prometheus.HistogramVec
	existsBatchSize prometheus.Histogram
	existsHitRatio  prometheus.Gauge
}

// NewBlobStoreMetrics returns nil when metrics are disabled. Every series
// carries a "backend" label so diskfs and s3fs share one registration.
func NewBlobStoreMetrics() *BlobStoreMetrics {
	if !IsEnabled() {
		return nil
	}
	reg := GetRegistry()

	m := &BlobStoreMetrics{
		putOperations: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "acquire_blobstore_put_operations_total",
			Help: "Total Put calls by backend and outcome.",
		}, []string{"backend", "status"}),
		putDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "acquire_blobstore_put_duration_seconds",
			Help:    "Duration of Put calls.",
			Buckets: prometheus.DefBuckets,
		}, []string{"backend"}),
		putBytes: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name: "acquire_blobstore_put_bytes",
			Help: "Size of blobs written.",
			Buckets: []float64{
				4096, 32768, 131072, 524288, 1048576, 4194304,
			},
		}, []string{"backend"}),
		getOperations: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "acquire_blobstore_get_operations_total",
			Help: "Total Get calls by backend and outcome.",
		}, []string{"backend", "status"}),
		getDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "acquire_blobstore_get_duration_seconds",
			Help:    "Duration of Get calls.",
			Buckets: prometheus.DefBuckets,
		}, []string{"backend"}),
		existsBatchSize: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "acquire_blobstore_exists_batch_size",
			Help:    "Number of digests passed per BlobsExist call.",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 200, 500},
		}),
		existsHitRatio: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "acquire_blobstore_exists_hit_ratio",
			Help: "Fraction of the most recent BlobsExist batch already present.",
		}),
	}
	return m
}

func (m *BlobStoreMetrics) ObservePut(backend string, bytes int64, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.putOperations.WithLabelValues(backend, status).Inc()
	m.putDuration.WithLabelValues(backend).Observe(d.Seconds())
	if err == nil && bytes > 0 {
		m.putBytes.WithLabelValues(backend).Observe(float64(bytes))
	}
}

func (m *BlobStoreMetrics) ObserveGet(backend string, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.getOperations.WithLabelValues(backend, status).Inc()
	m.getDuration.WithLabelValues(backend).Observe(d.Seconds())
}

func (m *BlobStoreMetrics) ObserveExistsBatch(total, present int) {
	if m == nil {
		return
	}
	m.existsBatchSize.Observe(float64(total))
	if total > 0 {
		m.existsHitRatio.Set(float64(present) / float64(total))
	}
}
