package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// EngineMetrics instruments one running acquisition flow: admission,
// hashing, dedup, and fetch outcomes. A nil *EngineMetrics is safe to call
// every method on.
type EngineMetrics struct {
	filesAdmitted   prometheus.Counter
	filesHashed     prometheus.Counter
	filesSkipped    *prometheus.CounterVec
	filesFetched    prometheus.Counter
	filesFailed     *prometheus.CounterVec
	pendingHashes   prometheus.Gauge
	pendingFiles    prometheus.Gauge
	hashBatchSize   prometheus.Histogram
	blockBatchSize  prometheus.Histogram
	fetchedBytes    prometheus.Counter
	flowDuration    prometheus.Histogram
}

// SkipReason labels why a file never reached the fetch phase.
type SkipReason string

const (
	SkipReasonDeduped  SkipReason = "deduped"
	SkipReasonZeroSize SkipReason = "zero_size"
)

// FailReason labels why a file's fetch did not complete.
type FailReason string

const (
	FailReasonHashMismatch FailReason = "hash_mismatch"
	FailReasonTransferErr  FailReason = "transfer_error"
	FailReasonPublishErr   FailReason = "publish_error"
)

// NewEngineMetrics returns nil when metrics are disabled.
func NewEngineMetrics() *EngineMetrics {
	if !IsEnabled() {
		return nil
	}
	reg := GetRegistry()

	return &EngineMetrics{
		filesAdmitted: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "acquire_engine_files_admitted_total",
			Help: "Total pathspecs admitted into a flow's admission window.",
		}),
		filesHashed: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "acquire_engine_files_hashed_total",
			Help: "Total files for which a composite hash was computed.",
		}),
		filesSkipped: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "acquire_engine_files_skipped_total",
			Help: "Total files that never reached the fetch phase, by reason.",
		}, []string{"reason"}),
		filesFetched: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "acquire_engine_files_fetched_total",
			Help: "Total files whose blocks were all fetched and published.",
		}),
		filesFailed: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "acquire_engine_files_failed_total",
			Help: "Total files that failed before completion, by reason.",
		}, []string{"reason"}),
		pendingHashes: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "acquire_engine_pending_hashes",
			Help: "Files currently awaiting a composite hash round trip.",
		}),
		pendingFiles: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "acquire_engine_pending_files",
			Help: "Files currently in the block-fetch phase.",
		}),
		hashBatchSize: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "acquire_engine_hash_batch_size",
			Help:    "Number of distinct sha256 digests queried per CheckHashes batch.",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 200, 500},
		}),
		blockBatchSize: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "acquire_engine_block_batch_size",
			Help:    "Number of distinct block digests queried per BlobsExist batch.",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 200, 500},
		}),
		fetchedBytes: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "acquire_engine_fetched_bytes_total",
			Help: "Total size of files completed by download, including blocks already present in the blob store.",
		}),
		flowDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "acquire_engine_flow_duration_seconds",
			Help:    "Wall-clock duration from StartMultiGetFile to flow quiescence.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}
}

func (m *EngineMetrics) ObserveFileAdmitted() {
	if m == nil {
		return
	}
	m.filesAdmitted.Inc()
}

func (m *EngineMetrics) ObserveFileHashed() {
	if m == nil {
		return
	}
	m.filesHashed.Inc()
}

func (m *EngineMetrics) ObserveFileSkipped(reason SkipReason) {
	if m == nil {
		return
	}
	m.filesSkipped.WithLabelValues(string(reason)).Inc()
}

func (m *EngineMetrics) ObserveFileFetched(bytes int64) {
	if m == nil {
		return
	}
	m.filesFetched.Inc()
	if bytes > 0 {
		m.fetchedBytes.Add(float64(bytes))
	}
}

func (m *EngineMetrics) ObserveFileFailed(reason FailReason) {
	if m == nil {
		return
	}
	m.filesFailed.WithLabelValues(string(reason)).Inc()
}

func (m *EngineMetrics) SetPending(hashes, files int) {
	if m == nil {
		return
	}
	m.pendingHashes.Set(float64(hashes))
	m.pendingFiles.Set(float64(files))
}

func (m *EngineMetrics) ObserveHashBatch(size int) {
	if m == nil {
		return
	}
	m.hashBatchSize.Observe(float64(size))
}

func (m *EngineMetrics) ObserveBlockBatch(size int) {
	if m == nil {
		return
	}
	m.blockBatchSize.Observe(float64(size))
}

func (m *EngineMetrics) ObserveFlowDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.flowDuration.Observe(d.Seconds())
}
