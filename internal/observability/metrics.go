package observability

import (
	"errors"
	"slices"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MutationsTotal counts store mutations by operation and outcome.
	MutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rupl_mutations_total",
		Help: "Total number of social graph mutations by operation and outcome",
	}, []string{"operation", "outcome"})

	// FanoutPostsTotal counts post records rewritten by profile updates.
	FanoutPostsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rupl_profile_fanout_posts_total",
		Help: "Total number of posts whose author snapshot was refreshed",
	})

	// StorageErrorRate counts persistence backend errors by backend and operation.
	StorageErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rupl_storage_error_rate_total",
		Help: "Total number of storage backend errors by backend and operation",
	}, []string{"backend", "operation"})

	// StorageLatency records storage backend latency by backend and operation.
	StorageLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rupl_storage_latency_seconds",
		Help:    "Storage backend latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend", "operation"})

	// CheckpointsTotal counts snapshot checkpoints by outcome.
	CheckpointsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rupl_checkpoints_total",
		Help: "Total number of state checkpoints by outcome",
	}, []string{"outcome"})

	// CaptionRequestsTotal counts caption suggestions by outcome.
	CaptionRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rupl_caption_requests_total",
		Help: "Total number of caption suggestion requests by outcome",
	}, []string{"outcome"})

	// ImagesEncodedTotal counts captured images by outcome.
	ImagesEncodedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rupl_images_encoded_total",
		Help: "Total number of captured images by outcome",
	}, []string{"outcome"})
)

// ObserveMutation records the outcome of a mutation.
func ObserveMutation(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	MutationsTotal.WithLabelValues(operation, outcome).Inc()
}

// StorageMetrics records latency and errors for one storage backend.
type StorageMetrics struct {
	backend string
}

// NewStorageMetrics returns a new StorageMetrics instance.
func NewStorageMetrics(backend string) *StorageMetrics {
	return &StorageMetrics{backend: backend}
}

// TrackOperation returns a function that records latency and, when *errp
// holds an error not matching any of expected, an error when called (e.g. defer).
func (m *StorageMetrics) TrackOperation(operation string, errp *error, expected ...error) func() {
	start := time.Now()
	return func() {
		StorageLatency.WithLabelValues(m.backend, operation).Observe(time.Since(start).Seconds())
		if errp == nil || *errp == nil {
			return
		}
		err := *errp
		if slices.ContainsFunc(expected, func(e error) bool { return errors.Is(err, e) }) {
			return
		}
		StorageErrorRate.WithLabelValues(m.backend, operation).Inc()
	}
}
