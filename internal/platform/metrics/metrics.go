// Package metrics exports store and sync activity as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jsamuelsen/quotebook/internal/ports"
)

const namespace = "quotebook"

// Recorder implements ports.Metrics on a Prometheus registerer.
type Recorder struct {
	collectionSize prometheus.Gauge
	quotesAdded    *prometheus.CounterVec
	storageErrors  *prometheus.CounterVec
	syncDuration   *prometheus.HistogramVec
	pushes         *prometheus.CounterVec
}

var _ ports.Metrics = (*Recorder)(nil)

// New registers the quotebook collectors on reg. A nil reg uses the default registerer.
// Registering twice on the same registry panics.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)

	return &Recorder{
		collectionSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "quotes",
			Help:      "Number of quotes in the collection.",
		}),
		quotesAdded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_added_total",
			Help:      "Quotes appended to the collection, by source.",
		}, []string{"source"}),
		storageErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_errors_total",
			Help:      "Failed storage operations, by operation.",
		}, []string{"op"}),
		syncDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_duration_seconds",
			Help:      "Duration of remote fetch cycles, by outcome.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		pushes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pushes_total",
			Help:      "Quotes pushed to the remote, by outcome.",
		}, []string{"outcome"}),
	}
}

func (r *Recorder) CollectionSize(n int) {
	r.collectionSize.Set(float64(n))
}

func (r *Recorder) QuotesAdded(source string, n int) {
	if n <= 0 {
		return
	}

	r.quotesAdded.WithLabelValues(source).Add(float64(n))
}

func (r *Recorder) StorageFailed(op string) {
	r.storageErrors.WithLabelValues(op).Inc()
}

func (r *Recorder) SyncCompleted(outcome string, elapsed time.Duration) {
	r.syncDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

func (r *Recorder) PushCompleted(outcome string) {
	r.pushes.WithLabelValues(outcome).Inc()
}
