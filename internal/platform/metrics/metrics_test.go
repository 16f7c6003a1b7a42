package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.CollectionSize(7)
	r.QuotesAdded("import", 3)
	r.QuotesAdded("add", 1)
	r.QuotesAdded("add", 0)
	r.StorageFailed("save")
	r.SyncCompleted("success", 120*time.Millisecond)
	r.PushCompleted("failure")

	assert.InDelta(t, 7, testutil.ToFloat64(r.collectionSize), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(r.quotesAdded.WithLabelValues("import")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.quotesAdded.WithLabelValues("add")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.storageErrors.WithLabelValues("save")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.pushes.WithLabelValues("failure")), 0)

	expected := `
# HELP quotebook_sync_duration_seconds Duration of remote fetch cycles, by outcome.
# TYPE quotebook_sync_duration_seconds histogram
quotebook_sync_duration_seconds_bucket{outcome="success",le="0.005"} 0
quotebook_sync_duration_seconds_bucket{outcome="success",le="0.01"} 0
quotebook_sync_duration_seconds_bucket{outcome="success",le="0.025"} 0
quotebook_sync_duration_seconds_bucket{outcome="success",le="0.05"} 0
quotebook_sync_duration_seconds_bucket{outcome="success",le="0.1"} 0
quotebook_sync_duration_seconds_bucket{outcome="success",le="0.25"} 1
quotebook_sync_duration_seconds_bucket{outcome="success",le="0.5"} 1
quotebook_sync_duration_seconds_bucket{outcome="success",le="1"} 1
quotebook_sync_duration_seconds_bucket{outcome="success",le="2.5"} 1
quotebook_sync_duration_seconds_bucket{outcome="success",le="5"} 1
quotebook_sync_duration_seconds_bucket{outcome="success",le="10"} 1
quotebook_sync_duration_seconds_bucket{outcome="success",le="+Inf"} 1
quotebook_sync_duration_seconds_sum{outcome="success"} 0.12
quotebook_sync_duration_seconds_count{outcome="success"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "quotebook_sync_duration_seconds"))
}

func TestNew_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)

	assert.Panics(t, func() { New(reg) })
}
