package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorderCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewWithRegistry(reg)

	r.RecordFetch("markets", "ok")
	r.RecordFetch("markets", "ok")
	r.RecordFetch("prices", "error")
	r.RecordStale("markets")
	r.RecordApplied("markets", 4)
	r.RecordLastPrice("BTC", 43250.5)
	r.SetStreamClients(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.fetches.WithLabelValues("markets", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.fetches.WithLabelValues("prices", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.staleResults.WithLabelValues("markets")))
	assert.Equal(t, 4.0, testutil.ToFloat64(r.snapshotSeq.WithLabelValues("markets")))
	assert.Equal(t, 43250.5, testutil.ToFloat64(r.lastPrice.WithLabelValues("BTC")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.streamClients))
}
