package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordItem(t *testing.T) {
	before := testutil.ToFloat64(ItemsProcessed.WithLabelValues("movie", "ok"))
	RecordItem("movie", "ok", 3*time.Millisecond)
	RecordItem("movie", "ok", 5*time.Millisecond)
	assert.Equal(t, before+2, testutil.ToFloat64(ItemsProcessed.WithLabelValues("movie", "ok")))
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/healthz", "200"))
	RecordAPIRequest("GET", "/healthz", 200, time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/healthz", "200")))
}

func TestMetricGathering(t *testing.T) {
	RecordItem("cinema", "ok", time.Millisecond)
	problems, err := testutil.GatherAndLint(prometheus.DefaultGatherer)
	require.NoError(t, err)
	assert.Empty(t, problems)
}
