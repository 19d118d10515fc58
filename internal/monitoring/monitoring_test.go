package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceCounters(t *testing.T) {
	s := NewService()

	s.MessageReceived(ResultAccepted)
	s.MessageReceived(ResultAccepted)
	s.MessageReceived(ResultDecodeError)
	assert.Equal(t, 2.0, testutil.ToFloat64(s.messages.WithLabelValues(ResultAccepted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.messages.WithLabelValues(ResultDecodeError)))

	s.FlushCompleted(ResultWritten, 3*time.Millisecond)
	s.FlushCompleted(ResultSkipped, 0)
	assert.Equal(t, 1.0, testutil.ToFloat64(s.flushes.WithLabelValues(ResultWritten)))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.flushes.WithLabelValues(ResultSkipped)))
	assert.Equal(t, 1, testutil.CollectAndCount(s.flushLatency))

	s.ReadingsPruned(12)
	s.ReadingsPruned(0)
	assert.Equal(t, 12.0, testutil.ToFloat64(s.pruned))

	s.LiveClients(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(s.liveClients))

	s.RecordEvent("readings_pruned", map[string]string{"count": "12"})
	assert.Equal(t, 1.0, testutil.ToFloat64(s.events.WithLabelValues("readings_pruned")))
}

func TestNilServiceIsNoop(t *testing.T) {
	var s *Service
	assert.NotPanics(t, func() {
		s.MessageReceived(ResultAccepted)
		s.FlushCompleted(ResultWritten, time.Second)
		s.ReportCompleted(ResultOK, time.Second)
		s.ReadingsPruned(1)
		s.LiveClients(1)
		s.RecordEvent("x", nil)
	})
}

func TestHandlerExposesMetrics(t *testing.T) {
	s := NewService()
	s.ReportCompleted(ResultNoData, time.Second)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `clima_report_runs_total{result="no_data"} 1`)
}
