package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	nuts "github.com/vaudience/go-nuts"
)

// Outcome labels shared by the counters below
const (
	ResultAccepted      = "accepted"
	ResultDecodeError   = "decode_error"
	ResultUnknownTopic  = "unknown_topic"
	ResultWritten       = "written"
	ResultSkipped       = "skipped"
	ResultFailed        = "failed"
	ResultOK            = "ok"
	ResultNoData        = "no_data"
	ResultAnalysisError = "analysis_failed"
	ResultStoreError    = "store_error"
)

// Service provides monitoring functionality. A nil *Service is valid and records nothing.
type Service struct {
	registry *prometheus.Registry

	messages      *prometheus.CounterVec
	flushes       *prometheus.CounterVec
	flushLatency  prometheus.Histogram
	reports       *prometheus.CounterVec
	reportLatency prometheus.Histogram
	pruned        prometheus.Counter
	liveClients   prometheus.Gauge
	events        *prometheus.CounterVec
}

// NewService creates a monitoring service with its own registry
func NewService() *Service {
	reg := prometheus.NewRegistry()
	s := &Service{
		registry: reg,
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clima_stream_messages_total",
			Help: "Inbound stream messages by outcome.",
		}, []string{"result"}),
		flushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clima_flushes_total",
			Help: "Accumulator flushes by outcome.",
		}, []string{"result"}),
		flushLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "clima_flush_duration_seconds",
			Help:    "Time spent persisting one snapshot.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clima_report_runs_total",
			Help: "Report generation runs by outcome.",
		}, []string{"result"}),
		reportLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "clima_report_duration_seconds",
			Help:    "End-to-end duration of report generation.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		pruned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clima_readings_pruned_total",
			Help: "Readings deleted by retention.",
		}),
		liveClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "clima_live_clients",
			Help: "Currently connected live clients.",
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clima_events_total",
			Help: "Internal lifecycle events.",
		}, []string{"event"}),
	}

	reg.MustRegister(
		s.messages, s.flushes, s.flushLatency, s.reports, s.reportLatency,
		s.pruned, s.liveClients, s.events,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return s
}

// Handler exposes the registry in the prometheus text format
func (s *Service) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}

func (s *Service) Registry() *prometheus.Registry {
	if s == nil {
		return nil
	}
	return s.registry
}

// RecordEvent records a monitored event with labels
func (s *Service) RecordEvent(eventName string, labels map[string]string) {
	nuts.L.Infof("[Monitoring] Event %s recorded at %v with labels: %v", eventName, time.Now(), labels)
	if s == nil {
		return
	}
	s.events.WithLabelValues(eventName).Inc()
}

func (s *Service) MessageReceived(result string) {
	if s == nil {
		return
	}
	s.messages.WithLabelValues(result).Inc()
}

func (s *Service) FlushCompleted(result string, took time.Duration) {
	if s == nil {
		return
	}
	s.flushes.WithLabelValues(result).Inc()
	if result != ResultSkipped {
		s.flushLatency.Observe(took.Seconds())
	}
}

func (s *Service) ReportCompleted(result string, took time.Duration) {
	if s == nil {
		return
	}
	s.reports.WithLabelValues(result).Inc()
	s.reportLatency.Observe(took.Seconds())
}

func (s *Service) ReadingsPruned(n int64) {
	if s == nil || n <= 0 {
		return
	}
	s.pruned.Add(float64(n))
}

func (s *Service) LiveClients(n int) {
	if s == nil {
		return
	}
	s.liveClients.Set(float64(n))
}
