// Package report builds the daily analysis report from the last window of
// readings and stores it keyed by calendar date.
package report

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/itsatony/w4b_v3/server/clima/internal/clock"
	"github.com/itsatony/w4b_v3/server/clima/internal/config"
	"github.com/itsatony/w4b_v3/server/clima/internal/errors"
	"github.com/itsatony/w4b_v3/server/clima/internal/models"
	"github.com/itsatony/w4b_v3/server/clima/internal/monitoring"
	"github.com/itsatony/w4b_v3/server/clima/internal/retry"
	nuts "github.com/vaudience/go-nuts"
)

// Events emitted by the pipeline. Handlers receive the report date.
const (
	EventGenerated = "report.generated"
	EventFailed    = "report.failed"
)

// ListingTimeLayout stamps every block of the analysis listing.
const ListingTimeLayout = "2006-01-02T15:04:05-07:00"

// ReadingSource is the read side of the reading store.
type ReadingSource interface {
	Query(ctx context.Context, window time.Duration) ([]models.SensorReading, error)
}

// ReportStore is the write side of the report store.
type ReportStore interface {
	Upsert(ctx context.Context, report *models.Report) error
}

// Analyzer turns a listing into a report document.
type Analyzer interface {
	Analyze(ctx context.Context, listing string) (models.Document, error)
}

// Pipeline runs report generation. Runs are serialized: a manual trigger
// waits for a scheduled run in progress and vice versa.
type Pipeline struct {
	mu sync.Mutex

	readings ReadingSource
	reports  ReportStore
	analyzer Analyzer
	clock    clock.Clock
	metrics  *monitoring.Service
	events   *nuts.EventEmitter

	window  time.Duration
	timeout time.Duration
	backoff retry.Backoff
}

func New(cfg config.ReportConfig, readings ReadingSource, reports ReportStore, analyzer Analyzer, clk clock.Clock, metrics *monitoring.Service) *Pipeline {
	return &Pipeline{
		readings: readings,
		reports:  reports,
		analyzer: analyzer,
		clock:    clk,
		metrics:  metrics,
		events:   nuts.NewEventEmitter(),
		window:   cfg.Window,
		timeout:  cfg.Timeout,
		backoff:  retry.Backoff{MaxAttempts: cfg.MaxAttempts},
	}
}

// Generate reads the window, asks for the analysis and upserts the report
// for today's date. Nothing is written on failure.
func (p *Pipeline) Generate(ctx context.Context) (*models.Report, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := time.Now()
	date := clock.Today(p.clock)
	nuts.L.Infof("[ReportPipeline] Generating report for %s", date)

	report, err := p.generate(ctx, date)
	if err != nil {
		nuts.L.Errorf("[ReportPipeline] Report for %s failed: %v", date, err)
		p.metrics.ReportCompleted(resultOf(err), time.Since(start))
		p.emit(EventFailed, date)
		return nil, err
	}

	nuts.L.Infof("[ReportPipeline] Report for %s stored in %v (condition %s)", date, time.Since(start).Round(time.Millisecond), report.Condition)
	p.metrics.ReportCompleted(monitoring.ResultOK, time.Since(start))
	p.emit(EventGenerated, date)
	return report, nil
}

func (p *Pipeline) generate(ctx context.Context, date string) (*models.Report, error) {
	readings, err := p.readings.Query(ctx, p.window)
	if err != nil {
		return nil, err
	}
	if len(readings) == 0 {
		return nil, errors.NewNoDataError(fmt.Sprintf("no readings in the last %v", p.window))
	}

	listing := FormatReadings(readings, p.clock.Location())
	nuts.L.Infof("[ReportPipeline] Submitting %d readings for analysis", len(readings))

	var doc models.Document
	var condition models.Condition
	err = p.backoff.Do(ctx, "analysis", func(ctx context.Context) (bool, error) {
		d, err := p.analyzer.Analyze(ctx, listing)
		if err != nil {
			return errors.IsAnalysisFailed(err), err
		}
		doc, condition = d, ConditionOf(d)
		return false, nil
	})
	if err != nil {
		if !errors.IsAnalysisFailed(err) {
			err = errors.NewAnalysisError("analysis did not complete", err)
		}
		return nil, err
	}

	doc["fecha"] = date
	report := &models.Report{Date: date, Condition: condition, Payload: doc}

	err = p.backoff.Do(ctx, "report upsert", func(ctx context.Context) (bool, error) {
		err := p.reports.Upsert(ctx, report)
		return errors.IsStoreUnavailable(err), err
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// ConditionOf reads and normalizes the overall condition of a document. A
// qualified value such as "Óptimo con alertas" maps by its first word. Missing
// or unrecognized values fall back to Variable; the document keeps the raw value.
func ConditionOf(doc models.Document) models.Condition {
	raw, _ := doc["condicion_general"].(string)
	if c, err := models.ParseCondition(raw); err == nil {
		return c
	}
	if fields := strings.Fields(raw); len(fields) > 1 {
		if c, err := models.ParseCondition(fields[0]); err == nil {
			return c
		}
	}
	nuts.L.Warnf("[ReportPipeline] Unrecognized condicion_general %q, storing as %s", raw, models.ConditionVariable)
	return models.ConditionVariable
}

// FormatReadings renders readings as one block per timestamp, listing only
// the sensors that reported, e.g.
//
//	2026-10-19T14:00:10-05:00:
//	  Temperatura: 21.5 °C
func FormatReadings(readings []models.SensorReading, loc *time.Location) string {
	sensors := models.SensorDescriptors()
	blocks := make([]string, 0, len(readings))
	for i := range readings {
		r := &readings[i]
		var b strings.Builder
		b.WriteString(r.Timestamp.In(loc).Format(ListingTimeLayout))
		b.WriteString(":\n")
		for _, d := range sensors {
			v := r.Value(d.Column)
			if v == nil {
				continue
			}
			fmt.Fprintf(&b, "  %s: %s %s\n", d.Label, formatValue(*v), d.Unit)
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n")
}

// formatValue prints the shortest exact decimal, keeping one fractional
// digit on whole numbers (60.0, 850.25).
func formatValue(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// OnReport registers a handler for EventGenerated or EventFailed. Handlers
// run synchronously at the end of Generate.
func (p *Pipeline) OnReport(event string, handler func(date string)) {
	if _, err := p.events.On(event, "", handler); err != nil {
		nuts.L.Errorf("[ReportPipeline] Failed to register %s handler: %v", event, err)
	}
}

func (p *Pipeline) emit(event, date string) {
	if err := p.events.Emit(event, date); err != nil {
		nuts.L.Errorf("[ReportPipeline] Failed to emit %s: %v", event, err)
	}
}

func resultOf(err error) string {
	switch {
	case errors.IsNoData(err):
		return monitoring.ResultNoData
	case errors.IsAnalysisFailed(err):
		return monitoring.ResultAnalysisError
	default:
		return monitoring.ResultStoreError
	}
}
