// Package scheduler runs the daily report and retention jobs on the station clock.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/itsatony/w4b_v3/server/clima/internal/clock"
	"github.com/itsatony/w4b_v3/server/clima/internal/config"
	"github.com/itsatony/w4b_v3/server/clima/internal/models"
	"github.com/robfig/cron/v3"
	nuts "github.com/vaudience/go-nuts"
)

const (
	JobReport = "report"
	JobPrune  = "prune"
)

// Generator produces the daily report.
type Generator interface {
	Generate(ctx context.Context) (*models.Report, error)
}

// Pruner applies the retention policy.
type Pruner interface {
	Prune(ctx context.Context) (int64, error)
}

// Scheduler owns a cron instance bound to the station zone. Each job skips a
// trigger that arrives while its previous run is still executing, and jobs
// whose times coincide run one after the other.
type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc

	// held for the duration of any job
	mu sync.Mutex

	reportAt string
	pruneAt  string
	entries  map[string]cron.EntryID
}

func New(cfg config.ScheduleConfig, clk clock.Clock, generator Generator, pruner Pruner) (*Scheduler, error) {
	logger := cronLogger{}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(clk.Location()),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger)),
		),
		reportAt: cfg.ReportAt,
		pruneAt:  cfg.PruneAt,
		entries:  make(map[string]cron.EntryID),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	if err := s.add(JobReport, cfg.ReportAt, func(ctx context.Context) {
		if _, err := generator.Generate(ctx); err != nil {
			nuts.L.Warnf("[Scheduler] Scheduled report failed: %v", err)
		}
	}); err != nil {
		return nil, err
	}
	if err := s.add(JobPrune, cfg.PruneAt, func(ctx context.Context) {
		if _, err := pruner.Prune(ctx); err != nil {
			nuts.L.Warnf("[Scheduler] Scheduled prune failed: %v", err)
		}
	}); err != nil {
		return nil, err
	}
	return s, nil
}

// DailySpec turns "HH:MM" into a five-field cron expression.
func DailySpec(at string) (string, error) {
	hour, minute, err := config.ParseClock(at)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}

func (s *Scheduler) add(name, at string, run func(ctx context.Context)) error {
	spec, err := DailySpec(at)
	if err != nil {
		return fmt.Errorf("job %s: %w", name, err)
	}
	id, err := s.cron.AddJob(spec, s.job(name, run))
	if err != nil {
		return fmt.Errorf("job %s: %w", name, err)
	}
	s.entries[name] = id
	return nil
}

func (s *Scheduler) job(name string, run func(ctx context.Context)) cron.Job {
	logger := cronLogger{}
	return cron.NewChain(cron.SkipIfStillRunning(logger)).Then(cron.FuncJob(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.ctx.Err() != nil {
			return
		}
		nuts.L.Infof("[Scheduler] Running %s job", name)
		run(s.ctx)
	}))
}

func (s *Scheduler) Start() {
	s.cron.Start()
	for name, id := range s.entries {
		nuts.L.Infof("[Scheduler] %s job next run at %v", name, s.cron.Entry(id).Next)
	}
}

// Stop prevents new runs and waits for running jobs, or for ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		nuts.L.Warnf("[Scheduler] Giving up on running jobs: %v", ctx.Err())
		s.cancel()
		return
	}
	s.cancel()
	nuts.L.Infof("[Scheduler] Stopped")
}

type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	nuts.L.Infof("[Scheduler] cron %s %v", msg, keysAndValues)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	nuts.L.Errorf("[Scheduler] %s: %v %v", msg, err, keysAndValues)
}
