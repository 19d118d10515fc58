package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/itsatony/w4b_v3/server/clima/internal/clock"
	"github.com/itsatony/w4b_v3/server/clima/internal/config"
	"github.com/itsatony/w4b_v3/server/clima/internal/models"
	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopGenerator struct{ calls atomic.Int32 }

func (g *nopGenerator) Generate(context.Context) (*models.Report, error) {
	g.calls.Add(1)
	return &models.Report{}, nil
}

type nopPruner struct{ calls atomic.Int32 }

func (p *nopPruner) Prune(context.Context) (int64, error) {
	p.calls.Add(1)
	return 0, nil
}

var schedCfg = config.ScheduleConfig{TimezoneOffsetHours: -5, ReportAt: "23:30", PruneAt: "00:00"}

func newTestScheduler(t *testing.T) *Scheduler {
	s, err := New(schedCfg, clock.NewFixed(-5), &nopGenerator{}, &nopPruner{})
	require.NoError(t, err)
	return s
}

func TestDailySpec(t *testing.T) {
	spec, err := DailySpec("23:30")
	require.NoError(t, err)
	assert.Equal(t, "30 23 * * *", spec)

	spec, err = DailySpec("00:00")
	require.NoError(t, err)
	assert.Equal(t, "0 0 * * *", spec)

	_, err = DailySpec("24:61")
	assert.Error(t, err)
}

func TestScheduleFollowsStationZone(t *testing.T) {
	spec, err := DailySpec("23:30")
	require.NoError(t, err)
	sched, err := cron.ParseStandard(spec)
	require.NoError(t, err)

	zone := clock.Zone(-5)
	sched.(*cron.SpecSchedule).Location = zone
	from := time.Date(2026, 10, 19, 12, 0, 0, 0, zone)
	next := sched.Next(from)
	assert.Equal(t, time.Date(2026, 10, 19, 23, 30, 0, 0, zone).Unix(), next.Unix())
	assert.Equal(t, time.Date(2026, 10, 20, 4, 30, 0, 0, time.UTC).Unix(), next.Unix())
}

func TestNewRejectsBadTimes(t *testing.T) {
	bad := schedCfg
	bad.ReportAt = "half past eleven"
	_, err := New(bad, clock.NewFixed(-5), &nopGenerator{}, &nopPruner{})
	assert.Error(t, err)
}

func TestJobSkipsOverlappingTrigger(t *testing.T) {
	s := newTestScheduler(t)

	var runs atomic.Int32
	release := make(chan struct{})
	started := make(chan struct{})
	job := s.job("slow", func(context.Context) {
		if runs.Add(1) == 1 {
			close(started)
		}
		<-release
	})

	done := make(chan struct{})
	go func() {
		job.Run()
		close(done)
	}()
	<-started

	// a second trigger while the first is running is dropped
	job.Run()
	assert.Equal(t, int32(1), runs.Load())

	close(release)
	<-done
	job.Run()
	assert.Equal(t, int32(2), runs.Load())
}

func TestJobsRunSequentially(t *testing.T) {
	s := newTestScheduler(t)

	var running, maxRunning atomic.Int32
	track := func(context.Context) {
		n := running.Add(1)
		defer running.Add(-1)
		for {
			m := maxRunning.Load()
			if n <= m || maxRunning.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	report := s.job(JobReport, track)
	prune := s.job(JobPrune, track)

	var wg sync.WaitGroup
	for _, j := range []cron.Job{report, prune} {
		wg.Add(1)
		go func(j cron.Job) {
			defer wg.Done()
			j.Run()
		}(j)
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxRunning.Load())
}

func TestStopWaitsAndBlocksFurtherRuns(t *testing.T) {
	g := &nopGenerator{}
	s, err := New(schedCfg, clock.NewFixed(-5), g, &nopPruner{})
	require.NoError(t, err)
	s.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)

	s.job(JobReport, func(context.Context) { g.calls.Add(1) }).Run()
	assert.Equal(t, int32(0), g.calls.Load())
}
