// FilePath: server/clima/internal/server/server.go
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/itsatony/w4b_v3/server/clima/api"
	"github.com/itsatony/w4b_v3/server/clima/internal/accumulator"
	"github.com/itsatony/w4b_v3/server/clima/internal/analysis"
	"github.com/itsatony/w4b_v3/server/clima/internal/clock"
	"github.com/itsatony/w4b_v3/server/clima/internal/config"
	"github.com/itsatony/w4b_v3/server/clima/internal/database"
	"github.com/itsatony/w4b_v3/server/clima/internal/live"
	"github.com/itsatony/w4b_v3/server/clima/internal/models"
	"github.com/itsatony/w4b_v3/server/clima/internal/monitoring"
	"github.com/itsatony/w4b_v3/server/clima/internal/report"
	"github.com/itsatony/w4b_v3/server/clima/internal/repository/postgres"
	"github.com/itsatony/w4b_v3/server/clima/internal/repository/timescale"
	"github.com/itsatony/w4b_v3/server/clima/internal/retention"
	"github.com/itsatony/w4b_v3/server/clima/internal/scheduler"
	"github.com/itsatony/w4b_v3/server/clima/internal/service"
	"github.com/itsatony/w4b_v3/server/clima/internal/subscriber"
	"github.com/redis/go-redis/v9"
	nuts "github.com/vaudience/go-nuts"
)

// Server owns every long-running component of the station
type Server struct {
	config     *config.Config
	srv        *http.Server
	service    *service.Service
	monitoring *monitoring.Service

	db          database.DB
	redis       *redis.Client
	hub         *live.Hub
	accumulator *accumulator.Accumulator
	subscriber  *subscriber.Subscriber
	scheduler   *scheduler.Scheduler

	// background loops (hub, flush timer)
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new server instance
func New(cfg *config.Config) *Server {
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &Server{
		config: cfg,
		srv:    srv,
	}
}

// Start wires the components, starts listening and blocks until shutdown
func (s *Server) Start() error {
	s.monitoring = monitoring.NewService()
	s.initialize()

	// Set up report and retention event handlers
	s.setupEventHandlers()

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.runBackground(ctx)

	if err := s.subscriber.Start(ctx); err != nil {
		nuts.L.Errorf("[Server] Stream subscriber not started: %v", err)
	}
	s.scheduler.Start()

	var metrics http.Handler
	if s.config.Monitoring.MetricsEnabled {
		metrics = s.monitoring.Handler()
	}
	s.srv.Handler = api.NewRouter(s.service, s.hub, metrics, s.config.Server)

	// Start server
	go func() {
		nuts.L.Infof("[Server] Starting server on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			nuts.L.Errorf("[Server] Error starting server: %v", err)
			os.Exit(1)
		}
	}()

	return s.waitForShutdown()
}

// initialize builds stores, pipeline and stream components from config
func (s *Server) initialize() {
	cfg := s.config
	clk := clock.NewFixed(cfg.Schedule.TimezoneOffsetHours)

	s.db = initDatabase(cfg.Database)

	readings, err := timescale.NewSensorDataRepository(s.db, clk)
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to initialize reading repository: %v", err)
	}
	reports, err := postgres.NewReportRepository(s.db, clk)
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to initialize report repository: %v", err)
	}

	s.redis = initRedis(cfg.Redis)
	var latest live.LatestStore = live.NewMemoryStore()
	if s.redis != nil {
		latest = live.NewRedisStore(s.redis)
	}
	s.hub = live.NewHub(latest, s.monitoring)

	s.accumulator = accumulator.New(readings, clk, cfg.Accumulator.FlushInterval, s.monitoring)
	registry := models.NewSensorRegistry(cfg.MQTT.TopicPrefix)
	s.subscriber = subscriber.New(cfg.MQTT, registry, s.accumulator, s.hub, clk, s.monitoring)

	pipeline := report.New(cfg.Report, readings, reports, analysis.NewClient(cfg.Analysis), clk, s.monitoring)
	cleanup := retention.New(readings, cfg.Retention.MaxAge, s.monitoring)

	s.scheduler, err = scheduler.New(cfg.Schedule, clk, pipeline, cleanup)
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to initialize scheduler: %v", err)
	}

	s.service = service.New(s.db, readings, reports, pipeline, cleanup, s.hub, s.subscriber)
	s.service.QueryTimeout = cfg.Database.QueryTimeout
	if err := s.service.Validate(); err != nil {
		nuts.L.Fatalf("[Server] %v", err)
	}
}

func (s *Server) runBackground(ctx context.Context) {
	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.hub.Run(ctx)
	}()
	go func() {
		defer s.wg.Done()
		s.accumulator.Run(ctx)
	}()
}

// waitForShutdown waits for interrupt signal and gracefully shuts down the server
func (s *Server) waitForShutdown() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	nuts.L.Infof("[Server] Shutting down server...")
	return s.Shutdown()
}

// Shutdown stops the components in dependency order: no new jobs, no new
// stream values, a final flush, then the HTTP surface and the stores.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	s.scheduler.Stop(ctx)
	if err := s.subscriber.Stop(ctx); err != nil {
		nuts.L.Warnf("[Server] Error disconnecting from broker: %v", err)
	}

	// stops the flush timer after its final flush and closes the live hub
	s.cancel()
	s.wg.Wait()

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			nuts.L.Warnf("[Server] Error closing redis: %v", err)
		}
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("error closing database: %w", err)
	}

	nuts.L.Infof("[Server] Server shut down successfully")
	return nil
}

func (s *Server) setupEventHandlers() {
	// Handle report events
	s.service.Pipeline.OnReport(report.EventGenerated, func(date string) {
		nuts.L.Infof("[Report] Report for %s stored", date)
		s.monitoring.RecordEvent("report_generated", map[string]string{
			"date": date,
		})
	})

	s.service.Pipeline.OnReport(report.EventFailed, func(date string) {
		nuts.L.Warnf("[Report] Report for %s failed, previous report stays latest", date)
		s.monitoring.RecordEvent("report_failed", map[string]string{
			"date": date,
		})
	})

	// Handle retention events
	s.service.Cleanup.OnCleanup(retention.EventPruned, func(count int64) {
		s.monitoring.RecordEvent("readings_pruned", map[string]string{
			"count": strconv.FormatInt(count, 10),
		})
	})

	s.service.Cleanup.OnCleanup(retention.EventFailed, func(int64) {
		s.monitoring.RecordEvent("readings_prune_failed", nil)
	})
}

func initDatabase(cfg config.DatabaseConfig) database.DB {
	db, err := database.Open(cfg)
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to connect to database: %v", err)
	}
	// Set up connection timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.Ping(ctx); err != nil {
		nuts.L.Fatalf("[Server] Failed to ping database: %v", err)
	}
	return db
}

// initRedis returns nil when redis is disabled or unreachable, in which case
// latest values stay in memory.
func initRedis(cfg config.RedisConfig) *redis.Client {
	addr := cfg.Addr()
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		nuts.L.Warnf("[Server] Redis at %s unreachable, keeping latest values in memory: %v", addr, err)
		client.Close()
		return nil
	}
	nuts.L.Infof("[Server] Latest values cached in redis at %s", addr)
	return client
}
