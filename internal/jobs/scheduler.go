// Package jobs runs periodic housekeeping: closing idle conversations and
// publishing connection pool gauges.
package jobs

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"

	"sitepulse/internal/metrics"
)

const (
	idleSweepJob = "idle-conversation-sweep"
	poolStatsJob = "db-pool-stats"
)

// PoolStatsInterval is how often connection pool gauges are refreshed
const PoolStatsInterval = 15 * time.Second

// IdleSweeper closes conversations without recent activity
type IdleSweeper interface {
	CloseIdleConversations(ctx context.Context, idleFor time.Duration) (int64, error)
}

// PoolStatsFunc reports the current connection pool state
type PoolStatsFunc func() (*sql.DBStats, error)

// Config describes which jobs to run
type Config struct {
	Location      *time.Location
	IdleTimeout   time.Duration
	SweepInterval time.Duration // zero disables the sweep
	PoolStats     PoolStatsFunc // nil disables pool gauges
	PoolInterval  time.Duration
}

// Scheduler owns the gocron scheduler and the context handed to jobs
type Scheduler struct {
	cron    gocron.Scheduler
	ctx     context.Context
	cancel  context.CancelFunc
	sweeper IdleSweeper
	cfg     Config
}

// NewScheduler registers the enabled jobs. Nothing runs until Start.
func NewScheduler(sweeper IdleSweeper, cfg Config) (*Scheduler, error) {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.PoolInterval <= 0 {
		cfg.PoolInterval = PoolStatsInterval
	}

	cron, err := gocron.NewScheduler(
		gocron.WithLocation(cfg.Location),
		gocron.WithLogger(cronLogger{}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{cron: cron, ctx: ctx, cancel: cancel, sweeper: sweeper, cfg: cfg}

	if cfg.SweepInterval > 0 && sweeper != nil {
		if err := s.add(idleSweepJob, cfg.SweepInterval, s.sweepIdle); err != nil {
			cancel()
			return nil, err
		}
		log.Printf("[JOBS] Idle sweep scheduled: every %v, idle after %v", cfg.SweepInterval, cfg.IdleTimeout)
	} else {
		log.Println("[JOBS] Idle sweep disabled")
	}

	if cfg.PoolStats != nil {
		if err := s.add(poolStatsJob, cfg.PoolInterval, s.recordPoolStats); err != nil {
			cancel()
			return nil, err
		}
	}
	return s, nil
}

func (s *Scheduler) add(name string, every time.Duration, task func()) error {
	_, err := s.cron.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(task),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule job %q: %w", name, err)
	}
	return nil
}

// Start begins running the scheduled jobs
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Shutdown cancels in-flight jobs and waits for them to return
func (s *Scheduler) Shutdown() error {
	s.cancel()
	if err := s.cron.Shutdown(); err != nil {
		return fmt.Errorf("failed to shutdown scheduler: %w", err)
	}
	return nil
}

// Jobs lists the names of the registered jobs
func (s *Scheduler) Jobs() []string {
	jobs := s.cron.Jobs()
	names := make([]string, 0, len(jobs))
	for _, j := range jobs {
		names = append(names, j.Name())
	}
	return names
}

func (s *Scheduler) sweepIdle() {
	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.SweepInterval)
	defer cancel()

	closed, err := s.sweeper.CloseIdleConversations(ctx, s.cfg.IdleTimeout)
	if err != nil {
		log.Printf("[JOBS] Idle sweep failed: %v", err)
		return
	}
	metrics.RecordIdleConversationsClosed(closed)
	if closed > 0 {
		log.Printf("[JOBS] Idle sweep closed %d conversations", closed)
	}
}

func (s *Scheduler) recordPoolStats() {
	st, err := s.cfg.PoolStats()
	if err != nil {
		log.Printf("[JOBS] Failed to read pool stats: %v", err)
		return
	}
	metrics.UpdateDBConnections(st.InUse, st.Idle)
}

// cronLogger forwards gocron's warnings and errors to the std logger
type cronLogger struct{}

func (cronLogger) Debug(string, ...any) {}

func (cronLogger) Info(string, ...any) {}

func (cronLogger) Warn(msg string, args ...any) {
	log.Printf("[JOBS] warn: %s %v", msg, args)
}

func (cronLogger) Error(msg string, args ...any) {
	log.Printf("[JOBS] error: %s %v", msg, args)
}
