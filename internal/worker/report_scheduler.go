// Package worker holds the background loops run by cmd/worker: the report
// scheduler and the export cleanup.
package worker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/admissions-crm/internal/pkg/distlock"
	"github.com/ignite/admissions-crm/internal/pkg/logger"
)

const (
	// DefaultSchedulerPollInterval is how often due reports are looked up.
	DefaultSchedulerPollInterval = time.Minute

	schedulerLockKey = "crm:report-scheduler"
)

// DueRunner executes every report definition whose next run has passed.
type DueRunner interface {
	RunDue(ctx context.Context) (int, error)
}

// ReportScheduler polls for due report definitions. Each tick takes a
// distributed lock so only one worker process runs a given batch.
type ReportScheduler struct {
	runner       DueRunner
	db           *sql.DB
	redisClient  *redis.Client // optional; nil falls back to PG advisory locks
	workerID     string
	pollInterval time.Duration
	lockTTL      time.Duration

	ticks     int64
	executed  int64
	skipped   int64
	errors    int64
	lastError atomic.Value

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.RWMutex
}

// SchedulerStats is a snapshot of the scheduler counters.
type SchedulerStats struct {
	WorkerID string `json:"worker_id"`
	Running  bool   `json:"running"`
	Ticks    int64  `json:"ticks"`
	Executed int64  `json:"executed"`
	Skipped  int64  `json:"skipped"`
	Errors   int64  `json:"errors"`
}

// NewReportScheduler creates a scheduler over runner. db is only used for
// advisory locks when no Redis client is set; with neither, every tick
// runs unlocked.
func NewReportScheduler(runner DueRunner, db *sql.DB) *ReportScheduler {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}
	return &ReportScheduler{
		runner:       runner,
		db:           db,
		workerID:     fmt.Sprintf("reports-%s-%d", hostname, time.Now().UnixNano()%10000),
		pollInterval: DefaultSchedulerPollInterval,
	}
}

// SetRedisClient switches the tick lock to Redis.
func (rs *ReportScheduler) SetRedisClient(client *redis.Client) {
	rs.redisClient = client
}

// SetLockTTL overrides how long a tick lock is held before it expires.
// The default is five poll intervals.
func (rs *ReportScheduler) SetLockTTL(d time.Duration) {
	rs.lockTTL = d
}

// SetPollInterval overrides the polling interval. Non-positive values are
// ignored.
func (rs *ReportScheduler) SetPollInterval(d time.Duration) {
	if d > 0 {
		rs.pollInterval = d
	}
}

// Start begins the polling loop. The first tick runs immediately.
func (rs *ReportScheduler) Start() error {
	rs.mu.Lock()
	if rs.running {
		rs.mu.Unlock()
		return fmt.Errorf("scheduler already running")
	}
	rs.running = true
	rs.ctx, rs.cancel = context.WithCancel(context.Background())
	rs.mu.Unlock()

	logger.Info("report scheduler starting", "worker_id", rs.workerID, "interval", rs.pollInterval.String())

	rs.wg.Add(1)
	go rs.loop()
	return nil
}

// Stop cancels the loop and waits for an in-flight tick to finish.
func (rs *ReportScheduler) Stop() {
	rs.mu.Lock()
	if !rs.running {
		rs.mu.Unlock()
		return
	}
	rs.running = false
	rs.mu.Unlock()

	rs.cancel()
	rs.wg.Wait()
	logger.Info("report scheduler stopped",
		"worker_id", rs.workerID,
		"executed", atomic.LoadInt64(&rs.executed),
		"errors", atomic.LoadInt64(&rs.errors),
	)
}

// Stats returns the current counters.
func (rs *ReportScheduler) Stats() SchedulerStats {
	rs.mu.RLock()
	running := rs.running
	rs.mu.RUnlock()
	return SchedulerStats{
		WorkerID: rs.workerID,
		Running:  running,
		Ticks:    atomic.LoadInt64(&rs.ticks),
		Executed: atomic.LoadInt64(&rs.executed),
		Skipped:  atomic.LoadInt64(&rs.skipped),
		Errors:   atomic.LoadInt64(&rs.errors),
	}
}

func (rs *ReportScheduler) loop() {
	defer rs.wg.Done()

	rs.Tick(rs.ctx)

	ticker := time.NewTicker(rs.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-rs.ctx.Done():
			return
		case <-ticker.C:
			rs.Tick(rs.ctx)
		}
	}
}

// Tick runs one scheduling pass. It reports whether this process held the
// lock and ran the pass.
func (rs *ReportScheduler) Tick(ctx context.Context) bool {
	atomic.AddInt64(&rs.ticks, 1)

	run := func(ctx context.Context) error {
		n, err := rs.runner.RunDue(ctx)
		atomic.AddInt64(&rs.executed, int64(n))
		if n > 0 {
			logger.Info("scheduled reports executed", "worker_id", rs.workerID, "count", n)
		}
		return err
	}

	lock := rs.lock()
	if lock == nil {
		if err := run(ctx); err != nil {
			rs.fail(err)
		}
		return true
	}
	ran, err := distlock.WithLock(ctx, lock, run)
	if err != nil {
		rs.fail(err)
	}
	if !ran && err == nil {
		atomic.AddInt64(&rs.skipped, 1)
		logger.Debug("report scheduler tick skipped, lock held elsewhere", "worker_id", rs.workerID)
	}
	return ran
}

func (rs *ReportScheduler) lock() distlock.DistLock {
	if rs.redisClient == nil && rs.db == nil {
		return nil
	}
	ttl := rs.lockTTL
	if ttl == 0 {
		ttl = 5 * rs.pollInterval
	}
	return distlock.NewLock(rs.redisClient, rs.db, schedulerLockKey, ttl)
}

func (rs *ReportScheduler) fail(err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	atomic.AddInt64(&rs.errors, 1)
	rs.lastError.Store(err.Error())
	logger.Error("report scheduler tick failed", "worker_id", rs.workerID, "error", err)
}

// LastError returns the message of the most recent failed tick.
func (rs *ReportScheduler) LastError() string {
	v, _ := rs.lastError.Load().(string)
	return v
}
