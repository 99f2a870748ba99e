package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/admissions-crm/internal/pkg/distlock"
)

type fakeRunner struct {
	calls int64
	n     int
	err   error
}

func (f *fakeRunner) RunDue(context.Context) (int, error) {
	atomic.AddInt64(&f.calls, 1)
	return f.n, f.err
}

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestReportScheduler_TickWithoutLock(t *testing.T) {
	runner := &fakeRunner{n: 2}
	rs := NewReportScheduler(runner, nil)

	assert.True(t, rs.Tick(context.Background()))
	stats := rs.Stats()
	assert.Equal(t, int64(1), stats.Ticks)
	assert.Equal(t, int64(2), stats.Executed)
	assert.Equal(t, int64(0), stats.Errors)
}

func TestReportScheduler_TickSkipsWhenLockHeld(t *testing.T) {
	client := newRedis(t)
	ctx := context.Background()

	holder := distlock.NewRedisLock(client, schedulerLockKey, time.Minute)
	ok, err := holder.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	runner := &fakeRunner{n: 1}
	rs := NewReportScheduler(runner, nil)
	rs.SetRedisClient(client)
	rs.SetLockTTL(time.Minute)

	assert.False(t, rs.Tick(ctx))
	assert.Equal(t, int64(0), atomic.LoadInt64(&runner.calls))
	assert.Equal(t, int64(1), rs.Stats().Skipped)

	require.NoError(t, holder.Release(ctx))
	assert.True(t, rs.Tick(ctx))
	assert.Equal(t, int64(1), atomic.LoadInt64(&runner.calls))
	assert.Equal(t, int64(1), rs.Stats().Executed)
}

func TestReportScheduler_TickRecordsErrors(t *testing.T) {
	runner := &fakeRunner{n: 1, err: errors.New("list due reports: boom")}
	rs := NewReportScheduler(runner, nil)
	rs.SetRedisClient(newRedis(t))

	assert.True(t, rs.Tick(context.Background()))
	assert.Equal(t, int64(1), rs.Stats().Errors)
	assert.Equal(t, int64(1), rs.Stats().Executed)
	assert.Equal(t, "list due reports: boom", rs.LastError())
}

func TestReportScheduler_StartStop(t *testing.T) {
	runner := &fakeRunner{}
	rs := NewReportScheduler(runner, nil)
	rs.SetPollInterval(10 * time.Millisecond)

	require.NoError(t, rs.Start())
	assert.Error(t, rs.Start(), "double start")
	assert.True(t, rs.Stats().Running)

	assert.Eventually(t, func() bool {
		return atomic.LoadInt64(&runner.calls) >= 2
	}, time.Second, 5*time.Millisecond)

	rs.Stop()
	assert.False(t, rs.Stats().Running)
	calls := atomic.LoadInt64(&runner.calls)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, atomic.LoadInt64(&runner.calls))

	rs.Stop()
}

func TestReportScheduler_SetPollIntervalIgnoresZero(t *testing.T) {
	rs := NewReportScheduler(&fakeRunner{}, nil)
	rs.SetPollInterval(0)
	assert.Equal(t, DefaultSchedulerPollInterval, rs.pollInterval)
}

func TestExportCleanup_Sweep(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	old := filepath.Join(dir, "executive_2024-04-01.csv")
	fresh := filepath.Join(dir, "nested", "advisors_2024-05-30.xlsx")
	require.NoError(t, os.MkdirAll(filepath.Dir(fresh), 0o755))
	for _, p := range []string{old, fresh} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
	require.NoError(t, os.Chtimes(old, now.AddDate(0, 0, -40), now.AddDate(0, 0, -40)))
	require.NoError(t, os.Chtimes(fresh, now.AddDate(0, 0, -2), now.AddDate(0, 0, -2)))

	ec := NewExportCleanupWorker(dir, 30*24*time.Hour)
	ec.now = func() time.Time { return now }

	assert.Equal(t, 1, ec.Sweep(context.Background()))
	assert.NoFileExists(t, old)
	assert.FileExists(t, fresh)
}

func TestExportCleanup_MissingDir(t *testing.T) {
	ec := NewExportCleanupWorker(filepath.Join(t.TempDir(), "absent"), time.Hour)
	assert.Equal(t, 0, ec.Sweep(context.Background()))
}

func TestExportCleanup_DisabledReturnsImmediately(t *testing.T) {
	ec := NewExportCleanupWorker(t.TempDir(), 0)
	done := make(chan struct{})
	go func() {
		ec.Start(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start should return when retention is disabled")
	}
}
