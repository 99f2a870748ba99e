package worker

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/ignite/admissions-crm/internal/pkg/logger"
)

// DefaultCleanupInterval is how often the export directory is swept.
const DefaultCleanupInterval = time.Hour

// ExportCleanupWorker removes exported report files older than the
// retention period. Archived copies in S3 are left alone.
type ExportCleanupWorker struct {
	dir       string
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
}

// NewExportCleanupWorker sweeps dir every DefaultCleanupInterval.
func NewExportCleanupWorker(dir string, retention time.Duration) *ExportCleanupWorker {
	return &ExportCleanupWorker{
		dir:       dir,
		retention: retention,
		interval:  DefaultCleanupInterval,
		now:       time.Now,
	}
}

// Start runs a sweep immediately and then on every interval. It blocks
// until ctx is cancelled.
func (ec *ExportCleanupWorker) Start(ctx context.Context) {
	if ec.retention <= 0 {
		logger.Info("export cleanup disabled", "dir", ec.dir)
		return
	}
	logger.Info("export cleanup starting", "dir", ec.dir, "retention", ec.retention.String())

	ec.Sweep(ctx)

	ticker := time.NewTicker(ec.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("export cleanup stopping")
			return
		case <-ticker.C:
			ec.Sweep(ctx)
		}
	}
}

// Sweep deletes every regular file under dir last modified before the
// cutoff and returns how many were removed. A missing dir is not an error.
func (ec *ExportCleanupWorker) Sweep(ctx context.Context) int {
	start := ec.now()
	cutoff := start.Add(-ec.retention)
	removed := 0

	err := filepath.WalkDir(ec.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return filepath.SkipDir
			}
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil || !info.Mode().IsRegular() {
			return nil
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err != nil {
				logger.Warn("export cleanup: remove failed", "path", path, "error", err)
				return nil
			}
			removed++
		}
		return nil
	})
	if err != nil && ctx.Err() == nil {
		logger.Error("export cleanup failed", "dir", ec.dir, "error", err)
	}
	if removed > 0 {
		logger.Info("export cleanup removed files", "count", removed, "elapsed", time.Since(start).Round(time.Millisecond).String())
	}
	return removed
}
