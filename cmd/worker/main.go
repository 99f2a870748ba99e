package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ignite/admissions-crm/internal/app"
	"github.com/ignite/admissions-crm/internal/config"
	"github.com/ignite/admissions-crm/internal/pkg/logger"
	"github.com/ignite/admissions-crm/internal/worker"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	app.SetupLogging(cfg.Logging)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt, err := app.Start(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer rt.Close()

	scheduler := worker.NewReportScheduler(rt.Services.Runner, rt.DB)
	if rt.Redis != nil {
		scheduler.SetRedisClient(rt.Redis)
	}
	scheduler.SetPollInterval(cfg.Reports.SchedulerInterval())
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start report scheduler: %v", err)
	}

	cleanup := worker.NewExportCleanupWorker(cfg.Reports.Dir, cfg.Reports.Retention())
	go cleanup.Start(ctx)

	logger.Info("worker running", "sinks", cfg.Reports.Sinks)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down worker")
	cancel()
	scheduler.Stop()

	stats := scheduler.Stats()
	logger.Info("worker stopped", "ticks", stats.Ticks, "executed", stats.Executed, "errors", stats.Errors)
}
