package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ignite/admissions-crm/internal/api"
	"github.com/ignite/admissions-crm/internal/app"
	"github.com/ignite/admissions-crm/internal/auth"
	"github.com/ignite/admissions-crm/internal/config"
	"github.com/ignite/admissions-crm/internal/pkg/logger"
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

	var sessions auth.SessionStore
	if rt.Redis != nil {
		sessions = auth.NewRedisStore(rt.Redis)
		logger.Info("sessions stored in redis")
	} else {
		mem := auth.NewMemoryStore()
		go mem.CleanupExpiredSessions(ctx, 10*time.Minute)
		sessions = mem
		logger.Warn("REDIS_URL not set, sessions kept in memory")
	}
	if cfg.Auth.SessionSecret == "" {
		logger.Warn("SESSION_SECRET not set, session cookies are unsigned")
	}

	svc := rt.Services
	authManager := auth.NewManager(cfg.Auth, svc.Users, sessions)
	handlers := api.NewHandlers(api.Deps{
		Prospects:      svc.Prospects,
		Communications: svc.Communications,
		Campaigns:      svc.Campaigns,
		Admission:      svc.Admission,
		Reports:        svc.Reports,
		Forms:          svc.Forms,
		Metrics:        svc.Metrics,
		Runner:         svc.Runner,
		Pager:          api.NewPager(cfg.Server),
	})
	s3Client, bucket := rt.Storage.S3()
	health := api.NewHealthChecker(rt.DB, rt.Redis, s3Client, bucket)

	server := api.NewServer(cfg, handlers, authManager, health)

	go func() {
		logger.Info("server listening", "addr", cfg.Server.Addr(), "dev_mode", cfg.DevMode)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-done

	logger.Info("shutting down server")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	logger.Info("server stopped")
}
