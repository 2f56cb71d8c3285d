package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/contacts/internal/config"
	"github.com/geocoder89/contacts/internal/jobs"
	"github.com/geocoder89/contacts/internal/notifications"
	"github.com/geocoder89/contacts/internal/observability"
	"github.com/geocoder89/contacts/internal/queue"
	"github.com/geocoder89/contacts/internal/queue/redisclient"
	"github.com/geocoder89/contacts/internal/queue/worker"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := observability.NewLogger(cfg.Env, cfg.LogLevel).With("component", "worker")
	slog.SetDefault(log)

	if cfg.RedisAddr == "" {
		log.Error("REDIS_ADDR is required for the standalone worker; the API runs jobs in-process without it")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)

	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, cfg.Tracing("contacts-worker"))
	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}

	rc := redisclient.New(redisclient.Config{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB, KeyPrefix: cfg.RedisKeyPrefix})
	defer rc.Close()

	if err := rc.Ping(ctx); err != nil {
		log.Error("redis ping failed", "err", err)
		os.Exit(1)
	}

	prom := observability.NewProm(prometheus.DefaultRegisterer)

	w := worker.New(worker.Config{
		Concurrency: cfg.WorkerConcurrency,
		MaxAttempts: cfg.WorkerMaxAttempts,
	}, queue.NewRedis(rc), log, prom)

	notifier := notifications.FromConfig(cfg.SendGridAPIKey, cfg.MailFrom, log)
	w.RegisterAll(jobs.Handlers(notifier, cfg.BaseURL, cfg.AvatarSize, log))

	healthSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WorkerHealthPort),
		Handler:           w.HealthHandler(prometheus.DefaultGatherer),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("worker health server starting", "port", cfg.WorkerHealthPort)
		if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("health server failed", "err", err)
		}
	}()

	log.Info("worker has started", "concurrency", cfg.WorkerConcurrency)

	if err := w.Run(ctx); err != nil {
		log.Error("worker stopped with error", "err", err)
	}

	sctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	_ = healthSrv.Shutdown(sctx)
	_ = shutdownTracer(sctx)

	s := w.Metrics()
	log.Info("worker shutdown complete",
		"done", s.Done, "retried", s.Retried, "failed", s.Failed, "avg_duration", s.AverageDuration.String())
}
