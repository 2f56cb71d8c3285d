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

	"github.com/geocoder89/contacts/internal/auth"
	"github.com/geocoder89/contacts/internal/avatar"
	"github.com/geocoder89/contacts/internal/config"
	"github.com/geocoder89/contacts/internal/db"
	httpx "github.com/geocoder89/contacts/internal/http"
	"github.com/geocoder89/contacts/internal/http/handlers"
	"github.com/geocoder89/contacts/internal/jobs"
	"github.com/geocoder89/contacts/internal/notifications"
	"github.com/geocoder89/contacts/internal/observability"
	"github.com/geocoder89/contacts/internal/queue"
	"github.com/geocoder89/contacts/internal/queue/redisclient"
	"github.com/geocoder89/contacts/internal/queue/worker"
	"github.com/geocoder89/contacts/internal/repo/memory"
	"github.com/geocoder89/contacts/internal/repo/postgres"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Load the config set up
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	// start up the observability logger
	log := observability.NewLogger(cfg.Env, cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, cfg.Tracing("contacts-api"))
	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom := observability.NewProm(reg)

	// stores
	var (
		users    httpx.UsersBackend
		contacts handlers.ContactsStore
		ping     func(ctx context.Context) error
	)

	switch cfg.Store {
	case "memory":
		memUsers := memory.NewUsersRepo()
		users, contacts, ping = memUsers, memory.NewContactsRepo(), memUsers.Ping
		log.Warn("running on in-memory stores; data is lost on restart")

	default:
		pool, err := db.NewPool(ctx, cfg.DBURL, db.PoolOptions{MaxConns: cfg.DBMaxConns, AppName: "contacts-api"})
		if err != nil {
			log.Error("db connect failed", "err", err)
			os.Exit(1)
		}
		defer pool.Close()

		if err := db.Migrate(ctx, pool); err != nil {
			log.Error("db migrate failed", "err", err)
			os.Exit(1)
		}

		users, contacts, ping = postgres.NewUsersRepo(pool, prom), postgres.NewContactsRepo(pool, prom), pool.Ping
	}

	// side-task queue; without redis the worker runs in this process
	var q queue.Queue
	workerDone := make(chan struct{})

	if cfg.RedisAddr != "" {
		rc := redisclient.New(redisclient.Config{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB, KeyPrefix: cfg.RedisKeyPrefix})
		defer rc.Close()

		if err := rc.Ping(ctx); err != nil {
			log.Error("redis ping failed", "err", err)
			os.Exit(1)
		}
		q = queue.NewRedis(rc)
		close(workerDone)
	} else {
		mem := queue.NewMemory()
		q = mem

		w := worker.New(worker.Config{
			Concurrency: cfg.WorkerConcurrency,
			MaxAttempts: cfg.WorkerMaxAttempts,
		}, mem, log.With("component", "worker"), prom)

		notifier := notifications.FromConfig(cfg.SendGridAPIKey, cfg.MailFrom, log)
		w.RegisterAll(jobs.Handlers(notifier, cfg.BaseURL, cfg.AvatarSize, log))

		go func() {
			defer close(workerDone)
			_ = w.Run(ctx)
		}()
	}

	avatars, err := avatar.NewStore(cfg.AvatarsDir, cfg.UploadTmpDir)
	if err != nil {
		log.Error("avatar store failed", "err", err)
		os.Exit(1)
	}

	// set up routers with the log
	router := httpx.NewRouter(log, httpx.Deps{
		Cfg:        cfg,
		Users:      users,
		Contacts:   contacts,
		Sessions:   auth.NewManager(cfg.JWTSecret),
		Queue:      q,
		Avatars:    avatars,
		AvatarsDir: cfg.AvatarsDir,
		Prom:       prom,
		Gatherer:   reg,
		Ping:       ping,
	})

	// server set up
	srv := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "store", cfg.Store)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	<-ctx.Done()
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		sctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(sctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}

		<-workerDone

		if err := shutdownTracer(sctx); err != nil {
			log.Error("tracer shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
