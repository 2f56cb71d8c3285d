package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/geocoder89/contacts/internal/jobs"
	"github.com/geocoder89/contacts/internal/observability"
	"github.com/geocoder89/contacts/internal/queue"
)

var ErrNoHandler = errors.New("no handler registered for job type")

type Config struct {
	Concurrency int
	MaxAttempts int
	JobTimeout  time.Duration
}

type Worker struct {
	cfg      Config
	q        queue.Queue
	handlers map[jobs.JobType]jobs.HandlerFunc
	log      *slog.Logger
	prom     *observability.Prom
	metrics  *observability.JobMetrics
	backoff  func(attempt int) time.Duration

	readyMu sync.RWMutex
	ready   bool
}

func New(cfg Config, q queue.Queue, log *slog.Logger, prom *observability.Prom) *Worker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = jobs.DefaultMaxAttempts
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 30 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}

	return &Worker{
		cfg:      cfg,
		q:        q,
		handlers: make(map[jobs.JobType]jobs.HandlerFunc),
		log:      log,
		prom:     prom,
		metrics:  observability.NewJobMetrics(),
		backoff:  ExponentialBackoff,
	}
}

// Register binds a handler to a job type. Call before Run.
func (w *Worker) Register(t jobs.JobType, h jobs.HandlerFunc) {
	w.handlers[t] = h
}

func (w *Worker) RegisterAll(hs map[jobs.JobType]jobs.HandlerFunc) {
	for t, h := range hs {
		w.Register(t, h)
	}
}

func (w *Worker) Metrics() observability.JobMetricsSnapshot {
	return w.metrics.Snapshot()
}

// Run starts Concurrency loops and blocks until ctx is cancelled and all loops have returned.
func (w *Worker) Run(ctx context.Context) error {
	w.setReady(true)
	defer w.setReady(false)

	w.log.Info("worker started", "concurrency", w.cfg.Concurrency)

	var wg sync.WaitGroup
	for i := 0; i < w.cfg.Concurrency; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			w.loop(ctx, slot)
		}(i)
	}

	wg.Wait()
	w.log.Info("worker stopped")

	return nil
}

func (w *Worker) loop(ctx context.Context, slot int) {
	for {
		if ctx.Err() != nil {
			return
		}

		_, err := w.ProcessOne(ctx)
		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			return
		}

		w.log.Error("dequeue failed", "slot", slot, "err", err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}
}

func (w *Worker) setReady(v bool) {
	w.readyMu.Lock()
	w.ready = v
	w.readyMu.Unlock()
}

func (w *Worker) Ready() bool {
	w.readyMu.RLock()
	defer w.readyMu.RUnlock()
	return w.ready
}
