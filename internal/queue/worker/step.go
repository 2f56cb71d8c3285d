package worker

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/contacts/internal/jobs"
	"github.com/geocoder89/contacts/internal/observability"
	"github.com/geocoder89/contacts/internal/queue"
)

// ProcessOne takes at most one job off the queue and runs it.
// It reports whether a job was handled; a job failure is not returned as an error.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	j, err := w.q.Dequeue(ctx)
	if err != nil {
		if errors.Is(err, queue.ErrEmpty) {
			return false, nil
		}
		return false, err
	}

	w.metrics.Dequeued()

	err = w.execute(ctx, j)
	if err != nil {
		w.handleFailure(ctx, j, err)
		return true, nil
	}

	w.metrics.Record(observability.JobDone)
	w.log.Info("job done", "job_id", j.ID, "job_type", j.Type, "attempt", j.Attempts+1)

	return true, nil
}

func (w *Worker) execute(ctx context.Context, j jobs.Job) error {
	h, ok := w.handlers[j.Type]
	if !ok {
		return ErrNoHandler
	}

	if w.prom != nil {
		w.prom.JobsInFlight.Inc()
		defer w.prom.JobsInFlight.Dec()
	}

	runCtx, cancel := context.WithTimeout(ctx, w.cfg.JobTimeout)
	defer cancel()

	start := time.Now()
	err := h(runCtx, j)
	d := time.Since(start)

	w.metrics.ObserveDuration(d)

	result := "done"
	if err != nil {
		result = "retry"
		if permanent(err) || j.Attempts+1 >= w.maxAttempts(j) {
			result = "failed"
		}
	}
	w.prom.ObserveJob(string(j.Type), result, d)

	return err
}

func (w *Worker) handleFailure(ctx context.Context, j jobs.Job, err error) {
	j.Attempts++
	j.LastError = err.Error()

	if permanent(err) || j.Attempts >= w.maxAttempts(j) {
		w.metrics.Record(observability.JobFailed)
		w.metrics.DeadLettered()
		w.log.Error("job failed permanently",
			"job_id", j.ID, "job_type", j.Type, "attempts", j.Attempts, "err", err)
		return
	}

	delay := w.backoff(j.Attempts - 1)
	j.RunAt = time.Now().UTC().Add(delay)

	// the job is re-queued even when ctx is shutting down so it is not lost
	enqueueCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	if qErr := w.q.Enqueue(enqueueCtx, j); qErr != nil {
		w.metrics.Record(observability.JobFailed)
		w.log.Error("job requeue failed",
			"job_id", j.ID, "job_type", j.Type, "err", qErr, "job_err", err)
		return
	}

	w.metrics.Record(observability.JobRetried)
	w.log.Warn("job scheduled for retry",
		"job_id", j.ID, "job_type", j.Type, "attempts", j.Attempts, "delay", delay.String(), "err", err)
}

func (w *Worker) maxAttempts(j jobs.Job) int {
	if j.MaxAttempts > 0 && j.MaxAttempts < w.cfg.MaxAttempts {
		return j.MaxAttempts
	}
	return w.cfg.MaxAttempts
}

func permanent(err error) bool {
	return errors.Is(err, ErrNoHandler) ||
		errors.Is(err, jobs.ErrInvalidJobType) ||
		errors.Is(err, jobs.ErrInvalidJobPayload) ||
		errors.Is(err, jobs.ErrPayloadTypeMismatch) ||
		errors.Is(err, jobs.ErrPermanent)
}
