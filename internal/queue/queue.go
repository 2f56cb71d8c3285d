package queue

import (
	"context"
	"errors"

	"github.com/geocoder89/contacts/internal/jobs"
)

// ErrEmpty is returned by Dequeue when no job became due before its wait ran out.
var ErrEmpty = errors.New("queue empty")

// Queue moves side-task jobs from the API to the worker.
// Jobs whose RunAt lies in the future are held back until due.
type Queue interface {
	Enqueue(ctx context.Context, j jobs.Job) error
	Dequeue(ctx context.Context) (jobs.Job, error)
	Ping(ctx context.Context) error
}
