package jobs

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const DefaultMaxAttempts = 5

// a Job is one unit of best-effort background work travelling through the queue.
type Job struct {
	ID          string          `json:"id"`
	Type        JobType         `json:"type"`
	Payload     json.RawMessage `json:"payload"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"maxAttempts"`
	RunAt       time.Time       `json:"runAt"`
	LastError   string          `json:"lastError,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// New validates and encodes payload into a job that is due immediately.
func New(t JobType, payload any) (Job, error) {
	if err := ValidatePayload(t, payload); err != nil {
		return Job{}, err
	}

	raw, err := EncodePayload(t, payload)
	if err != nil {
		return Job{}, err
	}

	now := time.Now().UTC()

	return Job{
		ID:          uuid.NewString(),
		Type:        t,
		Payload:     raw,
		MaxAttempts: DefaultMaxAttempts,
		RunAt:       now,
		CreatedAt:   now,
	}, nil
}

func (j Job) Due(now time.Time) bool {
	return !j.RunAt.After(now)
}

// HandlerFunc runs one job. Returning an error schedules a retry unless the error is permanent.
type HandlerFunc func(ctx context.Context, j Job) error
