package observability

import (
	"sync/atomic"
	"time"
)

// JobOutcome is how a single job execution ended.
type JobOutcome int

const (
	JobDone JobOutcome = iota
	JobRetried
	// JobFailed: the job will not run again (dead-lettered, or lost when its requeue failed).
	JobFailed
	jobOutcomeCount
)

// JobMetrics are in-process counters for one worker, served on its /stats
// endpoint and logged at shutdown. Prometheus carries the same signal per type.
type JobMetrics struct {
	dequeued     atomic.Uint64
	outcomes     [jobOutcomeCount]atomic.Uint64
	deadLettered atomic.Uint64

	runs     atomic.Uint64
	totalNs  atomic.Int64
	slowestN atomic.Int64
}

func NewJobMetrics() *JobMetrics {
	return &JobMetrics{}
}

func (m *JobMetrics) Dequeued() {
	m.dequeued.Add(1)
}

func (m *JobMetrics) Record(o JobOutcome) {
	if o >= 0 && o < jobOutcomeCount {
		m.outcomes[o].Add(1)
	}
}

// DeadLettered counts a failed job that was dropped on purpose; call alongside Record(JobFailed).
func (m *JobMetrics) DeadLettered() {
	m.deadLettered.Add(1)
}

func (m *JobMetrics) ObserveDuration(d time.Duration) {
	ns := d.Nanoseconds()
	m.runs.Add(1)
	m.totalNs.Add(ns)

	for {
		cur := m.slowestN.Load()
		if ns <= cur || m.slowestN.CompareAndSwap(cur, ns) {
			return
		}
	}
}

type JobMetricsSnapshot struct {
	Dequeued        uint64        `json:"dequeued"`
	Done            uint64        `json:"done"`
	Retried         uint64        `json:"retried"`
	Failed          uint64        `json:"failed"`
	DeadLettered    uint64        `json:"deadLettered"`
	Runs            uint64        `json:"runs"`
	AverageDuration time.Duration `json:"-"`
	MaxDuration     time.Duration `json:"-"`
	AverageMs       float64       `json:"averageMs"`
	MaxMs           float64       `json:"maxMs"`
}

func (m *JobMetrics) Snapshot() JobMetricsSnapshot {
	runs := m.runs.Load()

	var avg time.Duration
	if runs > 0 {
		avg = time.Duration(m.totalNs.Load() / int64(runs))
	}
	slowest := time.Duration(m.slowestN.Load())

	return JobMetricsSnapshot{
		Dequeued:        m.dequeued.Load(),
		Done:            m.outcomes[JobDone].Load(),
		Retried:         m.outcomes[JobRetried].Load(),
		Failed:          m.outcomes[JobFailed].Load(),
		DeadLettered:    m.deadLettered.Load(),
		Runs:            runs,
		AverageDuration: avg,
		MaxDuration:     slowest,
		AverageMs:       float64(avg) / float64(time.Millisecond),
		MaxMs:           float64(slowest) / float64(time.Millisecond),
	}
}
