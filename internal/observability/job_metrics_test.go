package observability

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestJobMetrics_Snapshot(t *testing.T) {
	m := NewJobMetrics()

	var wg sync.WaitGroup
	for i := 1; i <= 4; i++ {
		wg.Add(1)
		go func(ms int) {
			defer wg.Done()
			m.Dequeued()
			m.ObserveDuration(time.Duration(ms) * time.Millisecond)
		}(i * 10)
	}
	wg.Wait()

	m.Record(JobDone)
	m.Record(JobRetried)

	s := m.Snapshot()
	require.Equal(t, uint64(4), s.Dequeued)
	require.Equal(t, uint64(1), s.Done)
	require.Equal(t, uint64(1), s.Retried)
	require.Equal(t, uint64(4), s.Runs)
	require.Equal(t, 40.0, s.MaxMs)
	require.Equal(t, 25*time.Millisecond, s.AverageDuration)
	require.Equal(t, 40*time.Millisecond, s.MaxDuration)
}

func TestProm_NilSafeHelpers(t *testing.T) {
	var p *Prom
	p.IncAuthRejection("x")
	p.IncEnqueued("send_verification_email", nil)
	p.ObserveJob("resize_avatar", "done", time.Second)
	require.NoError(t, p.ObserveDB("contacts.get", func() error { return nil }))
}
