package notifications

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("mail provider circuit open")

const (
	stateClosed   = "closed"
	stateOpen     = "open"
	stateHalfOpen = "half_open"
)

type ProtectedNotifierConfig struct {
	Timeout          time.Duration // per send
	FailureThreshold int           // consecutive provider failures before opening
	Cooldown         time.Duration // open duration before trial sends
	HalfOpenMaxCalls int           // concurrent trial sends
}

// ProtectedNotifier bounds every send with a timeout and stops calling a
// provider that keeps failing. A rejected message (ErrRejected) says nothing
// about provider health and leaves the breaker alone.
type ProtectedNotifier struct {
	inner   Notifier
	timeout time.Duration
	br      *breaker
}

func NewProtectedNotifier(inner Notifier, cfg ProtectedNotifierConfig) *ProtectedNotifier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 15 * time.Second
	}
	if cfg.HalfOpenMaxCalls <= 0 {
		cfg.HalfOpenMaxCalls = 1
	}

	return &ProtectedNotifier{
		inner:   inner,
		timeout: cfg.Timeout,
		br: &breaker{
			threshold: cfg.FailureThreshold,
			cooldown:  cfg.Cooldown,
			maxTrials: cfg.HalfOpenMaxCalls,
			state:     stateClosed,
			now:       time.Now,
		},
	}
}

func (n *ProtectedNotifier) Send(ctx context.Context, msg Message) error {
	if !n.br.allow() {
		return ErrCircuitOpen
	}

	sendCtx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	err := n.inner.Send(sendCtx, msg)
	n.br.record(err != nil && !errors.Is(err, ErrRejected))

	return err
}

// State reports the breaker state.
func (n *ProtectedNotifier) State() string {
	return n.br.current()
}

type breaker struct {
	threshold int
	cooldown  time.Duration
	maxTrials int
	now       func() time.Time

	mu       sync.Mutex
	state    string
	failures int
	openedAt time.Time
	trials   int
}

func (b *breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case stateOpen:
		if b.now().Sub(b.openedAt) < b.cooldown {
			return false
		}
		b.state = stateHalfOpen
		b.trials = 1
		return true
	case stateHalfOpen:
		if b.trials >= b.maxTrials {
			return false
		}
		b.trials++
		return true
	default:
		return true
	}
}

func (b *breaker) record(failed bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == stateHalfOpen && b.trials > 0 {
		b.trials--
	}

	if !failed {
		b.failures = 0
		b.state = stateClosed
		return
	}

	b.failures++
	if b.state == stateHalfOpen || b.failures >= b.threshold {
		b.state = stateOpen
		b.openedAt = b.now()
	}
}

func (b *breaker) current() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
