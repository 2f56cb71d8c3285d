package worker

import (
	"math/rand"
	"time"
)

// Backoff grows Base·2^attempt up to Cap, then adds up to Jitter so retries
// of jobs that failed together do not land together.
type Backoff struct {
	Base   time.Duration
	Cap    time.Duration
	Jitter time.Duration
}

// DefaultBackoff: 2s, 4s, 8s ... capped at 5m.
var DefaultBackoff = Backoff{Base: 2 * time.Second, Cap: 5 * time.Minute, Jitter: 250 * time.Millisecond}

// Delay returns the wait before retry number attempt (zero based).
func (b Backoff) Delay(attempt int) time.Duration {
	delay := b.Cap
	if attempt < 0 {
		attempt = 0
	}
	// beyond 2^30 the cap applies anyway; also keeps the shift from overflowing
	if attempt < 30 {
		if d := b.Base << attempt; d > 0 && d < b.Cap {
			delay = d
		}
	}

	if b.Jitter > 0 {
		delay += time.Duration(rand.Int63n(int64(b.Jitter)))
	}
	return delay
}

func ExponentialBackoff(attempt int) time.Duration {
	return DefaultBackoff.Delay(attempt)
}
