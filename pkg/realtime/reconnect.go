package realtime

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// reconnector paces redials with exponential backoff and jitter. Each delay
// falls within ±50% of the current interval, which doubles up to MaxDelay.
type reconnector struct {
	policy   ReconnectPolicy
	backoff  backoff.BackOff
	attempts int
}

func newReconnector(policy ReconnectPolicy) *reconnector {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = policy.BaseDelay
	eb.MaxInterval = policy.MaxDelay
	eb.Multiplier = 2
	eb.RandomizationFactor = 0.5
	eb.MaxElapsedTime = 0

	var b backoff.BackOff = eb
	if policy.MaxAttempts > 0 {
		b = backoff.WithMaxRetries(eb, uint64(policy.MaxAttempts))
	}
	b.Reset()

	return &reconnector{policy: policy, backoff: b}
}

// next returns the wait before the next dial, or false once reconnecting is
// disabled or the attempts are used up
func (r *reconnector) next() (time.Duration, bool) {
	if !r.policy.Enabled {
		return 0, false
	}

	delay := r.backoff.NextBackOff()
	if delay == backoff.Stop {
		return 0, false
	}

	r.attempts++
	return delay, true
}

// reset starts over after a successful dial
func (r *reconnector) reset() {
	r.backoff.Reset()
	r.attempts = 0
}
