package resilience

import (
	"time"
)

// DefaultInterval is the delay between log polls when nothing is configured.
const DefaultInterval = 500 * time.Millisecond

// Policy decides how long to wait before the next attempt of a retryable
// operation and when to stop trying.
type Policy struct {
	// Interval is the wait after the first failed attempt
	Interval time.Duration
	// Multiplier grows the wait after every further failure; values <= 1 keep it constant
	Multiplier float64
	// MaxInterval caps the wait; zero means no cap
	MaxInterval time.Duration
	// MaxAttempts bounds the number of attempts; zero retries forever
	MaxAttempts int
}

// Constant returns a policy that waits the same interval forever.
func Constant(interval time.Duration) Policy {
	return Policy{Interval: interval, Multiplier: 1}
}

// Unbounded reports whether the policy never gives up.
func (p Policy) Unbounded() bool {
	return p.MaxAttempts <= 0
}

// Next returns the delay to wait after the given failed attempt (1-based).
// ok is false when the attempt budget is spent.
func (p Policy) Next(attempt int) (delay time.Duration, ok bool) {
	if attempt < 1 {
		attempt = 1
	}
	if !p.Unbounded() && attempt >= p.MaxAttempts {
		return 0, false
	}

	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	if p.Multiplier <= 1 {
		return p.cap(interval), true
	}

	d := float64(interval)
	for i := 1; i < attempt; i++ {
		d *= p.Multiplier
		if p.MaxInterval > 0 && d >= float64(p.MaxInterval) {
			return p.MaxInterval, true
		}
	}
	return p.cap(time.Duration(d)), true
}

func (p Policy) cap(d time.Duration) time.Duration {
	if p.MaxInterval > 0 && d > p.MaxInterval {
		return p.MaxInterval
	}
	return d
}
