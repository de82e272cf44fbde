package collectors

import (
	"context"
	"sync"
	"time"
)

// Limiter enforces two sliding windows over outgoing requests,
// a per-minute budget and a short burst budget. Both must have
// room before a request is admitted.
type Limiter struct {
	perMinute int
	burst     int

	minuteWindow time.Duration
	burstWindow  time.Duration

	mux    sync.Mutex
	stamps []time.Time
	now    func() time.Time
}

// NewLimiter builds a limiter with the standard 60s/10s windows
func NewLimiter(perMinute, burst int) *Limiter {
	return &Limiter{
		perMinute:    perMinute,
		burst:        burst,
		minuteWindow: time.Minute,
		burstWindow:  10 * time.Second,
		now:          time.Now,
	}
}

// Admit blocks until both windows have room, then records the
// request. It returns early only when ctx is done.
func (l *Limiter) Admit(ctx context.Context) error {
	for {
		wait := l.reserve()
		if wait <= 0 {
			return nil
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// reserve either records a request now or returns how long the
// caller has to wait before trying again.
func (l *Limiter) reserve() time.Duration {
	l.mux.Lock()
	defer l.mux.Unlock()

	now := l.now()

	// drop stamps that left the minute window
	cutoff := now.Add(-l.minuteWindow)
	kept := l.stamps[:0]
	for _, s := range l.stamps {
		if s.After(cutoff) {
			kept = append(kept, s)
		}
	}
	l.stamps = kept

	var wait time.Duration
	if len(l.stamps) >= l.perMinute {
		wait = l.stamps[len(l.stamps)-l.perMinute].Add(l.minuteWindow).Sub(now)
	}

	burstCutoff := now.Add(-l.burstWindow)
	var inBurst []time.Time
	for _, s := range l.stamps {
		if s.After(burstCutoff) {
			inBurst = append(inBurst, s)
		}
	}
	if len(inBurst) >= l.burst {
		if w := inBurst[len(inBurst)-l.burst].Add(l.burstWindow).Sub(now); w > wait {
			wait = w
		}
	}

	if wait <= 0 {
		l.stamps = append(l.stamps, now)
		return 0
	}
	return wait
}
