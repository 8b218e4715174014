package backoff

import "time"

// Waiter is a bounded blocking wait with an injectable sleep function.
// Remote APIs with eventual-consistency windows (MailerLite status
// transitions) need short fixed pauses between writes; routing them
// through a Waiter keeps the pauses testable.
type Waiter struct {
	Base   time.Duration
	Max    time.Duration
	Factor float64

	// Sleep defaults to time.Sleep when nil.
	Sleep func(time.Duration)
}

// Wait blocks for the duration of the given zero-based attempt:
// Base * Factor^attempt, capped at Max.
func (w Waiter) Wait(attempt int) {
	d := w.Duration(attempt)
	if d <= 0 {
		return
	}
	sleep := w.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	sleep(d)
}

func (w Waiter) Duration(attempt int) time.Duration {
	if w.Base <= 0 {
		return 0
	}
	factor := w.Factor
	if factor <= 0 {
		factor = 1
	}
	d := float64(w.Base)
	for i := 0; i < attempt; i++ {
		d *= factor
	}
	out := time.Duration(d)
	if w.Max > 0 && out > w.Max {
		out = w.Max
	}
	return out
}
