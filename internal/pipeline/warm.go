package pipeline

import (
	"context"
	"time"
)

// KeepWarm builds the payload ahead of the first request, retrying with
// exponential backoff until one build succeeds. When interval is positive it
// then rebuilds on that period until the context is cancelled; a failed
// periodic rebuild leaves the previous payload in place.
func (p *Pipeline) KeepWarm(ctx context.Context, interval time.Duration) error {
	p.logger.Info("warming news payload", "refresh_interval", interval)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		if ctx.Err() != nil {
			return nil
		}
		if _, err := p.Refresh(ctx); err == nil {
			break
		}
		if !sleepWithContext(ctx, backoff) {
			return nil
		}
		backoff = nextBackoff(backoff, maxBackoff)
	}

	if interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("refresh loop stopping", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			// Refresh logs its own failures.
			_, _ = p.Refresh(ctx)
		}
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
