package service

import (
	"context"
	"time"
)

// BackoffConfig is the retry schedule for opening the line backend.
type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
}

// openDelay is the wait before retry number attempt (1-based): InitialDelay
// grown by Multiplier per attempt and capped at MaxDelay when MaxDelay > 0.
func openDelay(cfg BackoffConfig, attempt int) time.Duration {
	delay := cfg.InitialDelay
	if delay <= 0 {
		return 0
	}
	mult := max(cfg.Multiplier, 1.0)
	for i := 1; i < attempt; i++ {
		if cfg.MaxDelay > 0 && delay >= cfg.MaxDelay {
			break
		}
		delay = time.Duration(float64(delay) * mult)
	}
	if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}
	return delay
}

// waitBackoff sleeps for the attempt's delay or until ctx is done.
func waitBackoff(ctx context.Context, cfg BackoffConfig, attempt int) error {
	timer := time.NewTimer(openDelay(cfg, attempt))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
