package action

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RetryPolicy bounds the retries of post-confirmation reads. The delay doubles
// after each failed attempt.
type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.Backoff <= 0 {
		p.Backoff = 100 * time.Millisecond
	}
	return p
}

func (p RetryPolicy) do(ctx context.Context, logger *zap.Logger, what string, fn func(context.Context) error) error {
	p = p.normalized()
	delay := p.Backoff
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= p.MaxRetries {
			return err
		}
		logger.Debug("retrying", zap.String("what", what), zap.Int("attempt", attempt+1), zap.Duration("delay", delay), zap.Error(err))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
}
