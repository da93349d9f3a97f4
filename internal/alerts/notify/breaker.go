package notify

import (
	"context"
	"log/slog"

	"careflow/pkg/platform/circuit"
)

// BreakerNotifier sends through primary while it is healthy and through fallback
// while the breaker is open. The fallback's error is returned when it is used.
type BreakerNotifier struct {
	primary  Notifier
	fallback Notifier
	breaker  *circuit.Breaker
	logger   *slog.Logger
}

func NewBreakerNotifier(primary, fallback Notifier, breaker *circuit.Breaker, logger *slog.Logger) *BreakerNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &BreakerNotifier{primary: primary, fallback: fallback, breaker: breaker, logger: logger}
}

func (b *BreakerNotifier) Notify(ctx context.Context, n Notification) error {
	if !b.breaker.Allow() {
		return b.fallback.Notify(ctx, n)
	}
	err := b.primary.Notify(ctx, n)
	if err == nil {
		if _, change := b.breaker.RecordSuccess(); change.Closed {
			b.logger.InfoContext(ctx, "notifier circuit closed", "breaker", b.breaker.Name())
		}
		return nil
	}
	useFallback, change := b.breaker.RecordFailure()
	if change.Opened {
		b.logger.WarnContext(ctx, "notifier circuit opened", "breaker", b.breaker.Name(), "error", err)
	}
	if useFallback {
		return b.fallback.Notify(ctx, n)
	}
	return err
}
