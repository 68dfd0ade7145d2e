package imagegen

import (
	"context"
	"log/slog"

	"atelier/pkg/platform/circuit"
)

// StateObserver is notified when the breaker opens or closes.
type StateObserver func(name string, open bool)

// BreakerProvider fails fast with ErrCircuitOpen after repeated transient
// failures. Content and request errors do not count against the provider.
type BreakerProvider struct {
	next     Provider
	breaker  *circuit.Breaker
	logger   *slog.Logger
	observer StateObserver
}

func NewBreakerProvider(next Provider, breaker *circuit.Breaker, logger *slog.Logger, observer StateObserver) *BreakerProvider {
	return &BreakerProvider{next: next, breaker: breaker, logger: logger, observer: observer}
}

func (b *BreakerProvider) Generate(ctx context.Context, req Request) (*Image, error) {
	if !b.breaker.Allow() {
		return nil, ErrCircuitOpen
	}

	img, err := b.next.Generate(ctx, req)
	switch {
	case err == nil:
		_, change := b.breaker.RecordSuccess()
		if change.Closed {
			b.notify(ctx, false)
		}
	case IsRetryable(err) || KindOf(err) == KindAuthentication:
		_, change := b.breaker.RecordFailure()
		if change.Opened {
			b.notify(ctx, true)
		}
	}
	return img, err
}

// Health reports ErrCircuitOpen while the provider is being shed.
func (b *BreakerProvider) Health(context.Context) error {
	if b.breaker.IsOpen() {
		return ErrCircuitOpen
	}
	return nil
}

func (b *BreakerProvider) notify(ctx context.Context, open bool) {
	if b.logger != nil {
		if open {
			b.logger.WarnContext(ctx, "image provider circuit opened", "breaker", b.breaker.Name())
		} else {
			b.logger.InfoContext(ctx, "image provider circuit closed", "breaker", b.breaker.Name())
		}
	}
	if b.observer != nil {
		b.observer(b.breaker.Name(), open)
	}
}
