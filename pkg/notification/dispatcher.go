package notification

import (
	"context"
	"log/slog"
)

// Dispatcher composes payloads for an event and forwards them to the
// delivery gateway. Failures are collected and logged; they never propagate
// as a failure of the operation that triggered the notification.
type Dispatcher struct {
	composer Composer
	gateway  Gateway
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher for the given composer and gateway.
func NewDispatcher(composer Composer, gateway Gateway, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		composer: composer,
		gateway:  gateway,
		logger:   logger.With("module", "dispatcher"),
	}
}

// Dispatch handles one lifecycle event. It returns the per-recipient results
// together with a *DispatchError when any recipient failed; callers use the
// error for logging only.
func (d *Dispatcher) Dispatch(ctx context.Context, event any) ([]DeliveryResult, error) {
	payloads := d.composer.ComposePayloads(event)
	if len(payloads) == 0 {
		return nil, nil
	}

	results := d.gateway.Deliver(ctx, payloads)

	failed := 0

	for _, result := range results {
		if !result.Success {
			failed++

			d.logger.WarnContext(ctx, "Notification delivery failed",
				"recipient", result.Recipient,
				"channel", result.Channel,
				"error", result.Error,
			)
		}
	}

	if failed > 0 {
		return results, &DispatchError{Failed: failed, Total: len(results)}
	}

	return results, nil
}
