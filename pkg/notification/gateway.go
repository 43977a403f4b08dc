package notification

import (
	"context"
	"log/slog"
)

// Gateway hands payloads to the external delivery system. Implementations
// report one result per payload and never retry internally; retry policy
// belongs to the sender behind the gateway.
type Gateway interface {
	Deliver(ctx context.Context, payloads []Payload) []DeliveryResult
}

// LogGateway is a stand-in gateway that records every payload to the log and
// always succeeds. It backs local development and the demo flows.
type LogGateway struct {
	logger *slog.Logger
}

// NewLogGateway creates a gateway that logs deliveries.
func NewLogGateway(logger *slog.Logger) *LogGateway {
	return &LogGateway{
		logger: logger.With("module", "log_gateway"),
	}
}

func (g *LogGateway) Deliver(ctx context.Context, payloads []Payload) []DeliveryResult {
	results := make([]DeliveryResult, 0, len(payloads))

	for _, payload := range payloads {
		g.logger.InfoContext(ctx, "Delivering notification",
			"recipient", payload.Recipient,
			"channel", payload.Channel,
			"template_id", payload.TemplateID,
		)

		results = append(results, DeliveryResult{
			Recipient: payload.Recipient,
			Channel:   payload.Channel,
			Success:   true,
		})
	}

	return results
}
