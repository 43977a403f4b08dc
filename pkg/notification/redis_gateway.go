package notification

import (
	"context"
	"encoding/json"
	"log/slog"

	redis "github.com/redis/go-redis/v9"
)

// RedisGateway pushes payloads onto a Redis list consumed by the external
// sender. Delivery here means the payload reached the queue; what the sender
// does with it is out of scope.
type RedisGateway struct {
	client redis.UniversalClient
	queue  string
	logger *slog.Logger
}

// NewRedisGateway creates a gateway publishing to the given list key.
func NewRedisGateway(client redis.UniversalClient, queue string, logger *slog.Logger) *RedisGateway {
	return &RedisGateway{
		client: client,
		queue:  queue,
		logger: logger.With("module", "redis_gateway", "queue", queue),
	}
}

func (g *RedisGateway) Deliver(ctx context.Context, payloads []Payload) []DeliveryResult {
	results := make([]DeliveryResult, 0, len(payloads))

	for _, payload := range payloads {
		result := DeliveryResult{
			Recipient: payload.Recipient,
			Channel:   payload.Channel,
			Success:   true,
		}

		data, err := json.Marshal(payload)
		if err != nil {
			result.Success = false
			result.Error = err.Error()
			results = append(results, result)

			continue
		}

		if err := g.client.LPush(ctx, g.queue, data).Err(); err != nil {
			g.logger.WarnContext(ctx, "Failed to enqueue notification",
				"recipient", payload.Recipient, "error", err)

			result.Success = false
			result.Error = err.Error()
		}

		results = append(results, result)
	}

	return results
}
