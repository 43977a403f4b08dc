// Package notification maps request lifecycle events to addressed
// notification payloads and hands them to a delivery gateway. The gateway is
// the boundary to the real sender; the core only shapes payloads and records
// per-recipient results.
package notification

import (
	"errors"
	"fmt"
)

// Channel is the delivery medium for a payload.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Payload is one addressed notification ready for the delivery gateway.
type Payload struct {
	Recipient  string         `json:"recipient"`
	Channel    Channel        `json:"channel"`
	TemplateID string         `json:"template_id"`
	Data       map[string]any `json:"data,omitempty"`
}

// DeliveryResult reports the gateway outcome for a single recipient.
type DeliveryResult struct {
	Recipient string `json:"recipient"`
	Channel   Channel `json:"channel"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

// ErrDeliveryFailed is the sentinel wrapped by DispatchError.
var ErrDeliveryFailed = errors.New("notification delivery failed")

// DispatchError reports that one or more recipients could not be reached.
// It is logged and surfaced as a warning, never as a failure of the
// operation that triggered the notification.
type DispatchError struct {
	Failed int
	Total  int
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("delivery failed for %d of %d recipients", e.Failed, e.Total)
}

func (e *DispatchError) Unwrap() error {
	return ErrDeliveryFailed
}

// IsDispatchError checks if an error came from notification delivery.
func IsDispatchError(err error) bool {
	return errors.Is(err, ErrDeliveryFailed)
}
