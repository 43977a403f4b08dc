package mocks

import (
	"context"

	"github.com/covena/covena/pkg/notification"
	"github.com/stretchr/testify/mock"
)

// MockGateway is a mock implementation of notification.Gateway.
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Deliver(ctx context.Context, payloads []notification.Payload) []notification.DeliveryResult {
	args := m.Called(ctx, payloads)
	if args.Get(0) == nil {
		return nil
	}

	return args.Get(0).([]notification.DeliveryResult)
}
