// Package mocks provides testify mock implementations of the core interfaces.
package mocks

import (
	"context"

	"github.com/covena/covena/pkg/models"
	"github.com/covena/covena/pkg/persistence"
	"github.com/stretchr/testify/mock"
)

// MockRequestRepository is a mock implementation of persistence.RequestRepository.
type MockRequestRepository struct {
	mock.Mock
}

func (m *MockRequestRepository) GetAll(ctx context.Context) ([]*models.Request, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.Request), args.Error(1)
}

func (m *MockRequestRepository) GetByID(ctx context.Context, id string) (*models.Request, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Request), args.Error(1)
}

func (m *MockRequestRepository) ListByHomeowner(ctx context.Context, homeownerID string) ([]*models.Request, error) {
	args := m.Called(ctx, homeownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.Request), args.Error(1)
}

func (m *MockRequestRepository) Save(ctx context.Context, request *models.Request) error {
	args := m.Called(ctx, request)

	return args.Error(0)
}

func (m *MockRequestRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

// MockPersistence is a mock implementation of persistence.Persistence.
type MockPersistence struct {
	mock.Mock

	requestRepo *MockRequestRepository
}

// NewMockPersistence creates a MockPersistence with its mock repository.
func NewMockPersistence() *MockPersistence {
	return &MockPersistence{
		requestRepo: &MockRequestRepository{},
	}
}

// GetMockRequestRepository returns the underlying mock repository for setting
// up expectations.
func (m *MockPersistence) GetMockRequestRepository() *MockRequestRepository {
	return m.requestRepo
}

func (m *MockPersistence) RequestRepository() persistence.RequestRepository {
	return m.requestRepo
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
