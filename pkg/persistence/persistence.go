// Package persistence provides the data storage abstraction for requests.
// The core treats it as a blocking key-value interface and assumes no
// particular storage technology.
package persistence

import (
	"context"

	"github.com/covena/covena/pkg/models"
)

// RequestRepository stores request records. Implementations must return
// snapshots that callers can mutate without corrupting stored state.
type RequestRepository interface {
	GetAll(ctx context.Context) ([]*models.Request, error)
	GetByID(ctx context.Context, id string) (*models.Request, error)
	ListByHomeowner(ctx context.Context, homeownerID string) ([]*models.Request, error)
	Save(ctx context.Context, request *models.Request) error
	Delete(ctx context.Context, id string) error
}

// Persistence is the storage entry point handed to the orchestrator.
type Persistence interface {
	RequestRepository() RequestRepository
	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
