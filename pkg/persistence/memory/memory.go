// Package memory provides an in-memory persistence implementation used in
// tests and local development.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/covena/covena/pkg/models"
	"github.com/covena/covena/pkg/persistence"
)

// Persistence implements persistence.Persistence backed by a process-local map.
type Persistence struct {
	repo *RequestRepository
}

// NewPersistence creates an empty in-memory store.
func NewPersistence() *Persistence {
	return &Persistence{
		repo: &RequestRepository{
			requests: make(map[string]*models.Request),
		},
	}
}

func (p *Persistence) RequestRepository() persistence.RequestRepository {
	return p.repo
}

func (p *Persistence) HealthCheck(_ context.Context) error {
	return nil
}

func (p *Persistence) Close(_ context.Context) error {
	return nil
}

// RequestRepository stores requests in a mutex-guarded map. Records are
// deep-copied on the way in and out so callers never alias stored state.
type RequestRepository struct {
	mu       sync.RWMutex
	requests map[string]*models.Request
}

func (r *RequestRepository) GetAll(_ context.Context) ([]*models.Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	requests := make([]*models.Request, 0, len(r.requests))
	for _, request := range r.requests {
		requests = append(requests, request.Clone())
	}

	sort.Slice(requests, func(i, j int) bool {
		return requests[i].SubmittedAt.Before(requests[j].SubmittedAt)
	})

	return requests, nil
}

func (r *RequestRepository) GetByID(_ context.Context, id string) (*models.Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	request, ok := r.requests[id]
	if !ok {
		return nil, persistence.NewRequestError("GetByID", id, persistence.ErrRequestNotFound)
	}

	return request.Clone(), nil
}

func (r *RequestRepository) ListByHomeowner(_ context.Context, homeownerID string) ([]*models.Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	requests := make([]*models.Request, 0)

	for _, request := range r.requests {
		if request.HomeownerID == homeownerID {
			requests = append(requests, request.Clone())
		}
	}

	sort.Slice(requests, func(i, j int) bool {
		return requests[i].SubmittedAt.Before(requests[j].SubmittedAt)
	})

	return requests, nil
}

func (r *RequestRepository) Save(_ context.Context, request *models.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.requests[request.ID] = request.Clone()

	return nil
}

func (r *RequestRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.requests[id]; !ok {
		return persistence.NewRequestError("Delete", id, persistence.ErrRequestNotFound)
	}

	delete(r.requests, id)

	return nil
}
