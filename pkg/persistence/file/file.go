// Package file provides file-based persistence, storing each request as a
// JSON document under a root directory.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/covena/covena/pkg/models"
	"github.com/covena/covena/pkg/persistence"
)

const requestsDir = "requests"

// Persistence implements the persistence.Persistence interface on the file system.
type Persistence struct {
	root string
	repo *RequestRepository
}

// NewPersistence creates a file persistence rooted at the given directory.
// A "file://" prefix on the path is stripped.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root: cleanRoot,
		repo: NewRequestRepository(cleanRoot),
	}
}

func (p *Persistence) RequestRepository() persistence.RequestRepository {
	return p.repo
}

// HealthCheck verifies the root directory exists.
func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close performs any necessary cleanup. For file persistence there is nothing
// to clean up.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}

// RequestRepository handles request-related file operations. A single mutex
// serializes writes; the orchestrator additionally serializes per request id.
type RequestRepository struct {
	root string
	mu   sync.RWMutex
}

// NewRequestRepository creates a repository rooted at the given directory.
func NewRequestRepository(root string) *RequestRepository {
	return &RequestRepository{root: root}
}

func (r *RequestRepository) dir() string {
	return filepath.Join(r.root, requestsDir)
}

func (r *RequestRepository) path(id string) string {
	return filepath.Join(r.dir(), id+".json")
}

func (r *RequestRepository) GetAll(_ context.Context) ([]*models.Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.readAll()
}

func (r *RequestRepository) readAll() ([]*models.Request, error) {
	root := os.DirFS(r.dir())

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list request files: %w", err)
	}

	requests := make([]*models.Request, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		id := strings.TrimSuffix(file, ".json")

		request, err := r.read(id)
		if err != nil {
			return nil, fmt.Errorf("failed to load request %s: %w", id, err)
		}

		requests = append(requests, request)
	}

	sort.Slice(requests, func(i, j int) bool {
		return requests[i].SubmittedAt.Before(requests[j].SubmittedAt)
	})

	return requests, nil
}

func (r *RequestRepository) GetByID(_ context.Context, id string) (*models.Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.read(id)
}

func (r *RequestRepository) read(id string) (*models.Request, error) {
	data, err := os.ReadFile(r.path(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, persistence.NewRequestError("GetByID", id, persistence.ErrRequestNotFound)
		}

		return nil, persistence.NewRequestError("GetByID", id, err)
	}

	var request models.Request
	if err := json.Unmarshal(data, &request); err != nil {
		return nil, persistence.NewRequestError("GetByID", id, err)
	}

	return &request, nil
}

func (r *RequestRepository) ListByHomeowner(_ context.Context, homeownerID string) ([]*models.Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all, err := r.readAll()
	if err != nil {
		return nil, err
	}

	requests := make([]*models.Request, 0)

	for _, request := range all {
		if request.HomeownerID == homeownerID {
			requests = append(requests, request)
		}
	}

	return requests, nil
}

func (r *RequestRepository) Save(_ context.Context, request *models.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(r.dir(), 0o755); err != nil {
		return persistence.NewRequestError("Save", request.ID, err)
	}

	data, err := json.MarshalIndent(request, "", "  ")
	if err != nil {
		return persistence.NewRequestError("Save", request.ID, err)
	}

	// Write to a temporary file and rename so a failed write never leaves a
	// half-written record behind.
	tmp := r.path(request.ID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return persistence.NewRequestError("Save", request.ID, err)
	}

	if err := os.Rename(tmp, r.path(request.ID)); err != nil {
		return persistence.NewRequestError("Save", request.ID, err)
	}

	return nil
}

func (r *RequestRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.Remove(r.path(id)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return persistence.NewRequestError("Delete", id, persistence.ErrRequestNotFound)
		}

		return persistence.NewRequestError("Delete", id, err)
	}

	return nil
}
