package repositories

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"storemaster/internal/models"
)

// MockApplicationRepository is an in-memory implementation of ApplicationRepository.
type MockApplicationRepository struct {
	apps []models.Application
	mu   sync.RWMutex
}

// NewMockApplicationRepository creates a new instance of MockApplicationRepository.
func NewMockApplicationRepository() *MockApplicationRepository {
	return &MockApplicationRepository{}
}

// Create stores a job application.
func (r *MockApplicationRepository) Create(app *models.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if app.ID == "" {
		app.ID = uuid.New().String()
	}
	app.CreatedAt = time.Now()
	r.apps = append(r.apps, *app)
	return nil
}

// GetByStoreOwner lists applications addressed to ownerID, newest first.
func (r *MockApplicationRepository) GetByStoreOwner(ownerID string) ([]models.Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Application, 0)
	for _, a := range r.apps {
		if a.StoreOwnerID == ownerID {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
