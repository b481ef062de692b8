package repositories

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"storemaster/internal/apperror"
	"storemaster/internal/models"
)

// MockStoreRepository is an in-memory implementation of StoreRepository.
type MockStoreRepository struct {
	stores map[string]models.Store
	mu     sync.RWMutex
}

// NewMockStoreRepository creates a new instance of MockStoreRepository.
func NewMockStoreRepository() *MockStoreRepository {
	return &MockStoreRepository{
		stores: make(map[string]models.Store),
	}
}

// Create adds a new store.
func (r *MockStoreRepository) Create(store *models.Store) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.stores {
		if s.OwnerID == store.OwnerID {
			return fmt.Errorf("store for owner %s %w", store.OwnerID, apperror.ErrConflict)
		}
	}
	if store.ID == "" {
		store.ID = uuid.New().String()
	}
	now := time.Now()
	store.CreatedAt = now
	store.UpdatedAt = now
	r.stores[store.ID] = cloneStore(*store)
	return nil
}

// GetByID returns a store by its ID.
func (r *MockStoreRepository) GetByID(id string) (*models.Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	store, ok := r.stores[id]
	if !ok {
		return nil, fmt.Errorf("store with ID %s %w", id, apperror.ErrNotFound)
	}
	clone := cloneStore(store)
	return &clone, nil
}

// GetByOwner returns the store owned by ownerID.
func (r *MockStoreRepository) GetByOwner(ownerID string) (*models.Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.stores {
		if s.OwnerID == ownerID {
			clone := cloneStore(s)
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("store for owner %s %w", ownerID, apperror.ErrNotFound)
}

// Update modifies an existing store.
func (r *MockStoreRepository) Update(store *models.Store) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.stores[store.ID]
	if !ok {
		return fmt.Errorf("store with ID %s %w for update", store.ID, apperror.ErrNotFound)
	}
	store.OwnerID = existing.OwnerID
	store.CreatedAt = existing.CreatedAt
	store.UpdatedAt = time.Now()
	r.stores[store.ID] = cloneStore(*store)
	return nil
}

// Delete removes a store by its ID.
func (r *MockStoreRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.stores[id]; !ok {
		return fmt.Errorf("store with ID %s %w for deletion", id, apperror.ErrNotFound)
	}
	delete(r.stores, id)
	return nil
}

func cloneStore(s models.Store) models.Store {
	s.Categories = append([]string(nil), s.Categories...)
	return s
}
