package repositories

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storemaster/internal/apperror"
	"storemaster/internal/models"
)

// GORMStoreRepository is a GORM implementation of StoreRepository.
type GORMStoreRepository struct {
	db *gorm.DB
}

// NewGORMStoreRepository creates a new instance of GORMStoreRepository.
func NewGORMStoreRepository(db *gorm.DB) *GORMStoreRepository {
	return &GORMStoreRepository{db: db}
}

// Create creates a new store. An owner may hold a single store.
func (r *GORMStoreRepository) Create(store *models.Store) error {
	if store.ID == "" {
		store.ID = uuid.New().String()
	}
	if err := r.db.Create(store).Error; err != nil {
		return writeError("create store", err)
	}
	return nil
}

// GetByID retrieves a store by its ID.
func (r *GORMStoreRepository) GetByID(id string) (*models.Store, error) {
	return r.first("id = ?", id, "store with ID %s %w")
}

// GetByOwner retrieves the store owned by ownerID.
func (r *GORMStoreRepository) GetByOwner(ownerID string) (*models.Store, error) {
	return r.first("owner_id = ?", ownerID, "store for owner %s %w")
}

// Update saves every field of an existing store.
func (r *GORMStoreRepository) Update(store *models.Store) error {
	res := r.db.Model(&models.Store{}).Where("id = ?", store.ID).Select("*").Omit("id", "owner_id", "created_at").Updates(store)
	if res.Error != nil {
		return writeError("update store", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("store with ID %s %w for update", store.ID, apperror.ErrNotFound)
	}
	return nil
}

// Delete removes a store by its ID.
func (r *GORMStoreRepository) Delete(id string) error {
	res := r.db.Delete(&models.Store{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete store: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("store with ID %s %w for deletion", id, apperror.ErrNotFound)
	}
	return nil
}

func (r *GORMStoreRepository) first(query, arg, notFound string) (*models.Store, error) {
	var store models.Store
	if err := r.db.First(&store, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf(notFound, arg, apperror.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get store: %w", err)
	}
	return &store, nil
}
