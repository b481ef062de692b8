package repositories

import "storemaster/internal/models"

// StoreRepository defines the interface for store data access.
type StoreRepository interface {
	Create(store *models.Store) error
	GetByID(id string) (*models.Store, error)
	GetByOwner(ownerID string) (*models.Store, error)
	Update(store *models.Store) error
	Delete(id string) error
}
