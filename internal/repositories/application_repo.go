package repositories

import "storemaster/internal/models"

// ApplicationRepository defines the interface for job application data access.
type ApplicationRepository interface {
	Create(app *models.Application) error
	GetByStoreOwner(ownerID string) ([]models.Application, error)
}
