package repositories

import (
	"storemaster/internal/models"
)

// ProductRepository defines the interface for product data access.
// Create and Update persist the product and its combination SKUs together;
// a SKU already reserved by another product fails the write with apperror.ErrConflict.
type ProductRepository interface {
	GetAll() ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	GetByStore(storeID string) ([]models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id string) error
	SKUExists(sku string) (bool, error)
}
