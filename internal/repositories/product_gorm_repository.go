package repositories

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storemaster/internal/apperror"
	"storemaster/internal/models"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// GetAll retrieves all products from the database.
func (r *GORMProductRepository) GetAll() ([]models.Product, error) {
	var products []models.Product
	if err := r.db.Order("created_at").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}
	return products, nil
}

// GetByID retrieves a single product by its ID from the database.
func (r *GORMProductRepository) GetByID(id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with ID %s %w", id, apperror.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// GetByStore retrieves every product of a store.
func (r *GORMProductRepository) GetByStore(storeID string) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.Where("store_id = ?", storeID).Order("created_at").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get products of store %s: %w", storeID, err)
	}
	return products, nil
}

// Create inserts the product and reserves its SKUs in one transaction.
func (r *GORMProductRepository) Create(product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(product).Error; err != nil {
			return err
		}
		return reserveSKUs(tx, product)
	})
	if err != nil {
		return writeError("create product", err)
	}
	return nil
}

// Update replaces the product row and its SKU reservations in one transaction.
func (r *GORMProductRepository) Update(product *models.Product) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Product{}).Where("id = ?", product.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("product with ID %s %w for update", product.ID, apperror.ErrNotFound)
		}
		if err := tx.Save(product).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", product.ID).Delete(&models.ProductSKU{}).Error; err != nil {
			return err
		}
		return reserveSKUs(tx, product)
	})
	if err != nil {
		return writeError("update product", err)
	}
	return nil
}

// Delete deletes a product and releases its SKUs.
func (r *GORMProductRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&models.ProductSKU{}).Error; err != nil {
			return fmt.Errorf("failed to release product SKUs: %w", err)
		}
		res := tx.Delete(&models.Product{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete product: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("product with ID %s %w for deletion", id, apperror.ErrNotFound)
		}
		return nil
	})
}

// SKUExists reports whether any product already holds sku.
func (r *GORMProductRepository) SKUExists(sku string) (bool, error) {
	var count int64
	if err := r.db.Model(&models.ProductSKU{}).Where("sku = ?", sku).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to look up SKU %s: %w", sku, err)
	}
	return count > 0, nil
}

func reserveSKUs(tx *gorm.DB, product *models.Product) error {
	if len(product.Combinations) == 0 {
		return nil
	}
	rows := make([]models.ProductSKU, 0, len(product.Combinations))
	for _, sku := range product.SKUs() {
		rows = append(rows, models.ProductSKU{SKU: sku, ProductID: product.ID})
	}
	return tx.Create(&rows).Error
}

// writeError keeps sentinel errors intact and turns unique-key violations into
// conflicts. The driver message names tables and columns, so it is only logged.
func writeError(op string, err error) error {
	if errors.Is(err, apperror.ErrNotFound) {
		return err
	}
	if isDuplicateKey(err) {
		log.Printf("Unique constraint violated on %s: %v", op, err)
		return fmt.Errorf("failed to %s: %w", op, apperror.ErrConflict)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
