package repositories

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"storemaster/internal/apperror"
	"storemaster/internal/models"
)

// MockProductRepository is an in-memory implementation of ProductRepository.
type MockProductRepository struct {
	products map[string]models.Product
	skus     map[string]string // sku -> product id
	mu       sync.RWMutex
}

// NewMockProductRepository creates a new instance of MockProductRepository.
func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{
		products: make(map[string]models.Product),
		skus:     make(map[string]string),
	}
}

// GetAll returns all products, oldest first.
func (r *MockProductRepository) GetAll() ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	productList := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		productList = append(productList, p.Clone())
	}
	sortProducts(productList)
	return productList, nil
}

// GetByID returns a product by its ID.
func (r *MockProductRepository) GetByID(id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product with ID %s %w", id, apperror.ErrNotFound)
	}
	clone := product.Clone()
	return &clone, nil
}

// GetByStore returns the products of one store, oldest first.
func (r *MockProductRepository) GetByStore(storeID string) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	productList := make([]models.Product, 0)
	for _, p := range r.products {
		if p.StoreID == storeID {
			productList = append(productList, p.Clone())
		}
	}
	sortProducts(productList)
	return productList, nil
}

// Create adds a new product.
func (r *MockProductRepository) Create(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if _, exists := r.products[product.ID]; exists {
		return fmt.Errorf("product with ID %s %w", product.ID, apperror.ErrConflict)
	}
	if err := r.checkSKUs(product); err != nil {
		return err
	}
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now
	product.RecomputeTotalStock()
	r.store(product)
	return nil
}

// Update modifies an existing product.
func (r *MockProductRepository) Update(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.products[product.ID]
	if !ok {
		return fmt.Errorf("product with ID %s %w for update", product.ID, apperror.ErrNotFound)
	}
	if err := r.checkSKUs(product); err != nil {
		return err
	}
	r.release(&existing)
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = time.Now()
	product.RecomputeTotalStock()
	r.store(product)
	return nil
}

// Delete removes a product by its ID.
func (r *MockProductRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return fmt.Errorf("product with ID %s %w for deletion", id, apperror.ErrNotFound)
	}
	r.release(&product)
	delete(r.products, id)
	return nil
}

// SKUExists reports whether any product already holds sku.
func (r *MockProductRepository) SKUExists(sku string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.skus[sku]
	return ok, nil
}

func (r *MockProductRepository) checkSKUs(product *models.Product) error {
	batch := make(map[string]struct{}, len(product.Combinations))
	for _, sku := range product.SKUs() {
		if owner, taken := r.skus[sku]; taken && owner != product.ID {
			return fmt.Errorf("sku %s %w", sku, apperror.ErrConflict)
		}
		if _, dup := batch[sku]; dup {
			return fmt.Errorf("sku %s %w", sku, apperror.ErrConflict)
		}
		batch[sku] = struct{}{}
	}
	return nil
}

func (r *MockProductRepository) store(product *models.Product) {
	r.products[product.ID] = product.Clone()
	for _, sku := range product.SKUs() {
		r.skus[sku] = product.ID
	}
}

func (r *MockProductRepository) release(product *models.Product) {
	for _, sku := range product.SKUs() {
		delete(r.skus, sku)
	}
}

func sortProducts(products []models.Product) {
	sort.SliceStable(products, func(i, j int) bool {
		if products[i].CreatedAt.Equal(products[j].CreatedAt) {
			return products[i].ID < products[j].ID
		}
		return products[i].CreatedAt.Before(products[j].CreatedAt)
	})
}
