package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storemaster/internal/apperror"
	"storemaster/internal/models"
	"storemaster/internal/repositories"
	"storemaster/internal/variants"
	"storemaster/pkg/rabbitmq"
)

// persistAttempts bounds how often a write that lost a SKU race is retried
// with freshly generated SKUs.
const persistAttempts = 3

// AxisNames are the variant axis names a product may use.
var AxisNames = []string{"Color", "Size", "Material", "Style", "Custom"}

// CreateProductRequest is the body of a product creation.
type CreateProductRequest struct {
	Title       string               `json:"title" validate:"required,max=200"`
	Description string               `json:"description" validate:"max=5000"`
	Category    string               `json:"category" validate:"required,max=100"`
	Price       decimal.Decimal      `json:"price"`
	Images      []string             `json:"images" validate:"required,min=1,dive,required"`
	Status      models.ProductStatus `json:"status" validate:"omitempty,oneof=Active Draft Hidden"`
	Variants    []variants.Axis      `json:"variants"`
}

// UpdateProductRequest is a partial product update. Nil fields are left as
// they are. A nil Variants keeps the combinations, an empty list clears them
// and a non-empty list regenerates them with zero stock.
type UpdateProductRequest struct {
	Title       *string               `json:"title" validate:"omitempty,max=200"`
	Description *string               `json:"description" validate:"omitempty,max=5000"`
	Category    *string               `json:"category" validate:"omitempty,max=100"`
	Price       *decimal.Decimal      `json:"price"`
	Images      *[]string             `json:"images" validate:"omitempty,dive,required"`
	Status      *models.ProductStatus `json:"status" validate:"omitempty,oneof=Active Draft Hidden"`
	Variants    *[]variants.Axis      `json:"variants"`
}

// UpdateCombinationRequest edits one variant combination.
type UpdateCombinationRequest struct {
	Price *decimal.Decimal `json:"price"`
	Stock *int             `json:"stock" validate:"omitempty,min=0"`
	Image *string          `json:"image"`
}

// ProductService handles business logic related to products.
type ProductService struct {
	productRepo    repositories.ProductRepository
	storeRepo      repositories.StoreRepository
	events         EventPublisher
	validate       *validator.Validate
	skuMaxAttempts int
	now            func() time.Time
}

// NewProductService creates a new ProductService. events may be nil.
func NewProductService(productRepo repositories.ProductRepository, storeRepo repositories.StoreRepository, events EventPublisher, skuMaxAttempts int) *ProductService {
	if skuMaxAttempts < 1 {
		skuMaxAttempts = 1
	}
	return &ProductService{
		productRepo:    productRepo,
		storeRepo:      storeRepo,
		events:         events,
		validate:       validator.New(),
		skuMaxAttempts: skuMaxAttempts,
		now:            time.Now,
	}
}

// GetAllProducts retrieves all products.
func (s *ProductService) GetAllProducts() ([]models.Product, error) {
	return s.productRepo.GetAll()
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(id string) (*models.Product, error) {
	return s.productRepo.GetByID(id)
}

// GetStoreProducts lists the products of a store. An unknown store is
// NotFound; a store without products yields an empty list.
func (s *ProductService) GetStoreProducts(storeID string) ([]models.Product, error) {
	if _, err := s.storeRepo.GetByID(storeID); err != nil {
		return nil, err
	}
	return s.productRepo.GetByStore(storeID)
}

// CreateProduct creates a product in the caller's store.
func (s *ProductService) CreateProduct(identity Identity, req CreateProductRequest) (*models.Product, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperror.FromValidator(err)
	}
	if !req.Price.IsPositive() {
		return nil, apperror.FieldErrors{"Price": "Field 'Price' must be greater than 0"}
	}
	if err := validateAxes(req.Variants); err != nil {
		return nil, err
	}

	store, err := s.storeRepo.GetByOwner(identity.ID)
	if err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = models.ProductActive
	}
	product := &models.Product{
		ID:           uuid.New().String(),
		StoreID:      store.ID,
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		Category:     req.Category,
		Price:        req.Price,
		Images:       req.Images,
		Status:       status,
		Variants:     copyAxes(req.Variants),
		Combinations: []models.VariantCombination{},
	}

	err = s.persist(product, len(product.Variants) > 0, s.productRepo.Create)
	if err != nil {
		return nil, err
	}

	log.Printf("Product %s created in store %s with %d combinations", product.ID, store.ID, len(product.Combinations))
	s.publish(rabbitmq.ProductCreated, product)
	return product, nil
}

// UpdateProduct applies a partial update to a product owned by the caller.
func (s *ProductService) UpdateProduct(identity Identity, id string, req UpdateProductRequest) (*models.Product, error) {
	if err := s.checkUpdate(req); err != nil {
		return nil, err
	}

	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(identity, product); err != nil {
		return nil, err
	}

	if req.Title != nil {
		product.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Category != nil {
		product.Category = *req.Category
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.Images != nil {
		product.Images = append([]string(nil), (*req.Images)...)
	}
	if req.Status != nil {
		product.Status = *req.Status
	}

	regenerate := false
	if req.Variants != nil {
		product.Variants = copyAxes(*req.Variants)
		product.Combinations = []models.VariantCombination{}
		regenerate = len(product.Variants) > 0
	}

	if err := s.persist(product, regenerate, s.productRepo.Update); err != nil {
		return nil, err
	}

	s.publish(rabbitmq.ProductUpdated, product)
	return product, nil
}

// UpdateCombination edits the price, stock or image of one combination.
func (s *ProductService) UpdateCombination(identity Identity, productID, sku string, req UpdateCombinationRequest) (*models.Product, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperror.FromValidator(err)
	}
	if req.Price == nil && req.Stock == nil && req.Image == nil {
		return nil, apperror.Validation("at least one of price, stock or image is required")
	}
	if req.Price != nil && !req.Price.IsPositive() {
		return nil, apperror.FieldErrors{"Price": "Field 'Price' must be greater than 0"}
	}

	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(identity, product); err != nil {
		return nil, err
	}

	idx := -1
	for i := range product.Combinations {
		if product.Combinations[i].SKU == sku {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("combination with SKU %s %w", sku, apperror.ErrNotFound)
	}

	combo := &product.Combinations[idx]
	if req.Price != nil {
		combo.Price = *req.Price
	}
	if req.Stock != nil {
		combo.Stock = *req.Stock
	}
	if req.Image != nil {
		image := *req.Image
		combo.Image = &image
	}

	product.RecomputeTotalStock()
	if err := s.productRepo.Update(product); err != nil {
		return nil, err
	}

	s.publish(rabbitmq.ProductUpdated, product)
	return product, nil
}

// DeleteProduct deletes a product owned by the caller.
func (s *ProductService) DeleteProduct(identity Identity, id string) error {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return err
	}
	if err := s.authorize(identity, product); err != nil {
		return err
	}
	if err := s.productRepo.Delete(id); err != nil {
		return err
	}

	log.Printf("Product %s deleted from store %s", id, product.StoreID)
	publishEvent(s.events, rabbitmq.ProductDeleted, map[string]any{
		"productId": id,
		"storeId":   product.StoreID,
	})
	return nil
}

func (s *ProductService) authorize(identity Identity, product *models.Product) error {
	store, err := s.storeRepo.GetByID(product.StoreID)
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return err
	}
	if !OwnsStore(identity, store) {
		return fmt.Errorf("product %s belongs to another store: %w", product.ID, apperror.ErrForbidden)
	}
	return nil
}

func (s *ProductService) checkUpdate(req UpdateProductRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return apperror.FromValidator(err)
	}
	fields := apperror.FieldErrors{}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		fields["Title"] = "Field 'Title' failed on the 'required' tag"
	}
	if req.Category != nil && strings.TrimSpace(*req.Category) == "" {
		fields["Category"] = "Field 'Category' failed on the 'required' tag"
	}
	if req.Images != nil && len(*req.Images) == 0 {
		fields["Images"] = "Field 'Images' failed on the 'min' tag"
	}
	if req.Price != nil && !req.Price.IsPositive() {
		fields["Price"] = "Field 'Price' must be greater than 0"
	}
	if len(fields) > 0 {
		return fields
	}
	if req.Variants != nil {
		return validateAxes(*req.Variants)
	}
	return nil
}

// persist writes the product, regenerating combinations first when asked.
// A conflict from the write means another product took one of the SKUs in
// the meantime; the combinations are then regenerated and the write retried.
func (s *ProductService) persist(product *models.Product, regenerate bool, write func(*models.Product) error) error {
	var err error
	for attempt := 0; attempt < persistAttempts; attempt++ {
		if regenerate {
			combos, genErr := s.buildCombinations(product)
			if genErr != nil {
				return genErr
			}
			product.Combinations = combos
		}
		product.RecomputeTotalStock()

		err = write(product)
		if err == nil || !regenerate || !errors.Is(err, apperror.ErrConflict) {
			return err
		}
		log.Printf("SKU conflict writing product %s (attempt %d): %v", product.ID, attempt+1, err)
	}
	return err
}

// buildCombinations expands the product's axes into combinations priced at
// the product price, with zero stock, no image and a unique SKU each.
func (s *ProductService) buildCombinations(product *models.Product) ([]models.VariantCombination, error) {
	attrs := variants.Combine(product.Variants)
	combos := make([]models.VariantCombination, 0, len(attrs))
	batch := make(map[string]struct{}, len(attrs))
	for i, a := range attrs {
		sku, err := s.uniqueSKU(product.Title, product.StoreID, i, batch)
		if err != nil {
			return nil, err
		}
		combos = append(combos, models.VariantCombination{
			Attributes: a,
			Price:      product.Price,
			Stock:      0,
			SKU:        sku,
		})
	}
	return combos, nil
}

func (s *ProductService) uniqueSKU(title, storeID string, index int, batch map[string]struct{}) (string, error) {
	ts := s.now()
	for attempt := 0; attempt < s.skuMaxAttempts; attempt++ {
		sku := variants.BuildSKU(title, storeID, index, ts)
		if _, taken := batch[sku]; !taken {
			exists, err := s.productRepo.SKUExists(sku)
			if err != nil {
				return "", err
			}
			if !exists {
				batch[sku] = struct{}{}
				return sku, nil
			}
		}
		// SKUs carry millisecond timestamps, so the next candidate must be in a later millisecond.
		next := s.now()
		if next.UnixMilli() <= ts.UnixMilli() {
			next = ts.Truncate(time.Millisecond).Add(time.Millisecond)
		}
		ts = next
	}
	return "", fmt.Errorf("no unique SKU for combination %d after %d attempts: %w", index, s.skuMaxAttempts, apperror.ErrConflict)
}

func (s *ProductService) publish(eventType string, product *models.Product) {
	publishEvent(s.events, eventType, map[string]any{
		"productId":    product.ID,
		"storeId":      product.StoreID,
		"title":        product.Title,
		"totalStock":   product.TotalStock,
		"combinations": len(product.Combinations),
	})
}

func validateAxes(axes []variants.Axis) error {
	if err := variants.Validate(axes); err != nil {
		return err
	}
	for _, axis := range axes {
		if !isAxisName(strings.TrimSpace(axis.Name)) {
			return apperror.Validation("variant %q must be one of %s", axis.Name, strings.Join(AxisNames, ", "))
		}
	}
	return nil
}

func isAxisName(name string) bool {
	for _, n := range AxisNames {
		if n == name {
			return true
		}
	}
	return false
}

func copyAxes(axes []variants.Axis) []variants.Axis {
	out := make([]variants.Axis, len(axes))
	for i, axis := range axes {
		values := make([]string, len(axis.Values))
		copy(values, axis.Values)
		out[i] = variants.Axis{Name: strings.TrimSpace(axis.Name), Values: values}
	}
	return out
}
