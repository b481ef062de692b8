package services_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storemaster/internal/apperror"
	"storemaster/internal/models"
	"storemaster/internal/services"
	"storemaster/internal/variants"
)

var (
	owner    = services.Identity{ID: "owner-1", Role: models.RoleStoreOwner}
	stranger = services.Identity{ID: "owner-2", Role: models.RoleStoreOwner}
	store1   = &models.Store{ID: "store-1", OwnerID: "owner-1"}
)

func newProductService(productRepo *MockProductRepository, storeRepo *MockStoreRepository, pub services.EventPublisher) *services.ProductService {
	return services.NewProductService(productRepo, storeRepo, pub, 3)
}

func shirtRequest() services.CreateProductRequest {
	return services.CreateProductRequest{
		Title:    "Summer Linen Shirt",
		Category: "Fashion",
		Price:    decimal.RequireFromString("29.90"),
		Images:   []string{"https://cdn.example.com/shirt.png"},
		Variants: []variants.Axis{
			{Name: "Color", Values: []string{"Red", "Blue"}},
			{Name: "Size", Values: []string{"S", "M"}},
		},
	}
}

func storedProduct() *models.Product {
	return &models.Product{
		ID:       "prod-1",
		StoreID:  "store-1",
		Title:    "Summer Linen Shirt",
		Category: "Fashion",
		Price:    decimal.RequireFromString("29.90"),
		Images:   []string{"https://cdn.example.com/shirt.png"},
		Status:   models.ProductActive,
		Variants: []variants.Axis{{Name: "Color", Values: []string{"Red", "Blue"}}},
		Combinations: []models.VariantCombination{
			{Attributes: variants.Attributes{"Color": "Red"}, Price: decimal.RequireFromString("29.90"), Stock: 4, SKU: "sku-red"},
			{Attributes: variants.Attributes{"Color": "Blue"}, Price: decimal.RequireFromString("29.90"), Stock: 6, SKU: "sku-blue"},
		},
		TotalStock: 10,
	}
}

func TestProductService_GetAllProducts(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := newProductService(mockRepo, new(MockStoreRepository), nil)

	expectedProducts := []models.Product{{ID: "1", Title: "Product A"}, {ID: "2", Title: "Product B"}}
	mockRepo.On("GetAll").Return(expectedProducts, nil).Once()

	products, err := service.GetAllProducts()

	assert.NoError(t, err)
	assert.Len(t, products, 2)
	assert.Equal(t, expectedProducts, products)
	mockRepo.AssertExpectations(t)
}

func TestProductService_GetProductByID(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := newProductService(mockRepo, new(MockStoreRepository), nil)

	expectedProduct := storedProduct()

	// Test successful retrieval
	mockRepo.On("GetByID", "prod-1").Return(expectedProduct, nil).Once()
	product, err := service.GetProductByID("prod-1")
	assert.NoError(t, err)
	assert.Equal(t, expectedProduct, product)

	// Test product not found
	mockRepo.On("GetByID", "99").Return(nil, fmt.Errorf("product with ID 99 %w", apperror.ErrNotFound)).Once()
	product, err = service.GetProductByID("99")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Nil(t, product)
	mockRepo.AssertExpectations(t)
}

func TestProductService_GetStoreProducts(t *testing.T) {
	productRepo := new(MockProductRepository)
	storeRepo := new(MockStoreRepository)
	service := newProductService(productRepo, storeRepo, nil)

	// Unknown store
	storeRepo.On("GetByID", "missing").Return(nil, fmt.Errorf("store with ID missing %w", apperror.ErrNotFound)).Once()
	_, err := service.GetStoreProducts("missing")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	productRepo.AssertNotCalled(t, "GetByStore", "missing")

	// Known store without products
	storeRepo.On("GetByID", "store-1").Return(store1, nil).Once()
	productRepo.On("GetByStore", "store-1").Return([]models.Product{}, nil).Once()
	products, err := service.GetStoreProducts("store-1")
	assert.NoError(t, err)
	assert.Empty(t, products)

	productRepo.AssertExpectations(t)
	storeRepo.AssertExpectations(t)
}

func TestProductService_CreateProduct_GeneratesCombinations(t *testing.T) {
	productRepo := new(MockProductRepository)
	storeRepo := new(MockStoreRepository)
	pub := new(MockPublisher)
	service := newProductService(productRepo, storeRepo, pub)

	storeRepo.On("GetByOwner", "owner-1").Return(store1, nil).Once()
	productRepo.On("SKUExists", mock.AnythingOfType("string")).Return(false, nil).Times(4)
	productRepo.On("Create", mock.AnythingOfType("*models.Product")).Return(nil).Once()
	pub.On("Publish", "product.created", mock.Anything).Return(nil).Once()

	product, err := service.CreateProduct(owner, shirtRequest())
	require.NoError(t, err)

	assert.Equal(t, "store-1", product.StoreID)
	assert.Equal(t, models.ProductActive, product.Status)
	require.Len(t, product.Combinations, 4)

	expected := []variants.Attributes{
		{"Color": "Red", "Size": "S"},
		{"Color": "Red", "Size": "M"},
		{"Color": "Blue", "Size": "S"},
		{"Color": "Blue", "Size": "M"},
	}
	skus := make(map[string]struct{})
	for i, combo := range product.Combinations {
		assert.Equal(t, expected[i], combo.Attributes)
		assert.True(t, combo.Price.Equal(product.Price))
		assert.Equal(t, 0, combo.Stock)
		assert.Nil(t, combo.Image)
		assert.True(t, strings.HasPrefix(combo.SKU, fmt.Sprintf("summer-linen-shirt-store-1-%d-", i)), combo.SKU)
		skus[combo.SKU] = struct{}{}
	}
	assert.Len(t, skus, 4)
	assert.Equal(t, 0, product.TotalStock)

	productRepo.AssertExpectations(t)
	storeRepo.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestProductService_CreateProduct_WithoutVariants(t *testing.T) {
	productRepo := new(MockProductRepository)
	storeRepo := new(MockStoreRepository)
	service := newProductService(productRepo, storeRepo, nil)

	req := shirtRequest()
	req.Variants = nil
	req.Status = models.ProductDraft

	storeRepo.On("GetByOwner", "owner-1").Return(store1, nil).Once()
	productRepo.On("Create", mock.AnythingOfType("*models.Product")).Return(nil).Once()

	product, err := service.CreateProduct(owner, req)
	require.NoError(t, err)
	assert.Empty(t, product.Combinations)
	assert.Equal(t, models.ProductDraft, product.Status)
	productRepo.AssertNotCalled(t, "SKUExists", mock.Anything)
	productRepo.AssertExpectations(t)
}

func TestProductService_CreateProduct_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*services.CreateProductRequest)
	}{
		{"missing title", func(r *services.CreateProductRequest) { r.Title = "" }},
		{"missing category", func(r *services.CreateProductRequest) { r.Category = "" }},
		{"zero price", func(r *services.CreateProductRequest) { r.Price = decimal.Zero }},
		{"no images", func(r *services.CreateProductRequest) { r.Images = nil }},
		{"bad status", func(r *services.CreateProductRequest) { r.Status = "Archived" }},
		{"axis without values", func(r *services.CreateProductRequest) { r.Variants[1].Values = nil }},
		{"axis without name", func(r *services.CreateProductRequest) { r.Variants[0].Name = " " }},
		{"unknown axis", func(r *services.CreateProductRequest) { r.Variants[0].Name = "Flavour" }},
		{"repeated axis", func(r *services.CreateProductRequest) { r.Variants[1].Name = "Color" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			productRepo := new(MockProductRepository)
			storeRepo := new(MockStoreRepository)
			service := newProductService(productRepo, storeRepo, nil)

			req := shirtRequest()
			tt.mutate(&req)
			_, err := service.CreateProduct(owner, req)

			assert.ErrorIs(t, err, apperror.ErrValidation)
			storeRepo.AssertNotCalled(t, "GetByOwner", mock.Anything)
			productRepo.AssertNotCalled(t, "Create", mock.Anything)
		})
	}
}

func TestProductService_CreateProduct_NoStore(t *testing.T) {
	productRepo := new(MockProductRepository)
	storeRepo := new(MockStoreRepository)
	service := newProductService(productRepo, storeRepo, nil)

	storeRepo.On("GetByOwner", "owner-1").Return(nil, fmt.Errorf("store for owner owner-1 %w", apperror.ErrNotFound)).Once()

	_, err := service.CreateProduct(owner, shirtRequest())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	productRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestProductService_CreateProduct_RegeneratesCollidingSKU(t *testing.T) {
	productRepo := new(MockProductRepository)
	storeRepo := new(MockStoreRepository)
	service := newProductService(productRepo, storeRepo, nil)

	req := shirtRequest()
	req.Variants = []variants.Axis{{Name: "Color", Values: []string{"Red"}}}

	var first string
	storeRepo.On("GetByOwner", "owner-1").Return(store1, nil).Once()
	productRepo.On("SKUExists", mock.AnythingOfType("string")).Run(func(args mock.Arguments) {
		first = args.String(0)
	}).Return(true, nil).Once()
	productRepo.On("SKUExists", mock.AnythingOfType("string")).Return(false, nil).Once()
	productRepo.On("Create", mock.AnythingOfType("*models.Product")).Return(nil).Once()

	product, err := service.CreateProduct(owner, req)
	require.NoError(t, err)
	require.Len(t, product.Combinations, 1)
	assert.NotEqual(t, first, product.Combinations[0].SKU)
	productRepo.AssertExpectations(t)
}

func TestProductService_CreateProduct_SKURetryIsBounded(t *testing.T) {
	productRepo := new(MockProductRepository)
	storeRepo := new(MockStoreRepository)
	service := newProductService(productRepo, storeRepo, nil)

	storeRepo.On("GetByOwner", "owner-1").Return(store1, nil).Once()
	productRepo.On("SKUExists", mock.AnythingOfType("string")).Return(true, nil)

	_, err := service.CreateProduct(owner, shirtRequest())

	assert.ErrorIs(t, err, apperror.ErrConflict)
	productRepo.AssertNumberOfCalls(t, "SKUExists", 3)
	productRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestProductService_CreateProduct_RetriesLostSKURace(t *testing.T) {
	productRepo := new(MockProductRepository)
	storeRepo := new(MockStoreRepository)
	service := newProductService(productRepo, storeRepo, nil)

	storeRepo.On("GetByOwner", "owner-1").Return(store1, nil).Once()
	productRepo.On("SKUExists", mock.AnythingOfType("string")).Return(false, nil)
	productRepo.On("Create", mock.AnythingOfType("*models.Product")).
		Return(fmt.Errorf("failed to create product: %w", apperror.ErrConflict)).Once()
	productRepo.On("Create", mock.AnythingOfType("*models.Product")).Return(nil).Once()

	product, err := service.CreateProduct(owner, shirtRequest())
	require.NoError(t, err)
	assert.Len(t, product.Combinations, 4)
	productRepo.AssertNumberOfCalls(t, "SKUExists", 8)
	productRepo.AssertNumberOfCalls(t, "Create", 2)
}

func TestProductService_UpdateProduct_Forbidden(t *testing.T) {
	productRepo := new(MockProductRepository)
	storeRepo := new(MockStoreRepository)
	service := newProductService(productRepo, storeRepo, nil)

	title := "Stolen"
	productRepo.On("GetByID", "prod-1").Return(storedProduct(), nil).Once()
	storeRepo.On("GetByID", "store-1").Return(store1, nil).Once()

	_, err := service.UpdateProduct(stranger, "prod-1", services.UpdateProductRequest{Title: &title})

	assert.ErrorIs(t, err, apperror.ErrForbidden)
	productRepo.AssertNotCalled(t, "Update", mock.Anything)
}

func TestProductService_UpdateProduct_PartialKeepsCombinations(t *testing.T) {
	productRepo := new(MockProductRepository)
	storeRepo := new(MockStoreRepository)
	pub := new(MockPublisher)
	service := newProductService(productRepo, storeRepo, pub)

	price := decimal.RequireFromString("35.00")
	productRepo.On("GetByID", "prod-1").Return(storedProduct(), nil).Once()
	storeRepo.On("GetByID", "store-1").Return(store1, nil).Once()
	productRepo.On("Update", mock.AnythingOfType("*models.Product")).Return(nil).Once()
	pub.On("Publish", "product.updated", mock.Anything).Return(nil).Once()

	product, err := service.UpdateProduct(owner, "prod-1", services.UpdateProductRequest{Price: &price})
	require.NoError(t, err)

	assert.True(t, product.Price.Equal(price))
	assert.Equal(t, "Summer Linen Shirt", product.Title)
	assert.Equal(t, []string{"sku-red", "sku-blue"}, product.SKUs())
	assert.Equal(t, 10, product.TotalStock)
	productRepo.AssertNotCalled(t, "SKUExists", mock.Anything)
	productRepo.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestProductService_UpdateProduct_EmptyVariantsClearCombinations(t *testing.T) {
	productRepo := new(MockProductRepository)
	storeRepo := new(MockStoreRepository)
	service := newProductService(productRepo, storeRepo, nil)

	productRepo.On("GetByID", "prod-1").Return(storedProduct(), nil).Once()
	storeRepo.On("GetByID", "store-1").Return(store1, nil).Once()
	productRepo.On("Update", mock.AnythingOfType("*models.Product")).Return(nil).Once()

	empty := []variants.Axis{}
	product, err := service.UpdateProduct(owner, "prod-1", services.UpdateProductRequest{Variants: &empty})
	require.NoError(t, err)

	assert.Empty(t, product.Variants)
	assert.Empty(t, product.Combinations)
	assert.Equal(t, 0, product.TotalStock)
	productRepo.AssertNotCalled(t, "SKUExists", mock.Anything)
}

func TestProductService_UpdateProduct_NewVariantsRegenerate(t *testing.T) {
	productRepo := new(MockProductRepository)
	storeRepo := new(MockStoreRepository)
	service := newProductService(productRepo, storeRepo, nil)

	productRepo.On("GetByID", "prod-1").Return(storedProduct(), nil).Once()
	storeRepo.On("GetByID", "store-1").Return(store1, nil).Once()
	productRepo.On("SKUExists", mock.AnythingOfType("string")).Return(false, nil).Times(3)
	productRepo.On("Update", mock.AnythingOfType("*models.Product")).Return(nil).Once()

	axes := []variants.Axis{{Name: "Size", Values: []string{"S", "M", "L"}}}
	product, err := service.UpdateProduct(owner, "prod-1", services.UpdateProductRequest{Variants: &axes})
	require.NoError(t, err)

	require.Len(t, product.Combinations, 3)
	for _, combo := range product.Combinations {
		assert.Equal(t, 0, combo.Stock)
		assert.NotContains(t, []string{"sku-red", "sku-blue"}, combo.SKU)
	}
	assert.Equal(t, 0, product.TotalStock)
	productRepo.AssertExpectations(t)
}

func TestProductService_UpdateProduct_Validation(t *testing.T) {
	productRepo := new(MockProductRepository)
	service := newProductService(productRepo, new(MockStoreRepository), nil)

	blank := "  "
	noImages := []string{}
	for _, req := range []services.UpdateProductRequest{
		{Title: &blank},
		{Images: &noImages},
		{Variants: &[]variants.Axis{{Name: "Color"}}},
	} {
		_, err := service.UpdateProduct(owner, "prod-1", req)
		assert.ErrorIs(t, err, apperror.ErrValidation)
	}
	productRepo.AssertNotCalled(t, "GetByID", mock.Anything)
}

func TestProductService_UpdateCombination(t *testing.T) {
	productRepo := new(MockProductRepository)
	storeRepo := new(MockStoreRepository)
	service := newProductService(productRepo, storeRepo, nil)

	productRepo.On("GetByID", "prod-1").Return(storedProduct(), nil).Once()
	storeRepo.On("GetByID", "store-1").Return(store1, nil).Once()
	productRepo.On("Update", mock.AnythingOfType("*models.Product")).Return(nil).Once()

	stock := 15
	image := "https://cdn.example.com/blue.png"
	product, err := service.UpdateCombination(owner, "prod-1", "sku-blue", services.UpdateCombinationRequest{Stock: &stock, Image: &image})
	require.NoError(t, err)

	assert.Equal(t, 15, product.Combinations[1].Stock)
	assert.Equal(t, image, *product.Combinations[1].Image)
	assert.Equal(t, 19, product.TotalStock)
	productRepo.AssertExpectations(t)
}

func TestProductService_UpdateCombination_Errors(t *testing.T) {
	productRepo := new(MockProductRepository)
	storeRepo := new(MockStoreRepository)
	service := newProductService(productRepo, storeRepo, nil)

	negative := -1
	_, err := service.UpdateCombination(owner, "prod-1", "sku-red", services.UpdateCombinationRequest{Stock: &negative})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = service.UpdateCombination(owner, "prod-1", "sku-red", services.UpdateCombinationRequest{})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	stock := 1
	productRepo.On("GetByID", "prod-1").Return(storedProduct(), nil).Once()
	storeRepo.On("GetByID", "store-1").Return(store1, nil).Once()
	_, err = service.UpdateCombination(owner, "prod-1", "sku-green", services.UpdateCombinationRequest{Stock: &stock})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	productRepo.AssertNotCalled(t, "Update", mock.Anything)
}

func TestProductService_DeleteProduct(t *testing.T) {
	productRepo := new(MockProductRepository)
	storeRepo := new(MockStoreRepository)
	pub := new(MockPublisher)
	service := newProductService(productRepo, storeRepo, pub)

	// Non-owner is rejected before anything is deleted
	productRepo.On("GetByID", "prod-1").Return(storedProduct(), nil).Twice()
	storeRepo.On("GetByID", "store-1").Return(store1, nil).Twice()
	err := service.DeleteProduct(stranger, "prod-1")
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	productRepo.AssertNotCalled(t, "Delete", "prod-1")

	// Owner deletes
	productRepo.On("Delete", "prod-1").Return(nil).Once()
	pub.On("Publish", "product.deleted", mock.Anything).Return(nil).Once()
	err = service.DeleteProduct(owner, "prod-1")
	assert.NoError(t, err)

	productRepo.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestProductService_PublishFailureDoesNotFailWrite(t *testing.T) {
	productRepo := new(MockProductRepository)
	storeRepo := new(MockStoreRepository)
	pub := new(MockPublisher)
	service := newProductService(productRepo, storeRepo, pub)

	productRepo.On("GetByID", "prod-1").Return(storedProduct(), nil).Once()
	storeRepo.On("GetByID", "store-1").Return(store1, nil).Once()
	productRepo.On("Delete", "prod-1").Return(nil).Once()
	pub.On("Publish", "product.deleted", mock.Anything).Return(fmt.Errorf("channel closed")).Once()

	assert.NoError(t, service.DeleteProduct(owner, "prod-1"))
	pub.AssertExpectations(t)
}
