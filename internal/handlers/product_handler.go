package handlers

import (
	"github.com/gofiber/fiber/v2"

	"storemaster/internal/services"
)

// ProductHandler handles HTTP requests for the product catalog.
type ProductHandler struct {
	productService *services.ProductService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(productService *services.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// RegisterRoutes registers the product routes. They expect an authenticated router.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Post("/", h.CreateProduct)
	productRoutes.Get("/", h.GetAllProducts)
	productRoutes.Get("/:id", h.GetProductByID)
	productRoutes.Put("/:id", h.UpdateProduct)
	productRoutes.Delete("/:id", h.DeleteProduct)
	productRoutes.Patch("/:id/combinations/:sku", h.UpdateCombination)

	router.Get("/stores/:storeId/products", h.GetStoreProducts)
}

// GetAllProducts lists every product.
func (h *ProductHandler) GetAllProducts(c *fiber.Ctx) error {
	products, err := h.productService.GetAllProducts()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "products": products})
}

// GetProductByID returns one product.
func (h *ProductHandler) GetProductByID(c *fiber.Ctx) error {
	product, err := h.productService.GetProductByID(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "product": product})
}

// GetStoreProducts lists the products of one store.
func (h *ProductHandler) GetStoreProducts(c *fiber.Ctx) error {
	products, err := h.productService.GetStoreProducts(c.Params("storeId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "products": products})
}

// CreateProduct creates a product in the caller's store.
func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var req services.CreateProductRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	product, err := h.productService.CreateProduct(identity(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Product created successfully",
		"product": product,
	})
}

// UpdateProduct applies a partial update.
func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	var req services.UpdateProductRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	product, err := h.productService.UpdateProduct(identity(c), c.Params("id"), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Product updated successfully",
		"product": product,
	})
}

// UpdateCombination edits one variant combination.
func (h *ProductHandler) UpdateCombination(c *fiber.Ctx) error {
	var req services.UpdateCombinationRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	product, err := h.productService.UpdateCombination(identity(c), c.Params("id"), c.Params("sku"), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Combination updated successfully",
		"product": product,
	})
}

// DeleteProduct deletes a product.
func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	if err := h.productService.DeleteProduct(identity(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Product deleted successfully",
	})
}
