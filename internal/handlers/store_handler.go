package handlers

import (
	"github.com/gofiber/fiber/v2"

	"storemaster/internal/services"
)

// StoreHandler handles HTTP requests for store profiles.
type StoreHandler struct {
	storeService *services.StoreService
}

// NewStoreHandler creates a new StoreHandler.
func NewStoreHandler(storeService *services.StoreService) *StoreHandler {
	return &StoreHandler{storeService: storeService}
}

// RegisterRoutes registers the store routes. They expect an authenticated router.
func (h *StoreHandler) RegisterRoutes(router fiber.Router) {
	storeRoutes := router.Group("/stores")
	storeRoutes.Get("/:id", h.GetStore)
	storeRoutes.Put("/:id", h.UpdateStore)
}

// GetStore returns the caller's store.
func (h *StoreHandler) GetStore(c *fiber.Ctx) error {
	store, err := h.storeService.GetStore(identity(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "store": store})
}

// UpdateStore applies a partial update to the caller's store.
func (h *StoreHandler) UpdateStore(c *fiber.Ctx) error {
	var req services.UpdateStoreRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	store, err := h.storeService.UpdateStore(identity(c), c.Params("id"), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Store updated successfully",
		"store":   store,
	})
}
