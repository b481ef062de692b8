package handlers

import (
	"github.com/gofiber/fiber/v2"

	"storemaster/internal/apperror"
	"storemaster/internal/middleware"
	"storemaster/internal/models"
	"storemaster/internal/services"
)

// UserHandler serves the signed-in user's account.
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// RegisterRoutes registers the account routes. They expect an authenticated router.
func (h *UserHandler) RegisterRoutes(router fiber.Router) {
	userRoutes := router.Group("/users")
	userRoutes.Get("/me", h.GetMe)

	guide := userRoutes.Group("/setup-guide", middleware.RequireRole(models.RoleStoreOwner))
	guide.Get("/", h.GetSetupGuide)
	guide.Put("/:stepId", h.UpdateSetupStep)
}

// GetMe returns the caller's account.
func (h *UserHandler) GetMe(c *fiber.Ctx) error {
	user, err := h.userService.Me(identity(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "user": user})
}

// GetSetupGuide returns the onboarding checklist.
func (h *UserHandler) GetSetupGuide(c *fiber.Ctx) error {
	steps, err := h.userService.SetupGuide(identity(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "setupGuide": steps})
}

// SetupStepRequest is the body of a checklist update.
type SetupStepRequest struct {
	IsCompleted *bool `json:"isCompleted"`
}

// UpdateSetupStep marks one checklist step.
func (h *UserHandler) UpdateSetupStep(c *fiber.Ctx) error {
	stepID, err := c.ParamsInt("stepId")
	if err != nil {
		return respondError(c, apperror.Validation("stepId must be a number"))
	}
	var req SetupStepRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	if req.IsCompleted == nil {
		return respondError(c, apperror.FieldErrors{"IsCompleted": "Field 'IsCompleted' failed on the 'required' tag"})
	}

	steps, err := h.userService.UpdateSetupStep(identity(c), stepID, *req.IsCompleted)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "setupGuide": steps})
}
