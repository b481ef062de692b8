package handlers

import (
	"github.com/gofiber/fiber/v2"

	"storemaster/internal/services"
)

// ApplicationHandler handles job applications.
type ApplicationHandler struct {
	applicationService *services.ApplicationService
}

// NewApplicationHandler creates a new ApplicationHandler.
func NewApplicationHandler(applicationService *services.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{applicationService: applicationService}
}

// RegisterPublicRoutes registers the submission route, open to anyone.
func (h *ApplicationHandler) RegisterPublicRoutes(router fiber.Router) {
	router.Post("/applications", h.SubmitApplication)
}

// RegisterRoutes registers the listing route. It expects an authenticated router.
func (h *ApplicationHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/applications", h.ListApplications)
}

// SubmitApplication records a job application.
func (h *ApplicationHandler) SubmitApplication(c *fiber.Ctx) error {
	var req services.SubmitApplicationRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	app, err := h.applicationService.Submit(req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":     true,
		"message":     "Application submitted successfully",
		"application": app,
	})
}

// ListApplications returns the applications sent to the caller.
func (h *ApplicationHandler) ListApplications(c *fiber.Ctx) error {
	apps, err := h.applicationService.ListForOwner(identity(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "applications": apps})
}
