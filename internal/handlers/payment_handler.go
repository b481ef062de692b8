package handlers

import (
	"github.com/gofiber/fiber/v2"

	"storemaster/internal/apperror"
	"storemaster/internal/models"
	"storemaster/internal/services"
)

// PaymentHandler receives the PayPal redirects that end a subscription checkout.
type PaymentHandler struct {
	subscriptionService *services.SubscriptionService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(subscriptionService *services.SubscriptionService) *PaymentHandler {
	return &PaymentHandler{subscriptionService: subscriptionService}
}

// RegisterRoutes registers the PayPal callback routes.
func (h *PaymentHandler) RegisterRoutes(router fiber.Router) {
	paypalRoutes := router.Group("/auth/paypal")
	paypalRoutes.Get("/return", h.HandleReturn)
	paypalRoutes.Get("/cancel", h.HandleCancel)
}

// HandleReturn settles the order named by the token query parameter.
func (h *PaymentHandler) HandleReturn(c *fiber.Ctx) error {
	orderID := c.Query("token")
	if orderID == "" {
		return respondError(c, apperror.Validation("token query parameter is required"))
	}

	result, err := h.subscriptionService.HandleReturn(c.UserContext(), orderID)
	if err != nil {
		return respondError(c, err)
	}

	switch result.Subscription.Status {
	case models.SubscriptionCompleted:
		return c.JSON(fiber.Map{
			"success":      true,
			"message":      "Payment completed, your account is active",
			"subscription": result.Subscription,
			"token":        result.Token,
		})
	case models.SubscriptionFailed:
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
			"success":      false,
			"message":      "Payment failed",
			"subscription": result.Subscription,
		})
	default:
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"success":      true,
			"message":      "Payment is still pending",
			"subscription": result.Subscription,
		})
	}
}

// HandleCancel records that the payer abandoned the checkout.
func (h *PaymentHandler) HandleCancel(c *fiber.Ctx) error {
	orderID := c.Query("token")
	if orderID == "" {
		return respondError(c, apperror.Validation("token query parameter is required"))
	}

	sub, err := h.subscriptionService.HandleCancel(c.UserContext(), orderID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":      true,
		"message":      "Payment cancelled",
		"subscription": sub,
	})
}
