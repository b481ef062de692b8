package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"storemaster/internal/apperror"
	"storemaster/internal/middleware"
	"storemaster/internal/services"
)

// respondError writes the {success: false, message, errors?} body for err.
// Server-side causes are logged and replaced by a generic message.
func respondError(c *fiber.Ctx, err error) error {
	status := apperror.HTTPStatus(err)
	if status >= fiber.StatusInternalServerError {
		log.Printf("Error handling %s %s: %v", c.Method(), c.Path(), err)
	}

	body := fiber.Map{
		"success": false,
		"message": apperror.PublicMessage(err),
	}
	var fields apperror.FieldErrors
	if errors.As(err, &fields) {
		body["message"] = "Validation failed"
		body["errors"] = fields
	}
	if status >= fiber.StatusInternalServerError && apperror.IsRetryable(err) {
		body["retryable"] = true
	}
	return c.Status(status).JSON(body)
}

// parseBody decodes the JSON request body into out.
func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		log.Printf("Error parsing request body for %s: %v", c.Path(), err)
		return apperror.Validation("invalid request body")
	}
	return nil
}

func identity(c *fiber.Ctx) services.Identity {
	id, _ := middleware.IdentityFrom(c)
	return id
}
