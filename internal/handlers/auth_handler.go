package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"storemaster/internal/apperror"
	"storemaster/internal/services"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/signup", h.HandleSignUp)
	authRoutes.Post("/login", h.HandleLogin)
	authRoutes.Post("/password/pin", h.HandleRequestPin)
	authRoutes.Post("/password/verify", h.HandleVerifyPin)
	authRoutes.Post("/password/reset", h.HandleResetPassword)
}

// HandleSignUp handles new account registration.
func (h *AuthHandler) HandleSignUp(c *fiber.Ctx) error {
	var req services.SignUpRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	result, err := h.authService.SignUp(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}

	if result.ApprovalURL != "" {
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success":     true,
			"message":     "Approve the subscription payment to activate your account",
			"user":        result.User,
			"approvalUrl": result.ApprovalURL,
		})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "User registered successfully",
		"user":    result.User,
		"token":   result.Token,
	})
}

// LoginRequest represents the request body for login. The account is looked
// up by identifier, or by username or email when identifier is empty.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password" validate:"required"`
}

func (r LoginRequest) login() string {
	switch {
	case r.Identifier != "":
		return r.Identifier
	case r.Username != "":
		return r.Username
	default:
		return r.Email
	}
}

// HandleLogin handles user login and issues a JWT token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return respondError(c, apperror.FromValidator(err))
	}
	if req.login() == "" {
		return respondError(c, apperror.FieldErrors{"Identifier": "Field 'Identifier' failed on the 'required' tag"})
	}

	token, user, err := h.authService.Login(req.login(), req.Password)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Login successful",
		"token":   token,
		"user":    user,
	})
}

// PinRequest asks for a password reset pin.
type PinRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// VerifyPinRequest checks a pin before the password form is shown.
type VerifyPinRequest struct {
	Email string `json:"email" validate:"required,email"`
	Pin   string `json:"pin" validate:"required,len=4,numeric"`
}

// HandleRequestPin mails a verification pin.
func (h *AuthHandler) HandleRequestPin(c *fiber.Ctx) error {
	var req PinRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return respondError(c, apperror.FromValidator(err))
	}
	if err := h.authService.RequestPin(c.UserContext(), req.Email); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "A verification pin was sent to your email",
	})
}

// HandleVerifyPin checks a pin without consuming it.
func (h *AuthHandler) HandleVerifyPin(c *fiber.Ctx) error {
	var req VerifyPinRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return respondError(c, apperror.FromValidator(err))
	}
	if err := h.authService.VerifyPin(req.Email, req.Pin); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Pin verified",
	})
}

// HandleResetPassword sets a new password using a valid pin.
func (h *AuthHandler) HandleResetPassword(c *fiber.Ctx) error {
	var req services.ResetPasswordRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	if err := h.authService.ResetPassword(req); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Password updated successfully",
	})
}
