package handlers

import (
	"errors"
	"log"

	"kritika/internal/models"
	"kritika/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for sign-up and token issuance.
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
	authRoutes.Post("/token", h.HandleToken)
}

// SignUpRequest represents the request body for sign-up.
type SignUpRequest struct {
	Username string `json:"username" validate:"required,max=150"`
	Email    string `json:"email" validate:"required,max=254"`
}

// HandleSignUp registers a user (idempotently for an exact resubmission)
// and mails the confirmation code. Mail failure shows up in the response
// but keeps the 200: the user record is already in place.
func (h *AuthHandler) HandleSignUp(c *fiber.Ctx) error {
	var req SignUpRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing sign-up request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  validationErrorsMap(err),
		})
	}

	result, err := h.authService.SignUp(req.Username, req.Email)
	if err != nil {
		log.Printf("Sign-up failed for %s: %v", req.Username, err)
		return respondError(c, err)
	}

	response := fiber.Map{
		"username":   result.User.Username,
		"email":      result.User.Email,
		"email_sent": result.EmailSent,
	}
	if result.EmailError != "" {
		response["warning"] = "confirmation email could not be delivered: " + result.EmailError
	}
	return c.Status(fiber.StatusOK).JSON(response)
}

// TokenRequest represents the request body for token issuance.
type TokenRequest struct {
	Username         string `json:"username" validate:"required"`
	ConfirmationCode string `json:"confirmation_code" validate:"required"`
}

// HandleToken exchanges a confirmation code for an access token.
func (h *AuthHandler) HandleToken(c *fiber.Ctx) error {
	var req TokenRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing token request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  validationErrorsMap(err),
		})
	}

	token, err := h.authService.IssueToken(req.Username, req.ConfirmationCode)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "No such user",
				"error":   err.Error(),
			})
		}
		if errors.Is(err, models.ErrInvalidSecret) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Confirmation code mismatch",
				"error":   err.Error(),
			})
		}
		log.Printf("Token issuance failed for %s: %v", req.Username, err)
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"token": token,
	})
}
