package middleware

import (
	"log"
	"strings"

	"kritika/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CurrentUserKey is the Locals key under which a resolved *models.User is
// stored for downstream handlers. Absent key means anonymous.
const CurrentUserKey = "current_user"

// AuthRequired is a Fiber middleware that rejects requests without a valid
// bearer token and stores the resolved user in the context.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header is required",
			})
		}
		return resolve(c, authService, authHeader)
	}
}

// AuthOptional resolves a bearer token when one is present and lets
// anonymous requests through untouched. Read endpoints that serve
// anonymous traffic sit behind this variant.
func AuthOptional(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Next()
		}
		return resolve(c, authService, authHeader)
	}
}

func resolve(c *fiber.Ctx, authService *services.AuthService, authHeader string) error {
	// Expected format: "Bearer <token>"
	parts := strings.SplitN(authHeader, " ", 2)
	if !(len(parts) == 2 && parts[0] == "Bearer") {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Authorization header format must be 'Bearer <token>'",
		})
	}

	claims, err := authService.ValidateToken(parts[1])
	if err != nil {
		log.Printf("JWT validation failed: %v", err)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Invalid or expired token",
			"error":   err.Error(),
		})
	}

	user, err := authService.ResolveUser(claims)
	if err != nil {
		log.Printf("Token resolved to no user: %v", err)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Token does not belong to a known user",
		})
	}

	c.Locals(CurrentUserKey, user)
	return c.Next()
}
