package handlers

import (
	"errors"
	"fmt"

	"kritika/internal/middleware"
	"kritika/internal/models"
	"kritika/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// defaultPageLimit mirrors limit/offset pagination with a sane page size
// when the client sends no limit.
const defaultPageLimit = 10

// actorFromCtx builds the policy actor for a request. Requests that never
// passed auth middleware, or passed the optional variant without a token,
// act anonymously.
func actorFromCtx(c *fiber.Ctx) services.Actor {
	if user, ok := c.Locals(middleware.CurrentUserKey).(*models.User); ok {
		return services.ActorFor(user)
	}
	return services.AnonymousActor()
}

// pageParams extracts limit/offset query values.
func pageParams(c *fiber.Ctx) (limit, offset int) {
	limit = c.QueryInt("limit", defaultPageLimit)
	if limit <= 0 {
		limit = defaultPageLimit
	}
	offset = c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// listResponse is the paginated envelope for collection endpoints.
func listResponse(count int64, results interface{}) fiber.Map {
	return fiber.Map{
		"count":   count,
		"results": results,
	}
}

// validationErrorsMap flattens validator errors into a field -> message map.
func validationErrorsMap(err error) map[string]string {
	messages := make(map[string]string)
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			messages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
	}
	return messages
}

// respondError maps domain errors onto HTTP statuses: missing records are
// 404, every validation or uniqueness failure is 400, the rest is 500.
func respondError(c *fiber.Ctx, err error) error {
	var dup *models.DuplicateIdentityError
	var invalid *models.ValidationError

	switch {
	case errors.Is(err, models.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Not found",
			"error":   err.Error(),
		})
	case errors.As(err, &dup):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Duplicate value",
			"errors":  map[string]string{dup.Field: dup.Error()},
		})
	case errors.As(err, &invalid):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  map[string]string{invalid.Field: invalid.Message},
		})
	case errors.Is(err, models.ErrDuplicateSlug),
		errors.Is(err, models.ErrDuplicateReview),
		errors.Is(err, models.ErrInvalidScore),
		errors.Is(err, models.ErrInvalidYear),
		errors.Is(err, models.ErrUnknownReference),
		errors.Is(err, models.ErrInvalidSecret):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "Internal error",
		"error":   err.Error(),
	})
}

// denyWrite produces the correct denial for a failed write gate: 401 for
// anonymous actors, 403 for authenticated ones lacking the role.
func denyWrite(c *fiber.Ctx, actor services.Actor) error {
	if !actor.IsAuthenticated() {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Authentication required",
		})
	}
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
		"message": "Insufficient permissions",
	})
}
