package handlers

import (
	"log"

	"kritika/internal/models"
	"kritika/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// UserHandler handles HTTP requests for account administration and the
// /users/me self-service endpoints.
type UserHandler struct {
	userService *services.UserService
	validate    *validator.Validate
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the user routes. The router must already run
// the required-auth middleware: there is no anonymous access to /users.
func (h *UserHandler) RegisterRoutes(router fiber.Router) {
	userRoutes := router.Group("/users")
	userRoutes.Get("/me", h.HandleGetMe)
	userRoutes.Patch("/me", h.HandlePatchMe)
	userRoutes.Get("/", h.HandleListUsers)
	userRoutes.Post("/", h.HandleCreateUser)
	userRoutes.Get("/:username", h.HandleGetUser)
	userRoutes.Patch("/:username", h.HandlePatchUser)
	userRoutes.Delete("/:username", h.HandleDeleteUser)
}

// CreateUserRequest represents the admin user-creation body.
type CreateUserRequest struct {
	Username  string `json:"username" validate:"required,max=150"`
	Email     string `json:"email" validate:"required,max=254"`
	FirstName string `json:"first_name" validate:"omitempty,max=150"`
	LastName  string `json:"last_name" validate:"omitempty,max=150"`
	Bio       string `json:"bio"`
	Role      string `json:"role" validate:"omitempty,oneof=user moderator admin"`
}

// PatchUserRequest represents a partial user edit. Nil fields stay as-is.
type PatchUserRequest struct {
	Email     *string `json:"email" validate:"omitempty,max=254"`
	FirstName *string `json:"first_name" validate:"omitempty,max=150"`
	LastName  *string `json:"last_name" validate:"omitempty,max=150"`
	Bio       *string `json:"bio"`
	Role      *string `json:"role" validate:"omitempty,oneof=user moderator admin"`
}

// HandleListUsers returns a paginated user list. Admin only.
func (h *UserHandler) HandleListUsers(c *fiber.Ctx) error {
	actor := actorFromCtx(c)
	if !actor.CanRead(services.ResourceUsers) {
		return denyWrite(c, actor)
	}
	limit, offset := pageParams(c)
	users, count, err := h.userService.List(c.Query("search"), limit, offset)
	if err != nil {
		log.Printf("Error listing users: %v", err)
		return respondError(c, err)
	}
	return c.JSON(listResponse(count, users))
}

// HandleCreateUser creates a user with an explicit role. Admin only.
func (h *UserHandler) HandleCreateUser(c *fiber.Ctx) error {
	actor := actorFromCtx(c)
	if !actor.CanWrite(services.ResourceUsers) {
		return denyWrite(c, actor)
	}

	var req CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
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

	user := &models.User{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
		Role:      req.Role,
	}
	if err := h.userService.Create(user); err != nil {
		log.Printf("Error creating user %s: %v", req.Username, err)
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// HandleGetUser returns a single user by username. Admin only.
func (h *UserHandler) HandleGetUser(c *fiber.Ctx) error {
	actor := actorFromCtx(c)
	if !actor.CanRead(services.ResourceUsers) {
		return denyWrite(c, actor)
	}
	user, err := h.userService.Get(c.Params("username"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// HandlePatchUser applies an administrative partial edit, role included.
func (h *UserHandler) HandlePatchUser(c *fiber.Ctx) error {
	actor := actorFromCtx(c)
	if !actor.CanWrite(services.ResourceUsers) {
		return denyWrite(c, actor)
	}

	req, err := h.parsePatch(c)
	if req == nil {
		return err // response already written
	}
	user, svcErr := h.userService.Update(c.Params("username"), services.UserPatch{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
		Role:      req.Role,
	})
	if svcErr != nil {
		log.Printf("Error updating user %s: %v", c.Params("username"), svcErr)
		return respondError(c, svcErr)
	}
	return c.JSON(user)
}

// HandleDeleteUser removes a user account. Admin only.
func (h *UserHandler) HandleDeleteUser(c *fiber.Ctx) error {
	actor := actorFromCtx(c)
	if !actor.CanWrite(services.ResourceUsers) {
		return denyWrite(c, actor)
	}
	if err := h.userService.Delete(c.Params("username")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleGetMe returns the requester's own record.
func (h *UserHandler) HandleGetMe(c *fiber.Ctx) error {
	actor := actorFromCtx(c)
	if !actor.CanRead(services.ResourceOwnProfile) {
		return denyWrite(c, actor)
	}
	return c.JSON(actor.User)
}

// HandlePatchMe edits the requester's own record. Role is read-only here:
// a supplied role field is silently dropped.
func (h *UserHandler) HandlePatchMe(c *fiber.Ctx) error {
	actor := actorFromCtx(c)
	if !actor.CanWrite(services.ResourceOwnProfile) {
		return denyWrite(c, actor)
	}

	req, err := h.parsePatch(c)
	if req == nil {
		return err // response already written
	}
	user, svcErr := h.userService.UpdateSelf(actor.User, services.UserPatch{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
		// Role deliberately omitted.
	})
	if svcErr != nil {
		log.Printf("Error updating own profile of %s: %v", actor.User.Username, svcErr)
		return respondError(c, svcErr)
	}
	return c.JSON(user)
}

// parsePatch parses and validates a PatchUserRequest, writing the error
// response itself on failure.
func (h *UserHandler) parsePatch(c *fiber.Ctx) (*PatchUserRequest, error) {
	var req PatchUserRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  validationErrorsMap(err),
		})
	}
	return &req, nil
}
