package handlers

import (
	"log"

	"kritika/internal/repositories"
	"kritika/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// TitleHandler handles HTTP requests for titles.
type TitleHandler struct {
	catalogService *services.CatalogService
	validate       *validator.Validate
}

// NewTitleHandler creates a new TitleHandler.
func NewTitleHandler(catalogService *services.CatalogService) *TitleHandler {
	return &TitleHandler{
		catalogService: catalogService,
		validate:       validator.New(),
	}
}

// RegisterRoutes registers title routes. The router must run the
// optional-auth middleware: reads are anonymous, writes are gated.
func (h *TitleHandler) RegisterRoutes(router fiber.Router) {
	titleRoutes := router.Group("/titles")
	titleRoutes.Get("/", h.HandleListTitles)
	titleRoutes.Post("/", h.HandleCreateTitle)
	titleRoutes.Get("/:id", h.HandleGetTitle)
	titleRoutes.Patch("/:id", h.HandlePatchTitle)
	titleRoutes.Delete("/:id", h.HandleDeleteTitle)
}

// CreateTitleRequest represents the title creation body. Category and
// genres are passed as slugs.
type CreateTitleRequest struct {
	Name        string   `json:"name" validate:"required,max=256"`
	Year        int      `json:"year" validate:"required"`
	Description string   `json:"description" validate:"omitempty,max=250"`
	Category    string   `json:"category" validate:"omitempty,max=50"`
	Genre       []string `json:"genre" validate:"omitempty,dive,max=50"`
}

// PatchTitleRequest represents a partial title edit.
type PatchTitleRequest struct {
	Name        *string   `json:"name" validate:"omitempty,max=256"`
	Year        *int      `json:"year"`
	Description *string   `json:"description" validate:"omitempty,max=250"`
	Category    *string   `json:"category" validate:"omitempty,max=50"`
	Genre       *[]string `json:"genre" validate:"omitempty,dive,max=50"`
}

// HandleListTitles returns a filtered, paginated title list with computed
// ratings. Public.
func (h *TitleHandler) HandleListTitles(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	filter := repositories.TitleFilter{
		Name:         c.Query("name"),
		CategorySlug: c.Query("category"),
		GenreSlug:    c.Query("genre"),
		Limit:        limit,
		Offset:       offset,
	}
	if c.Query("year") != "" {
		year := c.QueryInt("year")
		filter.Year = &year
	}
	titles, count, err := h.catalogService.ListTitles(filter)
	if err != nil {
		log.Printf("Error listing titles: %v", err)
		return respondError(c, err)
	}
	return c.JSON(listResponse(count, titles))
}

// HandleCreateTitle adds a title. Admin only.
func (h *TitleHandler) HandleCreateTitle(c *fiber.Ctx) error {
	actor := actorFromCtx(c)
	if !actor.CanWrite(services.ResourceCatalog) {
		return denyWrite(c, actor)
	}

	var req CreateTitleRequest
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

	title, err := h.catalogService.CreateTitle(services.TitleInput{
		Name:         req.Name,
		Year:         req.Year,
		Description:  req.Description,
		CategorySlug: req.Category,
		GenreSlugs:   req.Genre,
	})
	if err != nil {
		log.Printf("Error creating title %s: %v", req.Name, err)
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(title)
}

// HandleGetTitle returns a single title with its rating. Public.
func (h *TitleHandler) HandleGetTitle(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Title id must be a positive integer",
		})
	}
	title, svcErr := h.catalogService.GetTitle(uint(id))
	if svcErr != nil {
		return respondError(c, svcErr)
	}
	return c.JSON(title)
}

// HandlePatchTitle applies a partial title edit. Admin only.
func (h *TitleHandler) HandlePatchTitle(c *fiber.Ctx) error {
	actor := actorFromCtx(c)
	if !actor.CanWrite(services.ResourceCatalog) {
		return denyWrite(c, actor)
	}
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Title id must be a positive integer",
		})
	}

	var req PatchTitleRequest
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

	title, svcErr := h.catalogService.UpdateTitle(uint(id), services.TitlePatch{
		Name:         req.Name,
		Year:         req.Year,
		Description:  req.Description,
		CategorySlug: req.Category,
		GenreSlugs:   req.Genre,
	})
	if svcErr != nil {
		log.Printf("Error updating title %d: %v", id, svcErr)
		return respondError(c, svcErr)
	}
	return c.JSON(title)
}

// HandleDeleteTitle removes a title and its reviews. Admin only.
func (h *TitleHandler) HandleDeleteTitle(c *fiber.Ctx) error {
	actor := actorFromCtx(c)
	if !actor.CanWrite(services.ResourceCatalog) {
		return denyWrite(c, actor)
	}
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Title id must be a positive integer",
		})
	}
	if err := h.catalogService.DeleteTitle(uint(id)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
