package handlers

import (
	"log"

	"kritika/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CatalogHandler handles HTTP requests for categories and genres. The two
// resources share their shape: slug-addressed, list/create/delete only.
type CatalogHandler struct {
	catalogService *services.CatalogService
	validate       *validator.Validate
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalogService *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		validate:       validator.New(),
	}
}

// RegisterRoutes registers category and genre routes. The router must run
// the optional-auth middleware: reads are anonymous, writes are gated.
func (h *CatalogHandler) RegisterRoutes(router fiber.Router) {
	categoryRoutes := router.Group("/categories")
	categoryRoutes.Get("/", h.HandleListCategories)
	categoryRoutes.Post("/", h.HandleCreateCategory)
	categoryRoutes.Delete("/:slug", h.HandleDeleteCategory)

	genreRoutes := router.Group("/genres")
	genreRoutes.Get("/", h.HandleListGenres)
	genreRoutes.Post("/", h.HandleCreateGenre)
	genreRoutes.Delete("/:slug", h.HandleDeleteGenre)
}

// SlugRequest is the shared create body for categories and genres.
type SlugRequest struct {
	Name string `json:"name" validate:"required,max=256"`
	Slug string `json:"slug" validate:"required,max=50"`
}

// HandleListCategories returns a paginated category list. Public.
func (h *CatalogHandler) HandleListCategories(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	categories, count, err := h.catalogService.ListCategories(c.Query("search"), limit, offset)
	if err != nil {
		log.Printf("Error listing categories: %v", err)
		return respondError(c, err)
	}
	return c.JSON(listResponse(count, categories))
}

// HandleCreateCategory adds a category. Admin only.
func (h *CatalogHandler) HandleCreateCategory(c *fiber.Ctx) error {
	actor := actorFromCtx(c)
	if !actor.CanWrite(services.ResourceCatalog) {
		return denyWrite(c, actor)
	}
	req, err := h.parseSlugRequest(c)
	if req == nil {
		return err
	}
	category, svcErr := h.catalogService.CreateCategory(req.Name, req.Slug)
	if svcErr != nil {
		log.Printf("Error creating category %s: %v", req.Slug, svcErr)
		return respondError(c, svcErr)
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

// HandleDeleteCategory removes a category, detaching its titles. Admin only.
func (h *CatalogHandler) HandleDeleteCategory(c *fiber.Ctx) error {
	actor := actorFromCtx(c)
	if !actor.CanWrite(services.ResourceCatalog) {
		return denyWrite(c, actor)
	}
	if err := h.catalogService.DeleteCategory(c.Params("slug")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleListGenres returns a paginated genre list. Public.
func (h *CatalogHandler) HandleListGenres(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	genres, count, err := h.catalogService.ListGenres(c.Query("search"), limit, offset)
	if err != nil {
		log.Printf("Error listing genres: %v", err)
		return respondError(c, err)
	}
	return c.JSON(listResponse(count, genres))
}

// HandleCreateGenre adds a genre. Admin only.
func (h *CatalogHandler) HandleCreateGenre(c *fiber.Ctx) error {
	actor := actorFromCtx(c)
	if !actor.CanWrite(services.ResourceCatalog) {
		return denyWrite(c, actor)
	}
	req, err := h.parseSlugRequest(c)
	if req == nil {
		return err
	}
	genre, svcErr := h.catalogService.CreateGenre(req.Name, req.Slug)
	if svcErr != nil {
		log.Printf("Error creating genre %s: %v", req.Slug, svcErr)
		return respondError(c, svcErr)
	}
	return c.Status(fiber.StatusCreated).JSON(genre)
}

// HandleDeleteGenre removes a genre and its title links. Admin only.
func (h *CatalogHandler) HandleDeleteGenre(c *fiber.Ctx) error {
	actor := actorFromCtx(c)
	if !actor.CanWrite(services.ResourceCatalog) {
		return denyWrite(c, actor)
	}
	if err := h.catalogService.DeleteGenre(c.Params("slug")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *CatalogHandler) parseSlugRequest(c *fiber.Ctx) (*SlugRequest, error) {
	var req SlugRequest
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
