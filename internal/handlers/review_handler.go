package handlers

import (
	"log"

	"kritika/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ReviewHandler handles HTTP requests for reviews and their comments,
// nested under /titles/:title_id.
type ReviewHandler struct {
	reviewService *services.ReviewService
	validate      *validator.Validate
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(reviewService *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
		validate:      validator.New(),
	}
}

// RegisterRoutes registers review and comment routes. The router must run
// the optional-auth middleware: reads are anonymous, writes are gated.
func (h *ReviewHandler) RegisterRoutes(router fiber.Router) {
	reviewRoutes := router.Group("/titles/:title_id/reviews")
	reviewRoutes.Get("/", h.HandleListReviews)
	reviewRoutes.Post("/", h.HandleCreateReview)
	reviewRoutes.Get("/:review_id", h.HandleGetReview)
	reviewRoutes.Patch("/:review_id", h.HandlePatchReview)
	reviewRoutes.Delete("/:review_id", h.HandleDeleteReview)

	commentRoutes := reviewRoutes.Group("/:review_id/comments")
	commentRoutes.Get("/", h.HandleListComments)
	commentRoutes.Post("/", h.HandleCreateComment)
	commentRoutes.Get("/:comment_id", h.HandleGetComment)
	commentRoutes.Patch("/:comment_id", h.HandlePatchComment)
	commentRoutes.Delete("/:comment_id", h.HandleDeleteComment)
}

// CreateReviewRequest represents the review creation body.
type CreateReviewRequest struct {
	Text  string `json:"text" validate:"required,max=400"`
	Score int    `json:"score" validate:"required"`
}

// PatchReviewRequest represents a partial review edit.
type PatchReviewRequest struct {
	Text  *string `json:"text" validate:"omitempty,max=400"`
	Score *int    `json:"score"`
}

// CommentRequest represents a comment creation or edit body.
type CommentRequest struct {
	Text string `json:"text" validate:"required,max=400"`
}

// HandleListReviews returns a title's reviews, newest first. Public.
func (h *ReviewHandler) HandleListReviews(c *fiber.Ctx) error {
	titleID, ok := pathID(c, "title_id")
	if !ok {
		return nil
	}
	limit, offset := pageParams(c)
	reviews, count, err := h.reviewService.ListReviews(titleID, limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(listResponse(count, reviews))
}

// HandleCreateReview posts the requester's review of a title. Any
// authenticated user, once per title.
func (h *ReviewHandler) HandleCreateReview(c *fiber.Ctx) error {
	actor := actorFromCtx(c)
	if !actor.CanWrite(services.ResourceReviews) {
		return denyWrite(c, actor)
	}
	titleID, ok := pathID(c, "title_id")
	if !ok {
		return nil
	}

	var req CreateReviewRequest
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

	review, err := h.reviewService.CreateReview(titleID, actor.User, req.Text, req.Score)
	if err != nil {
		log.Printf("Error creating review on title %d by %s: %v", titleID, actor.User.Username, err)
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(review)
}

// HandleGetReview returns a single review. Public.
func (h *ReviewHandler) HandleGetReview(c *fiber.Ctx) error {
	titleID, ok := pathID(c, "title_id")
	if !ok {
		return nil
	}
	reviewID, ok := pathID(c, "review_id")
	if !ok {
		return nil
	}
	review, err := h.reviewService.GetReview(titleID, reviewID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(review)
}

// HandlePatchReview edits a review: author, moderator or admin.
func (h *ReviewHandler) HandlePatchReview(c *fiber.Ctx) error {
	actor := actorFromCtx(c)
	titleID, ok := pathID(c, "title_id")
	if !ok {
		return nil
	}
	reviewID, ok := pathID(c, "review_id")
	if !ok {
		return nil
	}

	review, err := h.reviewService.GetReview(titleID, reviewID)
	if err != nil {
		return respondError(c, err)
	}
	if !actor.CanModifyInstance(review.AuthorID) {
		return denyWrite(c, actor)
	}

	var req PatchReviewRequest
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

	updated, err := h.reviewService.UpdateReview(review, req.Text, req.Score)
	if err != nil {
		log.Printf("Error updating review %d: %v", reviewID, err)
		return respondError(c, err)
	}
	return c.JSON(updated)
}

// HandleDeleteReview removes a review: author, moderator or admin.
func (h *ReviewHandler) HandleDeleteReview(c *fiber.Ctx) error {
	actor := actorFromCtx(c)
	titleID, ok := pathID(c, "title_id")
	if !ok {
		return nil
	}
	reviewID, ok := pathID(c, "review_id")
	if !ok {
		return nil
	}

	review, err := h.reviewService.GetReview(titleID, reviewID)
	if err != nil {
		return respondError(c, err)
	}
	if !actor.CanModifyInstance(review.AuthorID) {
		return denyWrite(c, actor)
	}
	if err := h.reviewService.DeleteReview(review.ID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleListComments returns a review's comments, newest first. Public.
func (h *ReviewHandler) HandleListComments(c *fiber.Ctx) error {
	titleID, ok := pathID(c, "title_id")
	if !ok {
		return nil
	}
	reviewID, ok := pathID(c, "review_id")
	if !ok {
		return nil
	}
	limit, offset := pageParams(c)
	comments, count, err := h.reviewService.ListComments(titleID, reviewID, limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(listResponse(count, comments))
}

// HandleCreateComment posts a comment under a review. Any authenticated
// user.
func (h *ReviewHandler) HandleCreateComment(c *fiber.Ctx) error {
	actor := actorFromCtx(c)
	if !actor.CanWrite(services.ResourceReviews) {
		return denyWrite(c, actor)
	}
	titleID, ok := pathID(c, "title_id")
	if !ok {
		return nil
	}
	reviewID, ok := pathID(c, "review_id")
	if !ok {
		return nil
	}

	req, err := h.parseComment(c)
	if req == nil {
		return err
	}
	comment, svcErr := h.reviewService.CreateComment(titleID, reviewID, actor.User, req.Text)
	if svcErr != nil {
		log.Printf("Error creating comment on review %d by %s: %v", reviewID, actor.User.Username, svcErr)
		return respondError(c, svcErr)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// HandleGetComment returns a single comment. Public.
func (h *ReviewHandler) HandleGetComment(c *fiber.Ctx) error {
	titleID, ok := pathID(c, "title_id")
	if !ok {
		return nil
	}
	reviewID, ok := pathID(c, "review_id")
	if !ok {
		return nil
	}
	commentID, ok := pathID(c, "comment_id")
	if !ok {
		return nil
	}
	comment, err := h.reviewService.GetComment(titleID, reviewID, commentID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comment)
}

// HandlePatchComment edits a comment: author, moderator or admin.
func (h *ReviewHandler) HandlePatchComment(c *fiber.Ctx) error {
	actor := actorFromCtx(c)
	titleID, ok := pathID(c, "title_id")
	if !ok {
		return nil
	}
	reviewID, ok := pathID(c, "review_id")
	if !ok {
		return nil
	}
	commentID, ok := pathID(c, "comment_id")
	if !ok {
		return nil
	}

	comment, err := h.reviewService.GetComment(titleID, reviewID, commentID)
	if err != nil {
		return respondError(c, err)
	}
	if !actor.CanModifyInstance(comment.AuthorID) {
		return denyWrite(c, actor)
	}

	req, parseErr := h.parseComment(c)
	if req == nil {
		return parseErr
	}
	updated, svcErr := h.reviewService.UpdateComment(comment, req.Text)
	if svcErr != nil {
		log.Printf("Error updating comment %d: %v", commentID, svcErr)
		return respondError(c, svcErr)
	}
	return c.JSON(updated)
}

// HandleDeleteComment removes a comment: author, moderator or admin.
func (h *ReviewHandler) HandleDeleteComment(c *fiber.Ctx) error {
	actor := actorFromCtx(c)
	titleID, ok := pathID(c, "title_id")
	if !ok {
		return nil
	}
	reviewID, ok := pathID(c, "review_id")
	if !ok {
		return nil
	}
	commentID, ok := pathID(c, "comment_id")
	if !ok {
		return nil
	}

	comment, err := h.reviewService.GetComment(titleID, reviewID, commentID)
	if err != nil {
		return respondError(c, err)
	}
	if !actor.CanModifyInstance(comment.AuthorID) {
		return denyWrite(c, actor)
	}
	if err := h.reviewService.DeleteComment(comment.ID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ReviewHandler) parseComment(c *fiber.Ctx) (*CommentRequest, error) {
	var req CommentRequest
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

// pathID parses a positive integer path parameter, writing the 400
// response itself when the value is malformed.
func pathID(c *fiber.Ctx, name string) (uint, bool) {
	id, err := c.ParamsInt(name)
	if err != nil || id < 1 {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": name + " must be a positive integer",
		})
		return 0, false
	}
	return uint(id), true
}
