package repositories

import "kritika/internal/models"

// ReviewRepository defines data access for reviews and their comments.
// CreateReview reports models.ErrDuplicateReview when the (author, title)
// unique index rejects the row, so races lose deterministically.
type ReviewRepository interface {
	CreateReview(review *models.Review) error
	SaveReview(review *models.Review) error
	GetReview(titleID, reviewID uint) (*models.Review, error)
	GetReviewByAuthor(titleID, authorID uint) (*models.Review, error)
	ListReviews(titleID uint, limit, offset int) ([]models.Review, int64, error)
	DeleteReview(id uint) error

	CreateComment(comment *models.Comment) error
	SaveComment(comment *models.Comment) error
	GetComment(reviewID, commentID uint) (*models.Comment, error)
	ListComments(reviewID uint, limit, offset int) ([]models.Comment, int64, error)
	DeleteComment(id uint) error
}
