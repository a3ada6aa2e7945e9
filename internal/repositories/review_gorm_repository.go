package repositories

import (
	"errors"
	"fmt"

	"kritika/internal/models"

	"gorm.io/gorm"
)

// GORMReviewRepository is a GORM implementation of ReviewRepository.
type GORMReviewRepository struct {
	db *gorm.DB
}

// NewGORMReviewRepository creates a new instance of GORMReviewRepository.
func NewGORMReviewRepository(db *gorm.DB) *GORMReviewRepository {
	return &GORMReviewRepository{
		db: db,
	}
}

// CreateReview inserts a review. The composite (author, title) unique index
// turns the loser of a concurrent double-submit into ErrDuplicateReview.
func (r *GORMReviewRepository) CreateReview(review *models.Review) error {
	if err := r.db.Omit("Title", "Author").Create(review).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("title %d: %w", review.TitleID, models.ErrDuplicateReview)
		}
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

// SaveReview persists changes to an existing review.
func (r *GORMReviewRepository) SaveReview(review *models.Review) error {
	res := r.db.Omit("Title", "Author").Save(review)
	if res.Error != nil {
		return fmt.Errorf("failed to save review %d: %w", review.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("review %d: %w", review.ID, models.ErrNotFound)
	}
	return nil
}

// GetReview retrieves a review scoped to a title.
func (r *GORMReviewRepository) GetReview(titleID, reviewID uint) (*models.Review, error) {
	var review models.Review
	err := r.db.Preload("Author").
		First(&review, "id = ? AND title_id = ?", reviewID, titleID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("review %d of title %d: %w", reviewID, titleID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get review %d: %w", reviewID, err)
	}
	if review.Author != nil {
		review.AuthorName = review.Author.Username
	}
	return &review, nil
}

// GetReviewByAuthor retrieves the author's review of a title, if any.
func (r *GORMReviewRepository) GetReviewByAuthor(titleID, authorID uint) (*models.Review, error) {
	var review models.Review
	err := r.db.First(&review, "title_id = ? AND author_id = ?", titleID, authorID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("review by author %d on title %d: %w", authorID, titleID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get review by author %d: %w", authorID, err)
	}
	return &review, nil
}

// ListReviews returns a page of a title's reviews, newest first, plus the
// unpaginated count.
func (r *GORMReviewRepository) ListReviews(titleID uint, limit, offset int) ([]models.Review, int64, error) {
	q := r.db.Model(&models.Review{}).Where("title_id = ?", titleID)
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}
	var reviews []models.Review
	err := q.Preload("Author").
		Order("created_at DESC").Limit(limit).Offset(offset).
		Find(&reviews).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list reviews: %w", err)
	}
	fillReviewAuthors(reviews)
	return reviews, count, nil
}

// DeleteReview removes a review and its comments.
func (r *GORMReviewRepository) DeleteReview(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("review_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("failed to delete comments of review %d: %w", id, err)
		}
		res := tx.Delete(&models.Review{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete review %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("review %d: %w", id, models.ErrNotFound)
		}
		return nil
	})
}

// CreateComment inserts a comment under a review.
func (r *GORMReviewRepository) CreateComment(comment *models.Comment) error {
	if err := r.db.Omit("Review", "Author").Create(comment).Error; err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

// SaveComment persists changes to an existing comment.
func (r *GORMReviewRepository) SaveComment(comment *models.Comment) error {
	res := r.db.Omit("Review", "Author").Save(comment)
	if res.Error != nil {
		return fmt.Errorf("failed to save comment %d: %w", comment.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("comment %d: %w", comment.ID, models.ErrNotFound)
	}
	return nil
}

// GetComment retrieves a comment scoped to a review.
func (r *GORMReviewRepository) GetComment(reviewID, commentID uint) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.Preload("Author").
		First(&comment, "id = ? AND review_id = ?", commentID, reviewID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("comment %d of review %d: %w", commentID, reviewID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get comment %d: %w", commentID, err)
	}
	if comment.Author != nil {
		comment.AuthorName = comment.Author.Username
	}
	return &comment, nil
}

// ListComments returns a page of a review's comments, newest first, plus
// the unpaginated count.
func (r *GORMReviewRepository) ListComments(reviewID uint, limit, offset int) ([]models.Comment, int64, error) {
	q := r.db.Model(&models.Comment{}).Where("review_id = ?", reviewID)
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count comments: %w", err)
	}
	var comments []models.Comment
	err := q.Preload("Author").
		Order("created_at DESC").Limit(limit).Offset(offset).
		Find(&comments).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list comments: %w", err)
	}
	for i := range comments {
		if comments[i].Author != nil {
			comments[i].AuthorName = comments[i].Author.Username
		}
	}
	return comments, count, nil
}

// DeleteComment removes a single comment.
func (r *GORMReviewRepository) DeleteComment(id uint) error {
	res := r.db.Delete(&models.Comment{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete comment %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("comment %d: %w", id, models.ErrNotFound)
	}
	return nil
}

func fillReviewAuthors(reviews []models.Review) {
	for i := range reviews {
		if reviews[i].Author != nil {
			reviews[i].AuthorName = reviews[i].Author.Username
		}
	}
}
