package repositories

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"kritika/internal/models"
)

// MockReviewRepository is an in-memory implementation of ReviewRepository.
type MockReviewRepository struct {
	reviews       map[uint]models.Review
	comments      map[uint]models.Comment
	nextReviewID  uint
	nextCommentID uint
	mu            sync.RWMutex
}

// NewMockReviewRepository creates a new instance of MockReviewRepository.
func NewMockReviewRepository() *MockReviewRepository {
	return &MockReviewRepository{
		reviews:       make(map[uint]models.Review),
		comments:      make(map[uint]models.Comment),
		nextReviewID:  1,
		nextCommentID: 1,
	}
}

// CreateReview adds a review, mimicking the composite unique index on
// (author, title).
func (r *MockReviewRepository) CreateReview(review *models.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.reviews {
		if existing.TitleID == review.TitleID && existing.AuthorID == review.AuthorID {
			return fmt.Errorf("title %d: %w", review.TitleID, models.ErrDuplicateReview)
		}
	}
	if review.ID == 0 {
		review.ID = r.nextReviewID
		r.nextReviewID++
	} else if review.ID >= r.nextReviewID {
		r.nextReviewID = review.ID + 1
	}
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now()
	}
	r.reviews[review.ID] = *review
	return nil
}

// SaveReview replaces an existing review.
func (r *MockReviewRepository) SaveReview(review *models.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.reviews[review.ID]; !ok {
		return fmt.Errorf("review %d: %w", review.ID, models.ErrNotFound)
	}
	r.reviews[review.ID] = *review
	return nil
}

// GetReview returns a review scoped to a title.
func (r *MockReviewRepository) GetReview(titleID, reviewID uint) (*models.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	review, ok := r.reviews[reviewID]
	if !ok || review.TitleID != titleID {
		return nil, fmt.Errorf("review %d of title %d: %w", reviewID, titleID, models.ErrNotFound)
	}
	return &review, nil
}

// GetReviewByAuthor returns the author's review of a title, if any.
func (r *MockReviewRepository) GetReviewByAuthor(titleID, authorID uint) (*models.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, review := range r.reviews {
		if review.TitleID == titleID && review.AuthorID == authorID {
			rv := review
			return &rv, nil
		}
	}
	return nil, fmt.Errorf("review by author %d on title %d: %w", authorID, titleID, models.ErrNotFound)
}

// ListReviews returns a title's reviews, newest first.
func (r *MockReviewRepository) ListReviews(titleID uint, limit, offset int) ([]models.Review, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]models.Review, 0)
	for _, review := range r.reviews {
		if review.TitleID == titleID {
			matched = append(matched, review)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	count := int64(len(matched))
	if offset >= len(matched) {
		return []models.Review{}, count, nil
	}
	end := len(matched)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return matched[offset:end], count, nil
}

// DeleteReview removes a review and its comments.
func (r *MockReviewRepository) DeleteReview(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.reviews[id]; !ok {
		return fmt.Errorf("review %d: %w", id, models.ErrNotFound)
	}
	delete(r.reviews, id)
	for commentID, comment := range r.comments {
		if comment.ReviewID == id {
			delete(r.comments, commentID)
		}
	}
	return nil
}

// CreateComment adds a comment under a review.
func (r *MockReviewRepository) CreateComment(comment *models.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if comment.ID == 0 {
		comment.ID = r.nextCommentID
		r.nextCommentID++
	} else if comment.ID >= r.nextCommentID {
		r.nextCommentID = comment.ID + 1
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now()
	}
	r.comments[comment.ID] = *comment
	return nil
}

// SaveComment replaces an existing comment.
func (r *MockReviewRepository) SaveComment(comment *models.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.comments[comment.ID]; !ok {
		return fmt.Errorf("comment %d: %w", comment.ID, models.ErrNotFound)
	}
	r.comments[comment.ID] = *comment
	return nil
}

// GetComment returns a comment scoped to a review.
func (r *MockReviewRepository) GetComment(reviewID, commentID uint) (*models.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	comment, ok := r.comments[commentID]
	if !ok || comment.ReviewID != reviewID {
		return nil, fmt.Errorf("comment %d of review %d: %w", commentID, reviewID, models.ErrNotFound)
	}
	return &comment, nil
}

// ListComments returns a review's comments, newest first.
func (r *MockReviewRepository) ListComments(reviewID uint, limit, offset int) ([]models.Comment, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]models.Comment, 0)
	for _, comment := range r.comments {
		if comment.ReviewID == reviewID {
			matched = append(matched, comment)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	count := int64(len(matched))
	if offset >= len(matched) {
		return []models.Comment{}, count, nil
	}
	end := len(matched)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return matched[offset:end], count, nil
}

// DeleteComment removes a single comment.
func (r *MockReviewRepository) DeleteComment(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.comments[id]; !ok {
		return fmt.Errorf("comment %d: %w", id, models.ErrNotFound)
	}
	delete(r.comments, id)
	return nil
}

// ScoresForTitle exposes raw scores so the catalog mock can compute
// ratings the same way the SQL aggregate does.
func (r *MockReviewRepository) ScoresForTitle(titleID uint) []int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var scores []int
	for _, review := range r.reviews {
		if review.TitleID == titleID {
			scores = append(scores, review.Score)
		}
	}
	return scores
}
