package services

import (
	"encoding/json"
	"fmt"
	"log"

	"kritika/internal/models"
	"kritika/internal/repositories"
)

// ReviewService handles business logic for reviews and comments. Ownership
// checks for updates and deletes belong to the access policy, not here.
type ReviewService struct {
	reviewRepo  repositories.ReviewRepository
	catalogRepo repositories.CatalogRepository
	events      EventPublisher
}

// NewReviewService creates a new ReviewService. events may be nil.
func NewReviewService(reviewRepo repositories.ReviewRepository, catalogRepo repositories.CatalogRepository, events EventPublisher) *ReviewService {
	return &ReviewService{
		reviewRepo:  reviewRepo,
		catalogRepo: catalogRepo,
		events:      events,
	}
}

// CreateReview posts the author's single review of a title. The duplicate
// pre-check answers the common case; the unique index behind
// repositories.ReviewRepository settles concurrent double-submits.
func (s *ReviewService) CreateReview(titleID uint, author *models.User, text string, score int) (*models.Review, error) {
	if err := models.ValidateScore(score); err != nil {
		return nil, err
	}
	if _, err := s.catalogRepo.GetTitle(titleID); err != nil {
		return nil, err
	}
	if existing, err := s.reviewRepo.GetReviewByAuthor(titleID, author.ID); err == nil && existing != nil {
		return nil, fmt.Errorf("title %d: %w", titleID, models.ErrDuplicateReview)
	}

	review := &models.Review{
		TitleID:    titleID,
		AuthorID:   author.ID,
		AuthorName: author.Username,
		Text:       text,
		Score:      score,
	}
	if err := s.reviewRepo.CreateReview(review); err != nil {
		return nil, err
	}

	s.publish("review.created", map[string]interface{}{
		"review_id": review.ID,
		"title_id":  titleID,
		"author":    author.Username,
		"score":     score,
	})

	return review, nil
}

// GetReview returns a review scoped to its title.
func (s *ReviewService) GetReview(titleID, reviewID uint) (*models.Review, error) {
	if _, err := s.catalogRepo.GetTitle(titleID); err != nil {
		return nil, err
	}
	return s.reviewRepo.GetReview(titleID, reviewID)
}

// ListReviews returns a page of a title's reviews, newest first.
func (s *ReviewService) ListReviews(titleID uint, limit, offset int) ([]models.Review, int64, error) {
	if _, err := s.catalogRepo.GetTitle(titleID); err != nil {
		return nil, 0, err
	}
	return s.reviewRepo.ListReviews(titleID, limit, offset)
}

// UpdateReview edits the text and/or score of an existing review.
func (s *ReviewService) UpdateReview(review *models.Review, text *string, score *int) (*models.Review, error) {
	if text != nil {
		review.Text = *text
	}
	if score != nil {
		if err := models.ValidateScore(*score); err != nil {
			return nil, err
		}
		review.Score = *score
	}
	if err := s.reviewRepo.SaveReview(review); err != nil {
		return nil, err
	}
	return review, nil
}

// DeleteReview removes a review and its comments.
func (s *ReviewService) DeleteReview(id uint) error {
	return s.reviewRepo.DeleteReview(id)
}

// CreateComment posts a comment under a review of the given title.
func (s *ReviewService) CreateComment(titleID, reviewID uint, author *models.User, text string) (*models.Comment, error) {
	if _, err := s.reviewRepo.GetReview(titleID, reviewID); err != nil {
		return nil, err
	}
	comment := &models.Comment{
		ReviewID:   reviewID,
		AuthorID:   author.ID,
		AuthorName: author.Username,
		Text:       text,
	}
	if err := s.reviewRepo.CreateComment(comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// GetComment returns a comment scoped to its review and title.
func (s *ReviewService) GetComment(titleID, reviewID, commentID uint) (*models.Comment, error) {
	if _, err := s.reviewRepo.GetReview(titleID, reviewID); err != nil {
		return nil, err
	}
	return s.reviewRepo.GetComment(reviewID, commentID)
}

// ListComments returns a page of a review's comments, newest first.
func (s *ReviewService) ListComments(titleID, reviewID uint, limit, offset int) ([]models.Comment, int64, error) {
	if _, err := s.reviewRepo.GetReview(titleID, reviewID); err != nil {
		return nil, 0, err
	}
	return s.reviewRepo.ListComments(reviewID, limit, offset)
}

// UpdateComment edits the text of an existing comment.
func (s *ReviewService) UpdateComment(comment *models.Comment, text string) (*models.Comment, error) {
	comment.Text = text
	if err := s.reviewRepo.SaveComment(comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// DeleteComment removes a single comment.
func (s *ReviewService) DeleteComment(id uint) error {
	return s.reviewRepo.DeleteComment(id)
}

func (s *ReviewService) publish(routingKey string, payload map[string]interface{}) {
	if s.events == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", routingKey, err)
		return
	}
	if err := s.events.Publish(routingKey, body); err != nil {
		log.Printf("Warning: failed to publish %s event: %v", routingKey, err)
	}
}
