package services_test

import (
	"errors"
	"testing"

	"kritika/internal/models"
	"kritika/internal/repositories"
	"kritika/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newReviewFixture(t *testing.T) (*services.ReviewService, *models.Title) {
	t.Helper()
	catalogRepo := repositories.NewMockCatalogRepository()
	reviewRepo := repositories.NewMockReviewRepository()
	catalogRepo.AttachReviews(reviewRepo)

	title := &models.Title{Name: "Manhattan", Year: 1979}
	assert.NoError(t, catalogRepo.CreateTitle(title))

	return services.NewReviewService(reviewRepo, catalogRepo, nil), title
}

func reviewer(id uint, name string) *models.User {
	return &models.User{ID: id, Username: name, Role: models.RoleUser}
}

func TestReviewService_CreateReview(t *testing.T) {
	reviewService, title := newReviewFixture(t)
	author := reviewer(1, "reader")

	review, err := reviewService.CreateReview(title.ID, author, "A classic.", 9)
	assert.NoError(t, err)
	assert.NotZero(t, review.ID)
	assert.Equal(t, "reader", review.AuthorName)
	assert.False(t, review.CreatedAt.IsZero())
}

func TestReviewService_ScoreBounds(t *testing.T) {
	reviewService, title := newReviewFixture(t)
	author := reviewer(1, "reader")

	for _, score := range []int{0, 11, -3} {
		_, err := reviewService.CreateReview(title.ID, author, "out of range", score)
		assert.Error(t, err, "score %d must be rejected", score)
		assert.True(t, errors.Is(err, models.ErrInvalidScore))
	}

	_, err := reviewService.CreateReview(title.ID, author, "bounds are inclusive", 1)
	assert.NoError(t, err)
}

func TestReviewService_OneReviewPerAuthor(t *testing.T) {
	reviewService, title := newReviewFixture(t)
	author := reviewer(1, "reader")

	_, err := reviewService.CreateReview(title.ID, author, "First take.", 7)
	assert.NoError(t, err)

	// A different text or score does not open a second slot.
	_, err = reviewService.CreateReview(title.ID, author, "Changed my mind.", 3)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrDuplicateReview))

	// Another author still reviews freely.
	_, err = reviewService.CreateReview(title.ID, reviewer(2, "other"), "Second opinion.", 5)
	assert.NoError(t, err)
}

func TestReviewService_UnknownTitle(t *testing.T) {
	reviewService, _ := newReviewFixture(t)
	author := reviewer(1, "reader")

	_, err := reviewService.CreateReview(9999, author, "Into the void.", 5)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNotFound))

	_, _, err = reviewService.ListReviews(9999, 0, 0)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestReviewService_ListNewestFirst(t *testing.T) {
	reviewService, title := newReviewFixture(t)

	first, err := reviewService.CreateReview(title.ID, reviewer(1, "a"), "first", 5)
	assert.NoError(t, err)
	second, err := reviewService.CreateReview(title.ID, reviewer(2, "b"), "second", 6)
	assert.NoError(t, err)
	third, err := reviewService.CreateReview(title.ID, reviewer(3, "c"), "third", 7)
	assert.NoError(t, err)

	reviews, count, err := reviewService.ListReviews(title.ID, 0, 0)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), count)
	if assert.Len(t, reviews, 3) {
		assert.Equal(t, third.ID, reviews[0].ID)
		assert.Equal(t, second.ID, reviews[1].ID)
		assert.Equal(t, first.ID, reviews[2].ID)
	}
}

func TestReviewService_UpdateReview(t *testing.T) {
	reviewService, title := newReviewFixture(t)

	review, err := reviewService.CreateReview(title.ID, reviewer(1, "reader"), "First take.", 7)
	assert.NoError(t, err)

	newText := "On reflection."
	newScore := 4
	updated, err := reviewService.UpdateReview(review, &newText, &newScore)
	assert.NoError(t, err)
	assert.Equal(t, newText, updated.Text)
	assert.Equal(t, newScore, updated.Score)

	badScore := 42
	_, err = reviewService.UpdateReview(review, nil, &badScore)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidScore))
}

func TestReviewService_CommentsScopedToReview(t *testing.T) {
	reviewService, title := newReviewFixture(t)
	author := reviewer(1, "reader")

	review, err := reviewService.CreateReview(title.ID, author, "A classic.", 9)
	assert.NoError(t, err)

	comment, err := reviewService.CreateComment(title.ID, review.ID, reviewer(2, "replier"), "Agreed.")
	assert.NoError(t, err)
	assert.Equal(t, "replier", comment.AuthorName)

	// A comment under a review that does not exist fails up front.
	_, err = reviewService.CreateComment(title.ID, 9999, author, "Nobody home.")
	assert.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNotFound))

	// The wrong title in the path hides the review.
	_, err = reviewService.GetComment(9999, review.ID, comment.ID)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNotFound))

	comments, count, err := reviewService.ListComments(title.ID, review.ID, 0, 0)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Len(t, comments, 1)
}

func TestReviewService_DeleteReviewDropsComments(t *testing.T) {
	reviewService, title := newReviewFixture(t)

	review, err := reviewService.CreateReview(title.ID, reviewer(1, "reader"), "A classic.", 9)
	assert.NoError(t, err)
	_, err = reviewService.CreateComment(title.ID, review.ID, reviewer(2, "replier"), "Agreed.")
	assert.NoError(t, err)

	assert.NoError(t, reviewService.DeleteReview(review.ID))

	_, _, err = reviewService.ListComments(title.ID, review.ID, 0, 0)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestReviewService_CreatePublishesEvent(t *testing.T) {
	catalogRepo := repositories.NewMockCatalogRepository()
	reviewRepo := repositories.NewMockReviewRepository()
	title := &models.Title{Name: "Manhattan", Year: 1979}
	assert.NoError(t, catalogRepo.CreateTitle(title))

	events := new(MockEventPublisher)
	events.On("Publish", "review.created", mock.Anything).Return(nil).Once()
	reviewService := services.NewReviewService(reviewRepo, catalogRepo, events)

	_, err := reviewService.CreateReview(title.ID, reviewer(1, "reader"), "A classic.", 9)
	assert.NoError(t, err)
	events.AssertExpectations(t)
}
