package services_test

import (
	"errors"
	"testing"
	"time"

	"kritika/internal/models"
	"kritika/internal/repositories"
	"kritika/internal/services"

	"github.com/stretchr/testify/assert"
)

func newCatalogFixture() (*services.CatalogService, *repositories.MockCatalogRepository, *repositories.MockReviewRepository) {
	catalogRepo := repositories.NewMockCatalogRepository()
	reviewRepo := repositories.NewMockReviewRepository()
	catalogRepo.AttachReviews(reviewRepo)
	return services.NewCatalogService(catalogRepo), catalogRepo, reviewRepo
}

func seedCatalog(t *testing.T, catalogService *services.CatalogService) {
	t.Helper()
	_, err := catalogService.CreateCategory("Movies", "movies")
	assert.NoError(t, err)
	_, err = catalogService.CreateGenre("Drama", "drama")
	assert.NoError(t, err)
	_, err = catalogService.CreateGenre("Comedy", "comedy")
	assert.NoError(t, err)
}

func TestCatalogService_CreateCategoryValidatesSlug(t *testing.T) {
	catalogService, _, _ := newCatalogFixture()

	category, err := catalogService.CreateCategory("Movies", "movies")
	assert.NoError(t, err)
	assert.NotZero(t, category.ID)

	_, err = catalogService.CreateCategory("Bad", "no spaces here")
	assert.Error(t, err)
	var invalid *models.ValidationError
	assert.True(t, errors.As(err, &invalid))
	assert.Equal(t, "slug", invalid.Field)
}

func TestCatalogService_DuplicateSlug(t *testing.T) {
	catalogService, _, _ := newCatalogFixture()

	_, err := catalogService.CreateCategory("Movies", "movies")
	assert.NoError(t, err)

	_, err = catalogService.CreateCategory("Films", "movies")
	assert.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrDuplicateSlug))

	_, err = catalogService.CreateGenre("Drama", "drama")
	assert.NoError(t, err)
	_, err = catalogService.CreateGenre("Theatre", "drama")
	assert.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrDuplicateSlug))
}

func TestCatalogService_CreateTitleYearBound(t *testing.T) {
	catalogService, _, _ := newCatalogFixture()
	seedCatalog(t, catalogService)

	current := time.Now().Year()

	title, err := catalogService.CreateTitle(services.TitleInput{
		Name: "This Year", Year: current, CategorySlug: "movies",
	})
	assert.NoError(t, err)
	assert.Equal(t, current, title.Year)

	_, err = catalogService.CreateTitle(services.TitleInput{
		Name: "Next Year", Year: current + 1, CategorySlug: "movies",
	})
	assert.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidYear))
}

func TestCatalogService_CreateTitleUnknownReferences(t *testing.T) {
	catalogService, _, _ := newCatalogFixture()
	seedCatalog(t, catalogService)

	_, err := catalogService.CreateTitle(services.TitleInput{
		Name: "Orphan", Year: 2000, CategorySlug: "does-not-exist",
	})
	assert.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrUnknownReference))

	_, err = catalogService.CreateTitle(services.TitleInput{
		Name: "Orphan", Year: 2000, CategorySlug: "movies", GenreSlugs: []string{"drama", "missing"},
	})
	assert.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrUnknownReference))
}

func TestCatalogService_CreateTitleResolvesAssociations(t *testing.T) {
	catalogService, _, _ := newCatalogFixture()
	seedCatalog(t, catalogService)

	title, err := catalogService.CreateTitle(services.TitleInput{
		Name:         "Manhattan",
		Year:         1979,
		CategorySlug: "movies",
		GenreSlugs:   []string{"drama", "comedy"},
	})
	assert.NoError(t, err)
	assert.NotNil(t, title.Category)
	assert.Equal(t, "movies", title.Category.Slug)
	assert.Len(t, title.Genres, 2)
	assert.Nil(t, title.Rating, "a fresh title has no rating")
}

func TestCatalogService_DeleteCategoryDetachesTitles(t *testing.T) {
	catalogService, _, _ := newCatalogFixture()
	seedCatalog(t, catalogService)

	title, err := catalogService.CreateTitle(services.TitleInput{
		Name: "Manhattan", Year: 1979, CategorySlug: "movies",
	})
	assert.NoError(t, err)

	assert.NoError(t, catalogService.DeleteCategory("movies"))

	survivor, err := catalogService.GetTitle(title.ID)
	assert.NoError(t, err, "title outlives its category")
	assert.Nil(t, survivor.Category)
}

func TestCatalogService_RatingAggregation(t *testing.T) {
	catalogService, _, reviewRepo := newCatalogFixture()
	seedCatalog(t, catalogService)

	title, err := catalogService.CreateTitle(services.TitleInput{
		Name: "Manhattan", Year: 1979, CategorySlug: "movies",
	})
	assert.NoError(t, err)

	fetched, err := catalogService.GetTitle(title.ID)
	assert.NoError(t, err)
	assert.Nil(t, fetched.Rating)

	assert.NoError(t, reviewRepo.CreateReview(&models.Review{TitleID: title.ID, AuthorID: 1, Score: 8}))
	assert.NoError(t, reviewRepo.CreateReview(&models.Review{TitleID: title.ID, AuthorID: 2, Score: 10}))

	fetched, err = catalogService.GetTitle(title.ID)
	assert.NoError(t, err)
	if assert.NotNil(t, fetched.Rating) {
		assert.Equal(t, 9, *fetched.Rating, "mean of 8 and 10")
	}

	// 8, 10, 5 averages to 7.67 and rounds up.
	assert.NoError(t, reviewRepo.CreateReview(&models.Review{TitleID: title.ID, AuthorID: 3, Score: 5}))
	fetched, err = catalogService.GetTitle(title.ID)
	assert.NoError(t, err)
	if assert.NotNil(t, fetched.Rating) {
		assert.Equal(t, 8, *fetched.Rating)
	}
}

func TestCatalogService_ListTitlesFilters(t *testing.T) {
	catalogService, _, _ := newCatalogFixture()
	seedCatalog(t, catalogService)
	_, err := catalogService.CreateCategory("Books", "books")
	assert.NoError(t, err)

	_, err = catalogService.CreateTitle(services.TitleInput{
		Name: "Manhattan", Year: 1979, CategorySlug: "movies", GenreSlugs: []string{"drama"},
	})
	assert.NoError(t, err)
	_, err = catalogService.CreateTitle(services.TitleInput{
		Name: "Hamlet", Year: 1600, CategorySlug: "books", GenreSlugs: []string{"drama"},
	})
	assert.NoError(t, err)
	_, err = catalogService.CreateTitle(services.TitleInput{
		Name: "Airplane!", Year: 1980, CategorySlug: "movies", GenreSlugs: []string{"comedy"},
	})
	assert.NoError(t, err)

	titles, count, err := catalogService.ListTitles(repositories.TitleFilter{CategorySlug: "movies"})
	assert.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Len(t, titles, 2)

	titles, count, err = catalogService.ListTitles(repositories.TitleFilter{GenreSlug: "drama"})
	assert.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Len(t, titles, 2)

	year := 1600
	titles, count, err = catalogService.ListTitles(repositories.TitleFilter{Year: &year})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, "Hamlet", titles[0].Name)

	titles, count, err = catalogService.ListTitles(repositories.TitleFilter{Name: "Man"})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, "Manhattan", titles[0].Name)
}

func TestCatalogService_UpdateTitlePatch(t *testing.T) {
	catalogService, _, _ := newCatalogFixture()
	seedCatalog(t, catalogService)

	title, err := catalogService.CreateTitle(services.TitleInput{
		Name: "Manhattan", Year: 1979, CategorySlug: "movies", GenreSlugs: []string{"drama"},
	})
	assert.NoError(t, err)

	newName := "Manhattan (restored)"
	updated, err := catalogService.UpdateTitle(title.ID, services.TitlePatch{Name: &newName})
	assert.NoError(t, err)
	assert.Equal(t, newName, updated.Name)
	assert.Equal(t, 1979, updated.Year, "unset fields keep their values")
	assert.NotNil(t, updated.Category)

	badYear := time.Now().Year() + 5
	_, err = catalogService.UpdateTitle(title.ID, services.TitlePatch{Year: &badYear})
	assert.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidYear))

	detach := ""
	updated, err = catalogService.UpdateTitle(title.ID, services.TitlePatch{CategorySlug: &detach})
	assert.NoError(t, err)
	assert.Nil(t, updated.Category, "empty category slug detaches")

	_, err = catalogService.UpdateTitle(9999, services.TitlePatch{Name: &newName})
	assert.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestCatalogService_DeleteGenreKeepsTitles(t *testing.T) {
	catalogService, _, _ := newCatalogFixture()
	seedCatalog(t, catalogService)

	title, err := catalogService.CreateTitle(services.TitleInput{
		Name: "Manhattan", Year: 1979, CategorySlug: "movies", GenreSlugs: []string{"drama", "comedy"},
	})
	assert.NoError(t, err)

	assert.NoError(t, catalogService.DeleteGenre("drama"))

	survivor, err := catalogService.GetTitle(title.ID)
	assert.NoError(t, err)
	assert.Len(t, survivor.Genres, 1)
	assert.Equal(t, "comedy", survivor.Genres[0].Slug)
}
