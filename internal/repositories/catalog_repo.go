package repositories

import "kritika/internal/models"

// TitleFilter narrows ListTitles results. Zero values mean "no filter".
type TitleFilter struct {
	Name         string
	CategorySlug string
	GenreSlug    string
	Year         *int
	Limit        int
	Offset       int
}

// CatalogRepository defines data access for categories, genres and titles.
// Deletion semantics: removing a category detaches its titles (category
// becomes absent), removing a genre only drops association rows, removing
// a title cascades to its reviews and their comments.
type CatalogRepository interface {
	CreateCategory(category *models.Category) error
	GetCategoryBySlug(slug string) (*models.Category, error)
	ListCategories(search string, limit, offset int) ([]models.Category, int64, error)
	DeleteCategory(slug string) error

	CreateGenre(genre *models.Genre) error
	GetGenreBySlug(slug string) (*models.Genre, error)
	ListGenres(search string, limit, offset int) ([]models.Genre, int64, error)
	DeleteGenre(slug string) error

	CreateTitle(title *models.Title) error
	SaveTitle(title *models.Title) error
	GetTitle(id uint) (*models.Title, error)
	ListTitles(filter TitleFilter) ([]models.Title, int64, error)
	DeleteTitle(id uint) error
}
