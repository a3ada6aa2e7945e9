package services

import (
	"errors"
	"fmt"
	"time"

	"kritika/internal/models"
	"kritika/internal/repositories"
)

// CatalogService handles business logic for categories, genres and titles.
type CatalogService struct {
	catalogRepo repositories.CatalogRepository
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(catalogRepo repositories.CatalogRepository) *CatalogService {
	return &CatalogService{
		catalogRepo: catalogRepo,
	}
}

// TitleInput carries the write-side representation of a title: category and
// genres arrive as slugs and must resolve to existing records.
type TitleInput struct {
	Name         string
	Year         int
	Description  string
	CategorySlug string
	GenreSlugs   []string
}

// TitlePatch is a partial title update. Nil fields are left untouched; a
// non-nil empty CategorySlug detaches the category.
type TitlePatch struct {
	Name         *string
	Year         *int
	Description  *string
	CategorySlug *string
	GenreSlugs   *[]string
}

// CreateCategory adds a category after slug validation.
func (s *CatalogService) CreateCategory(name, slug string) (*models.Category, error) {
	if err := models.ValidateSlug(slug); err != nil {
		return nil, err
	}
	category := &models.Category{Name: name, Slug: slug}
	if err := s.catalogRepo.CreateCategory(category); err != nil {
		return nil, err
	}
	return category, nil
}

// ListCategories returns a page of categories plus the total count.
func (s *CatalogService) ListCategories(search string, limit, offset int) ([]models.Category, int64, error) {
	return s.catalogRepo.ListCategories(search, limit, offset)
}

// DeleteCategory removes a category; its titles survive with the category
// reference cleared.
func (s *CatalogService) DeleteCategory(slug string) error {
	return s.catalogRepo.DeleteCategory(slug)
}

// CreateGenre adds a genre after slug validation.
func (s *CatalogService) CreateGenre(name, slug string) (*models.Genre, error) {
	if err := models.ValidateSlug(slug); err != nil {
		return nil, err
	}
	genre := &models.Genre{Name: name, Slug: slug}
	if err := s.catalogRepo.CreateGenre(genre); err != nil {
		return nil, err
	}
	return genre, nil
}

// ListGenres returns a page of genres plus the total count.
func (s *CatalogService) ListGenres(search string, limit, offset int) ([]models.Genre, int64, error) {
	return s.catalogRepo.ListGenres(search, limit, offset)
}

// DeleteGenre removes a genre; titles that carried it just lose the link.
func (s *CatalogService) DeleteGenre(slug string) error {
	return s.catalogRepo.DeleteGenre(slug)
}

// CreateTitle validates the year bound, resolves category and genre slugs
// and stores the title with its associations.
func (s *CatalogService) CreateTitle(input TitleInput) (*models.Title, error) {
	if err := validateYear(input.Year); err != nil {
		return nil, err
	}
	title := &models.Title{
		Name:        input.Name,
		Year:        input.Year,
		Description: input.Description,
	}
	if err := s.resolveCategory(title, input.CategorySlug); err != nil {
		return nil, err
	}
	genres, err := s.resolveGenres(input.GenreSlugs)
	if err != nil {
		return nil, err
	}
	title.Genres = genres
	if err := s.catalogRepo.CreateTitle(title); err != nil {
		return nil, err
	}
	return s.catalogRepo.GetTitle(title.ID)
}

// GetTitle returns a title with its computed rating.
func (s *CatalogService) GetTitle(id uint) (*models.Title, error) {
	return s.catalogRepo.GetTitle(id)
}

// ListTitles returns a filtered page of titles plus the total count.
func (s *CatalogService) ListTitles(filter repositories.TitleFilter) ([]models.Title, int64, error) {
	return s.catalogRepo.ListTitles(filter)
}

// UpdateTitle applies a partial edit with the same validation as creation.
func (s *CatalogService) UpdateTitle(id uint, patch TitlePatch) (*models.Title, error) {
	title, err := s.catalogRepo.GetTitle(id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		title.Name = *patch.Name
	}
	if patch.Year != nil {
		if err := validateYear(*patch.Year); err != nil {
			return nil, err
		}
		title.Year = *patch.Year
	}
	if patch.Description != nil {
		title.Description = *patch.Description
	}
	if patch.CategorySlug != nil {
		title.CategoryID = nil
		title.Category = nil
		if err := s.resolveCategory(title, *patch.CategorySlug); err != nil {
			return nil, err
		}
	}
	if patch.GenreSlugs != nil {
		genres, err := s.resolveGenres(*patch.GenreSlugs)
		if err != nil {
			return nil, err
		}
		title.Genres = genres
	}
	if err := s.catalogRepo.SaveTitle(title); err != nil {
		return nil, err
	}
	return s.catalogRepo.GetTitle(id)
}

// DeleteTitle removes a title; reviews and comments cascade away.
func (s *CatalogService) DeleteTitle(id uint) error {
	return s.catalogRepo.DeleteTitle(id)
}

func (s *CatalogService) resolveCategory(title *models.Title, slug string) error {
	if slug == "" {
		return nil
	}
	category, err := s.catalogRepo.GetCategoryBySlug(slug)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("category %s: %w", slug, models.ErrUnknownReference)
		}
		return err
	}
	title.CategoryID = &category.ID
	title.Category = category
	return nil
}

func (s *CatalogService) resolveGenres(slugs []string) ([]models.Genre, error) {
	genres := make([]models.Genre, 0, len(slugs))
	for _, slug := range slugs {
		genre, err := s.catalogRepo.GetGenreBySlug(slug)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return nil, fmt.Errorf("genre %s: %w", slug, models.ErrUnknownReference)
			}
			return nil, err
		}
		genres = append(genres, *genre)
	}
	return genres, nil
}

func validateYear(year int) error {
	if year > time.Now().Year() {
		return fmt.Errorf("year %d: %w", year, models.ErrInvalidYear)
	}
	return nil
}
