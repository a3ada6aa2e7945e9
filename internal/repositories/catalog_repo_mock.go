package repositories

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"kritika/internal/models"
)

// MockCatalogRepository is an in-memory implementation of CatalogRepository.
type MockCatalogRepository struct {
	categories  map[uint]models.Category
	genres      map[uint]models.Genre
	titles      map[uint]models.Title
	nextID      uint
	reviewsRepo *MockReviewRepository // optional rating source
	mu          sync.RWMutex
}

// NewMockCatalogRepository creates a new instance of MockCatalogRepository.
func NewMockCatalogRepository() *MockCatalogRepository {
	return &MockCatalogRepository{
		categories: make(map[uint]models.Category),
		genres:     make(map[uint]models.Genre),
		titles:     make(map[uint]models.Title),
		nextID:     1,
	}
}

// AttachReviews wires a review repository so listed titles carry computed
// ratings, mirroring the SQL aggregate of the GORM implementation.
func (r *MockCatalogRepository) AttachReviews(reviews *MockReviewRepository) {
	r.reviewsRepo = reviews
}

// CreateCategory adds a category, enforcing slug uniqueness.
func (r *MockCatalogRepository) CreateCategory(category *models.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.categories {
		if existing.Slug == category.Slug {
			return fmt.Errorf("category slug %s: %w", category.Slug, models.ErrDuplicateSlug)
		}
	}
	category.ID = r.allocID(category.ID)
	r.categories[category.ID] = *category
	return nil
}

// GetCategoryBySlug returns a category by slug.
func (r *MockCatalogRepository) GetCategoryBySlug(slug string) (*models.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, category := range r.categories {
		if category.Slug == slug {
			c := category
			return &c, nil
		}
	}
	return nil, fmt.Errorf("category %s: %w", slug, models.ErrNotFound)
}

// ListCategories returns categories ordered by name.
func (r *MockCatalogRepository) ListCategories(search string, limit, offset int) ([]models.Category, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]models.Category, 0, len(r.categories))
	for _, category := range r.categories {
		if search == "" || strings.Contains(category.Name, search) {
			matched = append(matched, category)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })
	count := int64(len(matched))
	return sliceCategories(matched, limit, offset), count, nil
}

// DeleteCategory removes a category and detaches its titles.
func (r *MockCatalogRepository) DeleteCategory(slug string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, category := range r.categories {
		if category.Slug != slug {
			continue
		}
		delete(r.categories, id)
		for titleID, title := range r.titles {
			if title.CategoryID != nil && *title.CategoryID == id {
				title.CategoryID = nil
				title.Category = nil
				r.titles[titleID] = title
			}
		}
		return nil
	}
	return fmt.Errorf("category %s: %w", slug, models.ErrNotFound)
}

// CreateGenre adds a genre, enforcing slug uniqueness.
func (r *MockCatalogRepository) CreateGenre(genre *models.Genre) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.genres {
		if existing.Slug == genre.Slug {
			return fmt.Errorf("genre slug %s: %w", genre.Slug, models.ErrDuplicateSlug)
		}
	}
	genre.ID = r.allocID(genre.ID)
	r.genres[genre.ID] = *genre
	return nil
}

// GetGenreBySlug returns a genre by slug.
func (r *MockCatalogRepository) GetGenreBySlug(slug string) (*models.Genre, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, genre := range r.genres {
		if genre.Slug == slug {
			g := genre
			return &g, nil
		}
	}
	return nil, fmt.Errorf("genre %s: %w", slug, models.ErrNotFound)
}

// ListGenres returns genres ordered by name.
func (r *MockCatalogRepository) ListGenres(search string, limit, offset int) ([]models.Genre, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]models.Genre, 0, len(r.genres))
	for _, genre := range r.genres {
		if search == "" || strings.Contains(genre.Name, search) {
			matched = append(matched, genre)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })
	count := int64(len(matched))
	return sliceGenres(matched, limit, offset), count, nil
}

// DeleteGenre removes a genre and drops it from titles that carried it.
func (r *MockCatalogRepository) DeleteGenre(slug string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, genre := range r.genres {
		if genre.Slug != slug {
			continue
		}
		delete(r.genres, id)
		for titleID, title := range r.titles {
			kept := title.Genres[:0]
			for _, g := range title.Genres {
				if g.ID != id {
					kept = append(kept, g)
				}
			}
			title.Genres = kept
			r.titles[titleID] = title
		}
		return nil
	}
	return fmt.Errorf("genre %s: %w", slug, models.ErrNotFound)
}

// CreateTitle adds a title with its genre links.
func (r *MockCatalogRepository) CreateTitle(title *models.Title) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	title.ID = r.allocID(title.ID)
	r.titles[title.ID] = *title
	return nil
}

// SaveTitle replaces an existing title.
func (r *MockCatalogRepository) SaveTitle(title *models.Title) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.titles[title.ID]; !ok {
		return fmt.Errorf("title %d: %w", title.ID, models.ErrNotFound)
	}
	r.titles[title.ID] = *title
	return nil
}

// GetTitle returns a title with its rating.
func (r *MockCatalogRepository) GetTitle(id uint) (*models.Title, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	title, ok := r.titles[id]
	if !ok {
		return nil, fmt.Errorf("title %d: %w", id, models.ErrNotFound)
	}
	r.annotate(&title)
	return &title, nil
}

// ListTitles returns a filtered page of titles ordered by name, rated.
func (r *MockCatalogRepository) ListTitles(filter TitleFilter) ([]models.Title, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]models.Title, 0, len(r.titles))
	for _, title := range r.titles {
		if filter.Name != "" && !strings.Contains(title.Name, filter.Name) {
			continue
		}
		if filter.Year != nil && title.Year != *filter.Year {
			continue
		}
		if filter.CategorySlug != "" {
			if title.Category == nil || title.Category.Slug != filter.CategorySlug {
				continue
			}
		}
		if filter.GenreSlug != "" && !hasGenre(title.Genres, filter.GenreSlug) {
			continue
		}
		matched = append(matched, title)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })
	count := int64(len(matched))
	page := sliceTitles(matched, filter.Limit, filter.Offset)
	for i := range page {
		r.annotate(&page[i])
	}
	return page, count, nil
}

// DeleteTitle removes a title; attached reviews and their comments go too.
func (r *MockCatalogRepository) DeleteTitle(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.titles[id]; !ok {
		return fmt.Errorf("title %d: %w", id, models.ErrNotFound)
	}
	delete(r.titles, id)
	if r.reviewsRepo != nil {
		reviews, _, _ := r.reviewsRepo.ListReviews(id, 0, 0)
		for _, review := range reviews {
			_ = r.reviewsRepo.DeleteReview(review.ID)
		}
	}
	return nil
}

func (r *MockCatalogRepository) allocID(requested uint) uint {
	if requested == 0 {
		id := r.nextID
		r.nextID++
		return id
	}
	if requested >= r.nextID {
		r.nextID = requested + 1
	}
	return requested
}

func (r *MockCatalogRepository) annotate(title *models.Title) {
	if r.reviewsRepo == nil {
		return
	}
	title.Rating = models.RatingFromScores(r.reviewsRepo.ScoresForTitle(title.ID))
}

func hasGenre(genres []models.Genre, slug string) bool {
	for _, genre := range genres {
		if genre.Slug == slug {
			return true
		}
	}
	return false
}

func sliceCategories(items []models.Category, limit, offset int) []models.Category {
	if offset >= len(items) {
		return []models.Category{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

func sliceGenres(items []models.Genre, limit, offset int) []models.Genre {
	if offset >= len(items) {
		return []models.Genre{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

func sliceTitles(items []models.Title, limit, offset int) []models.Title {
	if offset >= len(items) {
		return []models.Title{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
