package repositories

import (
	"errors"
	"fmt"

	"kritika/internal/models"

	"gorm.io/gorm"
)

// GORMCatalogRepository is a GORM implementation of CatalogRepository.
type GORMCatalogRepository struct {
	db *gorm.DB
}

// NewGORMCatalogRepository creates a new instance of GORMCatalogRepository.
func NewGORMCatalogRepository(db *gorm.DB) *GORMCatalogRepository {
	return &GORMCatalogRepository{
		db: db,
	}
}

// CreateCategory inserts a new category. A slug collision surfaces as
// models.ErrDuplicateSlug.
func (r *GORMCatalogRepository) CreateCategory(category *models.Category) error {
	if err := r.db.Create(category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("category slug %s: %w", category.Slug, models.ErrDuplicateSlug)
		}
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

// GetCategoryBySlug retrieves a category by its slug.
func (r *GORMCatalogRepository) GetCategoryBySlug(slug string) (*models.Category, error) {
	var category models.Category
	if err := r.db.First(&category, "slug = ?", slug).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("category %s: %w", slug, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get category %s: %w", slug, err)
	}
	return &category, nil
}

// ListCategories returns a page of categories ordered by name plus the
// unpaginated count. A non-empty search narrows by name substring.
func (r *GORMCatalogRepository) ListCategories(search string, limit, offset int) ([]models.Category, int64, error) {
	q := r.db.Model(&models.Category{})
	if search != "" {
		q = q.Where("name LIKE ?", "%"+search+"%")
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count categories: %w", err)
	}
	var categories []models.Category
	if err := q.Order("name").Limit(limit).Offset(offset).Find(&categories).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, count, nil
}

// DeleteCategory removes a category and detaches its titles. Titles survive
// with an absent category reference.
func (r *GORMCatalogRepository) DeleteCategory(slug string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var category models.Category
		if err := tx.First(&category, "slug = ?", slug).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("category %s: %w", slug, models.ErrNotFound)
			}
			return fmt.Errorf("failed to load category %s: %w", slug, err)
		}
		if err := tx.Model(&models.Title{}).
			Where("category_id = ?", category.ID).
			Update("category_id", nil).Error; err != nil {
			return fmt.Errorf("failed to detach titles from category %s: %w", slug, err)
		}
		if err := tx.Delete(&category).Error; err != nil {
			return fmt.Errorf("failed to delete category %s: %w", slug, err)
		}
		return nil
	})
}

// CreateGenre inserts a new genre. A slug collision surfaces as
// models.ErrDuplicateSlug.
func (r *GORMCatalogRepository) CreateGenre(genre *models.Genre) error {
	if err := r.db.Create(genre).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("genre slug %s: %w", genre.Slug, models.ErrDuplicateSlug)
		}
		return fmt.Errorf("failed to create genre: %w", err)
	}
	return nil
}

// GetGenreBySlug retrieves a genre by its slug.
func (r *GORMCatalogRepository) GetGenreBySlug(slug string) (*models.Genre, error) {
	var genre models.Genre
	if err := r.db.First(&genre, "slug = ?", slug).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("genre %s: %w", slug, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get genre %s: %w", slug, err)
	}
	return &genre, nil
}

// ListGenres returns a page of genres ordered by name plus the unpaginated
// count. A non-empty search narrows by name substring.
func (r *GORMCatalogRepository) ListGenres(search string, limit, offset int) ([]models.Genre, int64, error) {
	q := r.db.Model(&models.Genre{})
	if search != "" {
		q = q.Where("name LIKE ?", "%"+search+"%")
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count genres: %w", err)
	}
	var genres []models.Genre
	if err := q.Order("name").Limit(limit).Offset(offset).Find(&genres).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list genres: %w", err)
	}
	return genres, count, nil
}

// DeleteGenre removes a genre and its association rows. Titles that carried
// the genre are left in place.
func (r *GORMCatalogRepository) DeleteGenre(slug string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var genre models.Genre
		if err := tx.First(&genre, "slug = ?", slug).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("genre %s: %w", slug, models.ErrNotFound)
			}
			return fmt.Errorf("failed to load genre %s: %w", slug, err)
		}
		if err := tx.Where("genre_id = ?", genre.ID).Delete(&models.GenreTitle{}).Error; err != nil {
			return fmt.Errorf("failed to delete associations of genre %s: %w", slug, err)
		}
		if err := tx.Delete(&genre).Error; err != nil {
			return fmt.Errorf("failed to delete genre %s: %w", slug, err)
		}
		return nil
	})
}

// CreateTitle inserts a title and its genre associations in one
// transaction. Category and genres must already exist; the caller resolves
// slugs to records beforehand.
func (r *GORMCatalogRepository) CreateTitle(title *models.Title) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Genres", "Category").Create(title).Error; err != nil {
			return fmt.Errorf("failed to create title: %w", err)
		}
		for _, genre := range title.Genres {
			link := models.GenreTitle{TitleID: title.ID, GenreID: genre.ID}
			if err := tx.Create(&link).Error; err != nil {
				return fmt.Errorf("failed to link title to genre %s: %w", genre.Slug, err)
			}
		}
		return nil
	})
}

// SaveTitle persists field changes and replaces the genre association set.
func (r *GORMCatalogRepository) SaveTitle(title *models.Title) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Omit("Genres", "Category").Save(title)
		if res.Error != nil {
			return fmt.Errorf("failed to save title %d: %w", title.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("title %d: %w", title.ID, models.ErrNotFound)
		}
		if err := tx.Where("title_id = ?", title.ID).Delete(&models.GenreTitle{}).Error; err != nil {
			return fmt.Errorf("failed to clear genre links for title %d: %w", title.ID, err)
		}
		for _, genre := range title.Genres {
			link := models.GenreTitle{TitleID: title.ID, GenreID: genre.ID}
			if err := tx.Create(&link).Error; err != nil {
				return fmt.Errorf("failed to link title to genre %s: %w", genre.Slug, err)
			}
		}
		return nil
	})
}

// GetTitle retrieves a title with its category, genres and computed rating.
func (r *GORMCatalogRepository) GetTitle(id uint) (*models.Title, error) {
	var title models.Title
	err := r.db.Preload("Category").Preload("Genres").First(&title, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("title %d: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get title %d: %w", id, err)
	}
	titles := []models.Title{title}
	if err := r.annotateRatings(titles); err != nil {
		return nil, err
	}
	return &titles[0], nil
}

// ListTitles returns a filtered page of titles ordered by name, each with
// its computed rating, plus the unpaginated count.
func (r *GORMCatalogRepository) ListTitles(filter TitleFilter) ([]models.Title, int64, error) {
	q := r.db.Model(&models.Title{})
	if filter.Name != "" {
		q = q.Where("name LIKE ?", "%"+filter.Name+"%")
	}
	if filter.Year != nil {
		q = q.Where("year = ?", *filter.Year)
	}
	if filter.CategorySlug != "" {
		q = q.Where("category_id IN (?)",
			r.db.Model(&models.Category{}).Select("id").Where("slug = ?", filter.CategorySlug))
	}
	if filter.GenreSlug != "" {
		q = q.Where("id IN (?)",
			r.db.Model(&models.GenreTitle{}).Select("title_id").Where("genre_id IN (?)",
				r.db.Model(&models.Genre{}).Select("id").Where("slug = ?", filter.GenreSlug)))
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count titles: %w", err)
	}
	var titles []models.Title
	err := q.Preload("Category").Preload("Genres").
		Order("name").Limit(filter.Limit).Offset(filter.Offset).
		Find(&titles).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list titles: %w", err)
	}
	if err := r.annotateRatings(titles); err != nil {
		return nil, 0, err
	}
	return titles, count, nil
}

// DeleteTitle removes a title together with its reviews, their comments and
// its genre associations.
func (r *GORMCatalogRepository) DeleteTitle(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var title models.Title
		if err := tx.First(&title, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("title %d: %w", id, models.ErrNotFound)
			}
			return fmt.Errorf("failed to load title %d: %w", id, err)
		}
		if err := tx.Where("review_id IN (?)",
			tx.Model(&models.Review{}).Select("id").Where("title_id = ?", id),
		).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("failed to delete comments under title %d: %w", id, err)
		}
		if err := tx.Where("title_id = ?", id).Delete(&models.Review{}).Error; err != nil {
			return fmt.Errorf("failed to delete reviews of title %d: %w", id, err)
		}
		if err := tx.Where("title_id = ?", id).Delete(&models.GenreTitle{}).Error; err != nil {
			return fmt.Errorf("failed to delete genre links of title %d: %w", id, err)
		}
		if err := tx.Delete(&title).Error; err != nil {
			return fmt.Errorf("failed to delete title %d: %w", id, err)
		}
		return nil
	})
}

// annotateRatings fills in the computed rating for each title from the
// average review score. Titles without reviews keep a nil rating.
func (r *GORMCatalogRepository) annotateRatings(titles []models.Title) error {
	if len(titles) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(titles))
	for i := range titles {
		ids = append(ids, titles[i].ID)
	}
	type scoreRow struct {
		TitleID uint
		Avg     float64
	}
	var rows []scoreRow
	err := r.db.Model(&models.Review{}).
		Select("title_id, AVG(score) AS avg").
		Where("title_id IN ?", ids).
		Group("title_id").
		Scan(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to aggregate review scores: %w", err)
	}
	byTitle := make(map[uint]float64, len(rows))
	for _, row := range rows {
		byTitle[row.TitleID] = row.Avg
	}
	for i := range titles {
		if avg, ok := byTitle[titles[i].ID]; ok {
			rounded := int(avg + 0.5)
			titles[i].Rating = &rounded
		}
	}
	return nil
}
