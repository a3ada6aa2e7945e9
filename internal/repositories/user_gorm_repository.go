package repositories

import (
	"errors"
	"fmt"

	"kritika/internal/models"

	"gorm.io/gorm"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

// Create inserts a new user.
func (r *GORMUserRepository) Create(user *models.User) error {
	if err := r.db.Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// Save persists all fields of an existing user.
func (r *GORMUserRepository) Save(user *models.User) error {
	res := r.db.Save(user)
	if res.Error != nil {
		return fmt.Errorf("failed to save user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %s: %w", user.Username, models.ErrNotFound)
	}
	return nil
}

// Delete removes a user by username. Reviews and comments authored by the
// user go with it.
func (r *GORMUserRepository) Delete(username string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, "username = ?", username).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("user %s: %w", username, models.ErrNotFound)
			}
			return fmt.Errorf("failed to load user %s: %w", username, err)
		}
		if err := tx.Where("review_id IN (?)",
			tx.Model(&models.Review{}).Select("id").Where("author_id = ?", user.ID),
		).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("failed to delete comments under user reviews: %w", err)
		}
		if err := tx.Where("author_id = ?", user.ID).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("failed to delete user comments: %w", err)
		}
		if err := tx.Where("author_id = ?", user.ID).Delete(&models.Review{}).Error; err != nil {
			return fmt.Errorf("failed to delete user reviews: %w", err)
		}
		if err := tx.Delete(&user).Error; err != nil {
			return fmt.Errorf("failed to delete user %s: %w", username, err)
		}
		return nil
	})
}

// GetByID retrieves a user by primary key.
func (r *GORMUserRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user id %d: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by id %d: %w", id, err)
	}
	return &user, nil
}

// GetByUsername retrieves a user by their username.
func (r *GORMUserRepository) GetByUsername(username string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", username, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by username %s: %w", username, err)
	}
	return &user, nil
}

// GetByEmail retrieves a user by their email.
func (r *GORMUserRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user with email %s: %w", email, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by email %s: %w", email, err)
	}
	return &user, nil
}

// List returns a page of users ordered by username, optionally narrowed to
// usernames containing search, plus the unpaginated count.
func (r *GORMUserRepository) List(search string, limit, offset int) ([]models.User, int64, error) {
	q := r.db.Model(&models.User{})
	if search != "" {
		q = q.Where("username LIKE ?", "%"+search+"%")
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}
	var users []models.User
	if err := q.Order("username").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, count, nil
}
