package repositories

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"kritika/internal/models"
)

// MockUserRepository is an in-memory implementation of UserRepository.
type MockUserRepository struct {
	users  map[uint]models.User
	nextID uint
	mu     sync.RWMutex
}

// NewMockUserRepository creates a new instance of MockUserRepository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users:  make(map[uint]models.User),
		nextID: 1,
	}
}

// Create adds a new user, rejecting username/email collisions the same way
// the database unique indexes would.
func (r *MockUserRepository) Create(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Username == user.Username {
			return &models.DuplicateIdentityError{Field: "username", Value: user.Username}
		}
		if existing.Email == user.Email {
			return &models.DuplicateIdentityError{Field: "email", Value: user.Email}
		}
	}
	if user.ID == 0 {
		user.ID = r.nextID
		r.nextID++
	} else if user.ID >= r.nextID {
		r.nextID = user.ID + 1
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	r.users[user.ID] = *user
	return nil
}

// Save replaces an existing user record.
func (r *MockUserRepository) Save(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; !ok {
		return fmt.Errorf("user %s: %w", user.Username, models.ErrNotFound)
	}
	r.users[user.ID] = *user
	return nil
}

// Delete removes a user by username.
func (r *MockUserRepository) Delete(username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, user := range r.users {
		if user.Username == username {
			delete(r.users, id)
			return nil
		}
	}
	return fmt.Errorf("user %s: %w", username, models.ErrNotFound)
}

// GetByID returns a user by primary key.
func (r *MockUserRepository) GetByID(id uint) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user id %d: %w", id, models.ErrNotFound)
	}
	return &user, nil
}

// GetByUsername returns a user by username.
func (r *MockUserRepository) GetByUsername(username string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Username == username {
			u := user
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", username, models.ErrNotFound)
}

// GetByEmail returns a user by email.
func (r *MockUserRepository) GetByEmail(email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user with email %s: %w", email, models.ErrNotFound)
}

// List returns users ordered by username with limit/offset paging.
func (r *MockUserRepository) List(search string, limit, offset int) ([]models.User, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]models.User, 0, len(r.users))
	for _, user := range r.users {
		if search == "" || strings.Contains(user.Username, search) {
			matched = append(matched, user)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Username < matched[j].Username })
	count := int64(len(matched))
	return paginateUsers(matched, limit, offset), count, nil
}

func paginateUsers(users []models.User, limit, offset int) []models.User {
	if offset >= len(users) {
		return []models.User{}
	}
	end := len(users)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return users[offset:end]
}
