package services

import (
	"errors"
	"fmt"

	"kritika/internal/models"
	"kritika/internal/repositories"
)

// UserService handles account administration and self-service profile
// edits. Authorization happens before these calls; the service only
// enforces field-level rules.
type UserService struct {
	userRepo repositories.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repositories.UserRepository) *UserService {
	return &UserService{
		userRepo: userRepo,
	}
}

// UserPatch is a partial update. Nil fields are left untouched.
type UserPatch struct {
	Email     *string
	FirstName *string
	LastName  *string
	Bio       *string
	Role      *string
}

// List returns a page of users plus the total count.
func (s *UserService) List(search string, limit, offset int) ([]models.User, int64, error) {
	return s.userRepo.List(search, limit, offset)
}

// Get returns a user by username.
func (s *UserService) Get(username string) (*models.User, error) {
	return s.userRepo.GetByUsername(username)
}

// Create registers a user on behalf of an administrator, with an explicit
// role. Unlike sign-up it is not idempotent: any collision fails.
func (s *UserService) Create(user *models.User) error {
	if err := models.ValidateUsername(user.Username); err != nil {
		return err
	}
	if err := models.ValidateEmail(user.Email); err != nil {
		return err
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	if !models.ValidRole(user.Role) {
		return &models.ValidationError{Field: "role", Message: "unknown role " + user.Role}
	}

	if existing, err := s.userRepo.GetByUsername(user.Username); err == nil && existing != nil {
		return &models.DuplicateIdentityError{Field: "username", Value: user.Username}
	} else if err != nil && !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to check username: %w", err)
	}
	if existing, err := s.userRepo.GetByEmail(user.Email); err == nil && existing != nil {
		return &models.DuplicateIdentityError{Field: "email", Value: user.Email}
	} else if err != nil && !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to check email: %w", err)
	}

	if err := s.userRepo.Create(user); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// Update applies an administrative partial edit, role included.
func (s *UserService) Update(username string, patch UserPatch) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	if err := s.apply(user, patch, true); err != nil {
		return nil, err
	}
	if err := s.userRepo.Save(user); err != nil {
		return nil, fmt.Errorf("failed to save user %s: %w", username, err)
	}
	return user, nil
}

// UpdateSelf applies a self-service partial edit. The role field is
// read-only here: a supplied role is ignored, not rejected.
func (s *UserService) UpdateSelf(user *models.User, patch UserPatch) (*models.User, error) {
	if err := s.apply(user, patch, false); err != nil {
		return nil, err
	}
	if err := s.userRepo.Save(user); err != nil {
		return nil, fmt.Errorf("failed to save profile of %s: %w", user.Username, err)
	}
	return user, nil
}

// Delete removes a user account.
func (s *UserService) Delete(username string) error {
	return s.userRepo.Delete(username)
}

func (s *UserService) apply(user *models.User, patch UserPatch, allowRole bool) error {
	if patch.Email != nil {
		if err := models.ValidateEmail(*patch.Email); err != nil {
			return err
		}
		if existing, err := s.userRepo.GetByEmail(*patch.Email); err == nil && existing != nil && existing.ID != user.ID {
			return &models.DuplicateIdentityError{Field: "email", Value: *patch.Email}
		} else if err != nil && !errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("failed to check email: %w", err)
		}
		user.Email = *patch.Email
	}
	if patch.FirstName != nil {
		user.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		user.LastName = *patch.LastName
	}
	if patch.Bio != nil {
		user.Bio = *patch.Bio
	}
	if patch.Role != nil && allowRole {
		if !models.ValidRole(*patch.Role) {
			return &models.ValidationError{Field: "role", Message: "unknown role " + *patch.Role}
		}
		user.Role = *patch.Role
	}
	return nil
}
