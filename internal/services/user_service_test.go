package services_test

import (
	"errors"
	"testing"

	"kritika/internal/models"
	"kritika/internal/repositories"
	"kritika/internal/services"

	"github.com/stretchr/testify/assert"
)

func newUserFixture() (*services.UserService, *repositories.MockUserRepository) {
	repo := repositories.NewMockUserRepository()
	return services.NewUserService(repo), repo
}

func strptr(s string) *string { return &s }

func TestUserService_Create(t *testing.T) {
	userService, _ := newUserFixture()

	user := &models.User{Username: "reader", Email: "reader@example.com"}
	assert.NoError(t, userService.Create(user))
	assert.Equal(t, models.RoleUser, user.Role, "role defaults to user")

	mod := &models.User{Username: "mod", Email: "mod@example.com", Role: models.RoleModerator}
	assert.NoError(t, userService.Create(mod))
	assert.Equal(t, models.RoleModerator, mod.Role)
}

func TestUserService_CreateRejectsCollisions(t *testing.T) {
	userService, _ := newUserFixture()

	assert.NoError(t, userService.Create(&models.User{Username: "reader", Email: "reader@example.com"}))

	var dup *models.DuplicateIdentityError

	// Unlike sign-up, an exact resubmission is still an error here.
	err := userService.Create(&models.User{Username: "reader", Email: "reader@example.com"})
	assert.Error(t, err)
	assert.True(t, errors.As(err, &dup))
	assert.Equal(t, "username", dup.Field)

	err = userService.Create(&models.User{Username: "other", Email: "reader@example.com"})
	assert.Error(t, err)
	assert.True(t, errors.As(err, &dup))
	assert.Equal(t, "email", dup.Field)
}

func TestUserService_CreateValidatesFields(t *testing.T) {
	userService, _ := newUserFixture()

	assert.Error(t, userService.Create(&models.User{Username: "me", Email: "me@example.com"}))
	assert.Error(t, userService.Create(&models.User{Username: "ok", Email: "not-an-email"}))

	err := userService.Create(&models.User{Username: "ok", Email: "ok@example.com", Role: "overlord"})
	assert.Error(t, err)
	var invalid *models.ValidationError
	assert.True(t, errors.As(err, &invalid))
	assert.Equal(t, "role", invalid.Field)
}

func TestUserService_UpdateAppliesRole(t *testing.T) {
	userService, repo := newUserFixture()

	assert.NoError(t, userService.Create(&models.User{Username: "reader", Email: "reader@example.com"}))

	updated, err := userService.Update("reader", services.UserPatch{
		Role: strptr(models.RoleModerator),
		Bio:  strptr("Promoted."),
	})
	assert.NoError(t, err)
	assert.Equal(t, models.RoleModerator, updated.Role)
	assert.Equal(t, "Promoted.", updated.Bio)

	stored, err := repo.GetByUsername("reader")
	assert.NoError(t, err)
	assert.Equal(t, models.RoleModerator, stored.Role)

	_, err = userService.Update("reader", services.UserPatch{Role: strptr("overlord")})
	assert.Error(t, err)

	_, err = userService.Update("ghost", services.UserPatch{Bio: strptr("nobody")})
	assert.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestUserService_UpdateSelfIgnoresRole(t *testing.T) {
	userService, repo := newUserFixture()

	assert.NoError(t, userService.Create(&models.User{Username: "reader", Email: "reader@example.com"}))
	user, err := repo.GetByUsername("reader")
	assert.NoError(t, err)

	// A role in a self-edit is silently dropped, not rejected.
	updated, err := userService.UpdateSelf(user, services.UserPatch{
		Role:      strptr(models.RoleAdmin),
		FirstName: strptr("Ray"),
	})
	assert.NoError(t, err)
	assert.Equal(t, models.RoleUser, updated.Role)
	assert.Equal(t, "Ray", updated.FirstName)

	stored, err := repo.GetByUsername("reader")
	assert.NoError(t, err)
	assert.Equal(t, models.RoleUser, stored.Role)
}

func TestUserService_EmailPatchChecksOwnership(t *testing.T) {
	userService, repo := newUserFixture()

	assert.NoError(t, userService.Create(&models.User{Username: "reader", Email: "reader@example.com"}))
	assert.NoError(t, userService.Create(&models.User{Username: "other", Email: "other@example.com"}))

	// Taking another account's address fails.
	_, err := userService.Update("reader", services.UserPatch{Email: strptr("other@example.com")})
	assert.Error(t, err)
	var dup *models.DuplicateIdentityError
	assert.True(t, errors.As(err, &dup))
	assert.Equal(t, "email", dup.Field)

	// Re-stating your own address is a no-op, not a conflict.
	user, err := repo.GetByUsername("reader")
	assert.NoError(t, err)
	_, err = userService.UpdateSelf(user, services.UserPatch{Email: strptr("reader@example.com")})
	assert.NoError(t, err)
}

func TestUserService_DeleteAndList(t *testing.T) {
	userService, _ := newUserFixture()

	assert.NoError(t, userService.Create(&models.User{Username: "alpha", Email: "alpha@example.com"}))
	assert.NoError(t, userService.Create(&models.User{Username: "beta", Email: "beta@example.com"}))
	assert.NoError(t, userService.Create(&models.User{Username: "gamma", Email: "gamma@example.com"}))

	users, count, err := userService.List("", 2, 0)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), count, "count reflects the full set, not the page")
	assert.Len(t, users, 2)

	assert.NoError(t, userService.Delete("beta"))
	_, err = userService.Get("beta")
	assert.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNotFound))

	err = userService.Delete("beta")
	assert.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}
