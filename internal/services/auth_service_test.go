package services_test

import (
	"errors"
	"fmt"
	"log"
	"os"
	"testing"

	"kritika/internal/models"
	"kritika/internal/repositories"
	"kritika/internal/services"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

const testJWTSecret = "test_jwt_secret"

// captureMailer records the most recent confirmation code per address
// instead of talking to an SMTP relay.
type captureMailer struct {
	codes    map[string]string
	failWith error
}

func newCaptureMailer() *captureMailer {
	return &captureMailer{codes: make(map[string]string)}
}

func (m *captureMailer) SendConfirmationCode(to, username, code string) error {
	if m.failWith != nil {
		return m.failWith
	}
	m.codes[to] = code
	return nil
}

// MockEventPublisher is a testify mock for the event publisher.
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(routingKey string, body []byte) error {
	args := m.Called(routingKey, body)
	return args.Error(0)
}

func TestMain(m *testing.M) {
	log.SetOutput(os.Stdout)
	code := m.Run()
	os.Exit(code)
}

func newAuthService(mailer services.CodeMailer) (*services.AuthService, *repositories.MockUserRepository) {
	repo := repositories.NewMockUserRepository()
	return services.NewAuthService(repo, mailer, nil, testJWTSecret), repo
}

func TestAuthService_SignUpCreatesUser(t *testing.T) {
	mail := newCaptureMailer()
	authService, repo := newAuthService(mail)

	result, err := authService.SignUp("reader", "reader@example.com")
	assert.NoError(t, err)
	assert.True(t, result.EmailSent)
	assert.Equal(t, "reader", result.User.Username)
	assert.Equal(t, models.RoleUser, result.User.Role)
	assert.NotEmpty(t, mail.codes["reader@example.com"])

	stored, err := repo.GetByUsername("reader")
	assert.NoError(t, err)
	assert.NotEmpty(t, stored.ConfirmationHash)
}

func TestAuthService_SignUpIsIdempotent(t *testing.T) {
	mail := newCaptureMailer()
	authService, repo := newAuthService(mail)

	first, err := authService.SignUp("reader", "reader@example.com")
	assert.NoError(t, err)

	second, err := authService.SignUp("reader", "reader@example.com")
	assert.NoError(t, err)
	assert.Equal(t, first.User.ID, second.User.ID, "resubmission returns the same record")

	users, count, err := repo.List("", 0, 0)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Len(t, users, 1)
}

func TestAuthService_SignUpPartialCollision(t *testing.T) {
	authService, _ := newAuthService(newCaptureMailer())

	_, err := authService.SignUp("reader", "reader@example.com")
	assert.NoError(t, err)

	var dup *models.DuplicateIdentityError

	_, err = authService.SignUp("reader", "other@example.com")
	assert.Error(t, err)
	assert.True(t, errors.As(err, &dup))
	assert.Equal(t, "username", dup.Field)

	_, err = authService.SignUp("other", "reader@example.com")
	assert.Error(t, err)
	assert.True(t, errors.As(err, &dup))
	assert.Equal(t, "email", dup.Field)
}

func TestAuthService_SignUpRejectsReservedAndMalformedNames(t *testing.T) {
	authService, _ := newAuthService(newCaptureMailer())

	for _, username := range []string{"me", "ME", "Me", "mE"} {
		_, err := authService.SignUp(username, "someone@example.com")
		assert.Error(t, err, "username %q must be rejected", username)
		var invalid *models.ValidationError
		assert.True(t, errors.As(err, &invalid))
		assert.Equal(t, "username", invalid.Field)
	}

	_, err := authService.SignUp("bad name!", "someone@example.com")
	assert.Error(t, err, "spaces and ! are outside the allowed class")

	_, err = authService.SignUp("reader", "not-an-email")
	assert.Error(t, err)
	var invalid *models.ValidationError
	assert.True(t, errors.As(err, &invalid))
	assert.Equal(t, "email", invalid.Field)
}

func TestAuthService_SignUpMailFailureIsNonFatal(t *testing.T) {
	mail := newCaptureMailer()
	mail.failWith = fmt.Errorf("relay down")
	authService, repo := newAuthService(mail)

	result, err := authService.SignUp("reader", "reader@example.com")
	assert.NoError(t, err, "mail failure must not abort sign-up")
	assert.False(t, result.EmailSent)
	assert.Contains(t, result.EmailError, "relay down")

	_, err = repo.GetByUsername("reader")
	assert.NoError(t, err, "user record survives the delivery failure")
}

func TestAuthService_SignUpPublishesEvent(t *testing.T) {
	repo := repositories.NewMockUserRepository()
	events := new(MockEventPublisher)
	events.On("Publish", "user.signup", mock.Anything).Return(nil).Once()
	authService := services.NewAuthService(repo, newCaptureMailer(), events, testJWTSecret)

	_, err := authService.SignUp("reader", "reader@example.com")
	assert.NoError(t, err)
	events.AssertExpectations(t)
}

func TestAuthService_IssueToken(t *testing.T) {
	mail := newCaptureMailer()
	authService, _ := newAuthService(mail)

	_, err := authService.SignUp("reader", "reader@example.com")
	assert.NoError(t, err)
	code := mail.codes["reader@example.com"]

	token, err := authService.IssueToken("reader", code)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	parsed, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(testJWTSecret), nil
	})
	assert.NoError(t, err)
	claims, ok := parsed.Claims.(jwt.MapClaims)
	assert.True(t, ok)
	assert.Equal(t, "reader", claims["username"])
	assert.Equal(t, models.RoleUser, claims["role"])
}

func TestAuthService_IssueTokenUnknownUser(t *testing.T) {
	authService, _ := newAuthService(newCaptureMailer())

	_, err := authService.IssueToken("ghost", "whatever")
	assert.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestAuthService_IssueTokenWrongCode(t *testing.T) {
	mail := newCaptureMailer()
	authService, _ := newAuthService(mail)

	_, err := authService.SignUp("reader", "reader@example.com")
	assert.NoError(t, err)

	_, err = authService.IssueToken("reader", "not-the-code")
	assert.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidSecret))
}

func TestAuthService_ReissueInvalidatesOldCode(t *testing.T) {
	mail := newCaptureMailer()
	authService, _ := newAuthService(mail)

	_, err := authService.SignUp("reader", "reader@example.com")
	assert.NoError(t, err)
	oldCode := mail.codes["reader@example.com"]

	_, err = authService.SignUp("reader", "reader@example.com")
	assert.NoError(t, err)
	newCode := mail.codes["reader@example.com"]
	assert.NotEqual(t, oldCode, newCode)

	_, err = authService.IssueToken("reader", oldCode)
	assert.Error(t, err, "only the most recently issued code redeems")
	assert.True(t, errors.Is(err, models.ErrInvalidSecret))

	token, err := authService.IssueToken("reader", newCode)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestAuthService_ValidateTokenRoundTrip(t *testing.T) {
	mail := newCaptureMailer()
	authService, _ := newAuthService(mail)

	_, err := authService.SignUp("reader", "reader@example.com")
	assert.NoError(t, err)
	token, err := authService.IssueToken("reader", mail.codes["reader@example.com"])
	assert.NoError(t, err)

	claims, err := authService.ValidateToken(token)
	assert.NoError(t, err)

	user, err := authService.ResolveUser(claims)
	assert.NoError(t, err)
	assert.Equal(t, "reader", user.Username)

	_, err = authService.ValidateToken("garbage.token.value")
	assert.Error(t, err)
}
