package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"kritika/internal/models"
	"kritika/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// CodeMailer delivers confirmation codes out-of-band.
type CodeMailer interface {
	SendConfirmationCode(to, username, code string) error
}

// EventPublisher pushes domain events to the broker.
type EventPublisher interface {
	Publish(routingKey string, body []byte) error
}

// AuthService handles sign-up, confirmation codes and token issuance.
type AuthService struct {
	userRepo   repositories.UserRepository
	mailer     CodeMailer
	events     EventPublisher
	jwtSecret  []byte
	tokenDurat time.Duration
}

// NewAuthService creates a new AuthService. mailer and events may be nil;
// a nil mailer logs codes, a nil publisher skips events.
func NewAuthService(userRepo repositories.UserRepository, mailer CodeMailer, events EventPublisher, jwtSecret string) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		mailer:     mailer,
		events:     events,
		jwtSecret:  []byte(jwtSecret),
		tokenDurat: 24 * time.Hour,
	}
}

// SignUpResult reports the outcome of a sign-up attempt. EmailError is set
// when code generation succeeded but delivery failed; the user record is
// kept either way.
type SignUpResult struct {
	User       *models.User
	EmailSent  bool
	EmailError string
}

// SignUp registers a user or re-issues the confirmation code for an exact
// (username, email) match. A partial collision with a different record
// fails with a field-specific DuplicateIdentityError. Every call rotates
// the confirmation code, so only the most recently issued code redeems.
func (s *AuthService) SignUp(username, email string) (*SignUpResult, error) {
	if err := models.ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := models.ValidateEmail(email); err != nil {
		return nil, err
	}

	user, err := s.lookupOrCreate(username, email)
	if err != nil {
		return nil, err
	}

	code := uuid.NewString()
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash confirmation code: %w", err)
	}
	user.ConfirmationHash = string(hash)
	if err := s.userRepo.Save(user); err != nil {
		return nil, fmt.Errorf("failed to store confirmation code: %w", err)
	}

	result := &SignUpResult{User: user, EmailSent: true}
	if s.mailer != nil {
		if mailErr := s.mailer.SendConfirmationCode(user.Email, user.Username, code); mailErr != nil {
			// Delivery failure is reported but never rolls back the user.
			log.Printf("Confirmation mail for %s failed: %v", user.Username, mailErr)
			result.EmailSent = false
			result.EmailError = mailErr.Error()
		}
	} else {
		log.Printf("No mailer configured, confirmation code for %s: %s", user.Username, code)
	}

	s.publish("user.signup", map[string]interface{}{
		"username": user.Username,
		"email":    user.Email,
	})

	return result, nil
}

// lookupOrCreate resolves the idempotent sign-up rules: an exact
// (username, email) match returns the existing record, a single-field
// collision is a duplicate-identity failure, anything else creates a
// fresh user with the plain user role.
func (s *AuthService) lookupOrCreate(username, email string) (*models.User, error) {
	byName, err := s.userRepo.GetByUsername(username)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if byName != nil {
		if byName.Email == email {
			return byName, nil
		}
		return nil, &models.DuplicateIdentityError{Field: "username", Value: username}
	}

	byEmail, err := s.userRepo.GetByEmail(email)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if byEmail != nil {
		return nil, &models.DuplicateIdentityError{Field: "email", Value: email}
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Role:     models.RoleUser,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	return user, nil
}

// IssueToken exchanges the current confirmation code for a signed access
// token. Codes from earlier sign-up attempts fail with ErrInvalidSecret.
func (s *AuthService) IssueToken(username, confirmationCode string) (string, error) {
	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		return "", err
	}
	if user.ConfirmationHash == "" {
		return "", fmt.Errorf("user %s: %w", username, models.ErrInvalidSecret)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.ConfirmationHash), []byte(confirmationCode)); err != nil {
		return "", fmt.Errorf("user %s: %w", username, models.ErrInvalidSecret)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"role":     user.Role,
		"exp":      time.Now().Add(s.tokenDurat).Unix(),
		"iat":      time.Now().Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates an access token, returning its claims.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}

// ResolveUser loads the user a validated token speaks for.
func (s *AuthService) ResolveUser(claims jwt.MapClaims) (*models.User, error) {
	raw, ok := claims["user_id"].(float64)
	if !ok {
		return nil, fmt.Errorf("token is missing the user_id claim")
	}
	return s.userRepo.GetByID(uint(raw))
}

func (s *AuthService) publish(routingKey string, payload map[string]interface{}) {
	if s.events == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", routingKey, err)
		return
	}
	if err := s.events.Publish(routingKey, body); err != nil {
		log.Printf("Warning: failed to publish %s event: %v", routingKey, err)
	}
}
