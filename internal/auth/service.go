// Package auth authenticates admin accounts and issues the bearer tokens
// that protect the management endpoints.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/lumenframe/studio-api/internal/content"
)

// TokenTTL is how long an issued token stays valid.
const TokenTTL = 24 * time.Hour

// ErrInvalidCredentials is returned for an unknown email or a wrong
// password; callers must not be able to tell the two apart.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// ErrInvalidToken is returned when a token fails verification.
var ErrInvalidToken = errors.New("auth: invalid token")

// Claims are the JWT claims carried by an issued token.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Service issues and verifies admin tokens.
type Service struct {
	users  content.UserRepository
	secret []byte
	now    func() time.Time
}

// NewService creates a Service signing tokens with secret.
func NewService(users content.UserRepository, secret string) *Service {
	return &Service{
		users:  users,
		secret: []byte(secret),
		now:    time.Now,
	}
}

// Login verifies an email/password pair and returns a signed token.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	return s.issue(user.ID.String(), user.Email, user.Role)
}

func (s *Service) issue(subject, email, role string) (string, error) {
	now := s.now()
	claims := Claims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token, returning its claims.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now() }))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// HashPassword produces a bcrypt hash for seeding admin accounts.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
