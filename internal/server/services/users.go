// Package services contains server-side business logic. This file implements
// UserService: account creation, login, and profile reads.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"invisiblewallet/internal/common"
	"invisiblewallet/internal/server/auth"
	"invisiblewallet/internal/server/config"
	"invisiblewallet/internal/server/models"
	"invisiblewallet/internal/server/repositories/users"
)

// minPasswordLength is the accepted lower bound for account passwords.
const minPasswordLength = 8

// UserService handles registration, login, and profile reads.
type UserService struct {
	db            *sql.DB
	jwtSecret     []byte
	tokenValidity time.Duration
}

// NewUserService constructs a UserService from server config.
func NewUserService(db *sql.DB, cfg *config.Config) *UserService {
	return &UserService{
		db:            db,
		jwtSecret:     []byte(cfg.SecretKey),
		tokenValidity: cfg.TokenValidityDuration,
	}
}

// normalizeEmail makes email matching case-insensitive: one canonical
// lowercase form is stored and looked up, so Foo@x.com and foo@x.com are the
// same account.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateCredentials(email, password string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return common.ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return common.ErrWeakPassword
	}
	return nil
}

// Signup validates credentials, creates the user, and mints a bearer token.
// A duplicate email surfaces as common.ErrAlreadyExists.
func (s *UserService) Signup(ctx context.Context, email, password string) (*models.User, string, error) {
	email = normalizeEmail(email)
	if err := validateCredentials(email, password); err != nil {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("password hash: %w", err)
	}

	repo := users.NewPostgresRepository(s.db)
	user, err := repo.Create(ctx, &models.User{Email: email, PasswordHash: string(hash)})
	if err != nil {
		return nil, "", err
	}

	token, err := auth.GenerateToken(user.ID, s.jwtSecret, s.tokenValidity)
	if err != nil {
		return nil, "", fmt.Errorf("token: %w", err)
	}
	return user, token, nil
}

// Login verifies credentials and mints a bearer token. An unknown email and a
// wrong password are deliberately indistinguishable.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	repo := users.NewPostgresRepository(s.db)

	user, err := repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, "", common.ErrAuthenticationFailed
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", common.ErrAuthenticationFailed
	}

	token, err := auth.GenerateToken(user.ID, s.jwtSecret, s.tokenValidity)
	if err != nil {
		return nil, "", fmt.Errorf("token: %w", err)
	}
	return user, token, nil
}

// GetProfile returns the stored user by id.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	repo := users.NewPostgresRepository(s.db)
	return repo.GetByID(ctx, userID)
}

// VerifyToken resolves a bearer token to an existing user's id.
func (s *UserService) VerifyToken(ctx context.Context, token string) (string, error) {
	userID, err := auth.GetUserIDFromToken(token, s.jwtSecret)
	if err != nil {
		return "", err
	}

	repo := users.NewPostgresRepository(s.db)
	if _, err := repo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.ErrInvalidToken
		}
		return "", err
	}
	return userID, nil
}
