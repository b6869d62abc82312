// Package users persists credential-store accounts.
package users

import (
	"context"

	"invisiblewallet/internal/server/models"
)

// Repository is the persistence surface for user accounts.
type Repository interface {
	// Create inserts a new user and returns it with the generated id.
	// A duplicate email yields common.ErrAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByEmail returns the user with that email, or common.ErrNotFound.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// GetByID returns the user with that id, or common.ErrNotFound.
	GetByID(ctx context.Context, id string) (*models.User, error)

	// UpdateCredentials writes the per-wallet credential columns.
	UpdateCredentials(ctx context.Context, user *models.User) error
}
