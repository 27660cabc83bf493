// Package users persists registered users: the username, the key-derivation
// salt and the encrypted validation marker. The user key itself is never
// stored.
package users

import (
	"context"

	"github.com/dmitrijs2005/valet/internal/models"
)

type Repository interface {
	// Insert stores a new user. A taken username yields common.ErrAlreadyExists.
	Insert(ctx context.Context, user *models.User) (*models.User, error)
	// GetByUsername yields common.ErrNotFound when no such user exists.
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}
