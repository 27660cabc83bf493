// Package lotkeys persists lot keys wrapped under a user's key, one row per
// (username, lot) pair. A user may open a lot only if a row exists here.
package lotkeys

import (
	"context"

	"github.com/dmitrijs2005/valet/internal/models"
)

type Repository interface {
	// Upsert stores or replaces the wrapped key for (Username, LotID).
	Upsert(ctx context.Context, key *models.LotKey) (*models.LotKey, error)
	// Get yields common.ErrNotFound when the user holds no key to the lot.
	Get(ctx context.Context, username, lotID string) (*models.LotKey, error)
	ListByUser(ctx context.Context, username string) ([]models.LotKey, error)
}
