// Package lots persists lot identity: id and name. The lot key lives only
// in wrapped form in the lotkeys table.
package lots

import (
	"context"

	"github.com/dmitrijs2005/valet/internal/models"
)

type Repository interface {
	// Upsert inserts the lot or renames an existing one with the same id.
	// A name already used by another lot yields common.ErrAlreadyExists.
	Upsert(ctx context.Context, lot *models.Lot) (*models.Lot, error)
	GetByName(ctx context.Context, name string) (*models.Lot, error)
	GetByID(ctx context.Context, id string) (*models.Lot, error)
}
