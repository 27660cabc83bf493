// Package records persists encrypted records. Rows are insert-only from the
// caller's point of view; Upsert exists so a lot can re-seal its records
// under a rotated key.
package records

import (
	"context"

	"github.com/dmitrijs2005/valet/internal/models"
)

type Repository interface {
	Upsert(ctx context.Context, rec *models.Record) (*models.Record, error)
	// ListByLot returns the lot's records in insertion order.
	ListByLot(ctx context.Context, lotID string) ([]models.Record, error)
}
