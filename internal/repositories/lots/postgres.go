package lots

import (
	"context"

	"github.com/dmitrijs2005/valet/internal/dbx"
	"github.com/dmitrijs2005/valet/internal/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Upsert(ctx context.Context, lot *models.Lot) (*models.Lot, error) {
	query :=
		`INSERT INTO lots (id, name)
		 VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET name = excluded.name
		 RETURNING id, name, created_at`

	out := &models.Lot{}
	err := r.db.QueryRowContext(ctx, query, lot.ID, lot.Name).
		Scan(&out.ID, &out.Name, &out.CreatedAt)
	if err != nil {
		return nil, dbx.Classify(err)
	}
	return out, nil
}

func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*models.Lot, error) {
	query :=
		`SELECT id, name, created_at FROM lots
		 WHERE name = $1`

	return r.get(ctx, query, name)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Lot, error) {
	query :=
		`SELECT id, name, created_at FROM lots
		 WHERE id = $1`

	return r.get(ctx, query, id)
}

func (r *PostgresRepository) get(ctx context.Context, query string, arg any) (*models.Lot, error) {
	lot := &models.Lot{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&lot.ID, &lot.Name, &lot.CreatedAt)
	if err != nil {
		return nil, dbx.Classify(err)
	}
	return lot, nil
}
