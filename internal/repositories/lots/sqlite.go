package lots

import (
	"context"

	"github.com/dmitrijs2005/valet/internal/dbx"
	"github.com/dmitrijs2005/valet/internal/models"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Upsert(ctx context.Context, lot *models.Lot) (*models.Lot, error) {
	query :=
		`INSERT INTO lots (id, name)
		 VALUES (?, ?)
		 ON CONFLICT (id) DO UPDATE SET name = excluded.name
		 RETURNING id, name, created_at`

	out := &models.Lot{}
	err := r.db.QueryRowContext(ctx, query, lot.ID, lot.Name).
		Scan(&out.ID, &out.Name, dbx.ScanTime(&out.CreatedAt))
	if err != nil {
		return nil, dbx.Classify(err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetByName(ctx context.Context, name string) (*models.Lot, error) {
	query :=
		`SELECT id, name, created_at FROM lots
		 WHERE name = ?`

	return r.get(ctx, query, name)
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Lot, error) {
	query :=
		`SELECT id, name, created_at FROM lots
		 WHERE id = ?`

	return r.get(ctx, query, id)
}

func (r *SQLiteRepository) get(ctx context.Context, query string, arg any) (*models.Lot, error) {
	lot := &models.Lot{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&lot.ID, &lot.Name, dbx.ScanTime(&lot.CreatedAt))
	if err != nil {
		return nil, dbx.Classify(err)
	}
	return lot, nil
}
