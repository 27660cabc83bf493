package records

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

// Upsert never moves a record between lots: on conflict only the ciphertext
// is replaced, and only when the stored lot matches.
func (r *SQLiteRepository) Upsert(ctx context.Context, rec *models.Record) (*models.Record, error) {
	query :=
		`INSERT INTO records (id, lot_id, data, nonce)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE
		 SET data = excluded.data, nonce = excluded.nonce
		 WHERE records.lot_id = excluded.lot_id
		 RETURNING id, lot_id, data, nonce, created_at`

	out := &models.Record{}
	err := r.db.QueryRowContext(ctx, query, rec.ID, rec.LotID, rec.Data, rec.Nonce).
		Scan(&out.ID, &out.LotID, &out.Data, &out.Nonce, dbx.ScanTime(&out.CreatedAt))
	if err != nil {
		return nil, dbx.Classify(err)
	}
	return out, nil
}

func (r *SQLiteRepository) ListByLot(ctx context.Context, lotID string) ([]models.Record, error) {
	query :=
		`SELECT id, lot_id, data, nonce, created_at FROM records
		 WHERE lot_id = ?
		 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, lotID)
	if err != nil {
		return nil, dbx.Classify(err)
	}
	defer rows.Close()

	var recs []models.Record
	for rows.Next() {
		var rec models.Record
		if err := rows.Scan(&rec.ID, &rec.LotID, &rec.Data, &rec.Nonce, dbx.ScanTime(&rec.CreatedAt)); err != nil {
			return nil, dbx.Classify(err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.Classify(err)
	}
	return recs, nil
}
