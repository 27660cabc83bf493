package lotkeys

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

func (r *SQLiteRepository) Upsert(ctx context.Context, key *models.LotKey) (*models.LotKey, error) {
	query :=
		`INSERT INTO user_lot_keys (username, lot_id, data, nonce)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (username, lot_id) DO UPDATE
		 SET data = excluded.data, nonce = excluded.nonce
		 RETURNING username, lot_id, data, nonce`

	out := &models.LotKey{}
	err := r.db.QueryRowContext(ctx, query, key.Username, key.LotID, key.Data, key.Nonce).
		Scan(&out.Username, &out.LotID, &out.Data, &out.Nonce)
	if err != nil {
		return nil, dbx.Classify(err)
	}
	return out, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, username, lotID string) (*models.LotKey, error) {
	query :=
		`SELECT username, lot_id, data, nonce FROM user_lot_keys
		 WHERE username = ? AND lot_id = ?`

	key := &models.LotKey{}
	err := r.db.QueryRowContext(ctx, query, username, lotID).
		Scan(&key.Username, &key.LotID, &key.Data, &key.Nonce)
	if err != nil {
		return nil, dbx.Classify(err)
	}
	return key, nil
}

func (r *SQLiteRepository) ListByUser(ctx context.Context, username string) ([]models.LotKey, error) {
	query :=
		`SELECT username, lot_id, data, nonce FROM user_lot_keys
		 WHERE username = ?
		 ORDER BY lot_id`

	rows, err := r.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, dbx.Classify(err)
	}
	defer rows.Close()

	var keys []models.LotKey
	for rows.Next() {
		var k models.LotKey
		if err := rows.Scan(&k.Username, &k.LotID, &k.Data, &k.Nonce); err != nil {
			return nil, dbx.Classify(err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.Classify(err)
	}
	return keys, nil
}
