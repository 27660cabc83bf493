package users

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

func (r *SQLiteRepository) Insert(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (username, salt, validation_data, validation_nonce)
		 VALUES (?, ?, ?, ?)
		 RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		user.Username, user.Salt, user.ValidationData, user.ValidationNonce).
		Scan(dbx.ScanTime(&user.CreatedAt))
	if err != nil {
		return nil, dbx.Classify(err)
	}
	return user, nil
}

func (r *SQLiteRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query :=
		`SELECT username, salt, validation_data, validation_nonce, created_at
		 FROM users
		 WHERE username = ?`

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, username).
		Scan(&user.Username, &user.Salt, &user.ValidationData, &user.ValidationNonce, dbx.ScanTime(&user.CreatedAt))
	if err != nil {
		return nil, dbx.Classify(err)
	}
	return user, nil
}
