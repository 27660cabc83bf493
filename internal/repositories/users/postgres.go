package users

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

func (r *PostgresRepository) Insert(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (username, salt, validation_data, validation_nonce)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		user.Username, user.Salt, user.ValidationData, user.ValidationNonce).
		Scan(&user.CreatedAt)
	if err != nil {
		return nil, dbx.Classify(err)
	}
	return user, nil
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query :=
		`SELECT username, salt, validation_data, validation_nonce, created_at
		 FROM users
		 WHERE username = $1`

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, username).
		Scan(&user.Username, &user.Salt, &user.ValidationData, &user.ValidationNonce, &user.CreatedAt)
	if err != nil {
		return nil, dbx.Classify(err)
	}
	return user, nil
}
