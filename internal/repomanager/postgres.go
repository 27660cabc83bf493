package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/valet/internal/dbx"
	"github.com/dmitrijs2005/valet/internal/migrations"
	"github.com/dmitrijs2005/valet/internal/repositories/lotkeys"
	"github.com/dmitrijs2005/valet/internal/repositories/lots"
	"github.com/dmitrijs2005/valet/internal/repositories/records"
	"github.com/dmitrijs2005/valet/internal/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresRepositoryManager vends PostgreSQL-backed repositories.
type PostgresRepositoryManager struct{}

func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Lots(db dbx.DBTX) lots.Repository {
	return lots.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) LotKeys(db dbx.DBTX) lotkeys.Repository {
	return lotkeys.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Records(db dbx.DBTX) records.Repository {
	return records.NewPostgresRepository(db)
}

// RunMigrations applies the embedded PostgreSQL migrations.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return migrate(ctx, db, migrations.Migrations, "pgx", migrations.PostgresDir)
}
