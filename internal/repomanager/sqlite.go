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
	_ "modernc.org/sqlite"
)

// SQLiteRepositoryManager vends SQLite-backed repositories.
type SQLiteRepositoryManager struct{}

func NewSQLiteRepositoryManager() *SQLiteRepositoryManager {
	return &SQLiteRepositoryManager{}
}

func (m *SQLiteRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) Lots(db dbx.DBTX) lots.Repository {
	return lots.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) LotKeys(db dbx.DBTX) lotkeys.Repository {
	return lotkeys.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) Records(db dbx.DBTX) records.Repository {
	return records.NewSQLiteRepository(db)
}

// RunMigrations applies the embedded SQLite migrations.
func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return migrate(ctx, db, migrations.Migrations, "sqlite3", migrations.SQLiteDir)
}
