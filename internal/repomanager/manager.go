// Package repomanager vends dialect-specific repository implementations and
// owns the schema migrations for each supported database.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strings"

	"github.com/dmitrijs2005/valet/internal/dbx"
	"github.com/dmitrijs2005/valet/internal/filex"
	"github.com/dmitrijs2005/valet/internal/repositories/lotkeys"
	"github.com/dmitrijs2005/valet/internal/repositories/lots"
	"github.com/dmitrijs2005/valet/internal/repositories/records"
	"github.com/dmitrijs2005/valet/internal/repositories/users"
	"github.com/pressly/goose/v3"
)

// Supported values for the database driver setting.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Lots(db dbx.DBTX) lots.Repository
	LotKeys(db dbx.DBTX) lotkeys.Repository
	Records(db dbx.DBTX) records.Repository
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

func migrate(ctx context.Context, db *sql.DB, fsys fs.FS, dialect, dir string) error {
	goose.SetBaseFS(fsys)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("goose dialect %s: %w", dialect, err)
	}
	if err := gooseUpContext(ctx, db, dir); err != nil {
		return err
	}
	return nil
}

// New returns the RepositoryManager for driver.
func New(driver string) (RepositoryManager, error) {
	switch driver {
	case DriverSQLite:
		return NewSQLiteRepositoryManager(), nil
	case DriverPostgres:
		return NewPostgresRepositoryManager(), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Open opens a connection pool for driver and dsn, applies migrations and
// returns the pool together with its RepositoryManager. The caller owns the
// pool.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, RepositoryManager, error) {
	m, err := New(driver)
	if err != nil {
		return nil, nil, err
	}

	sqlDriver := "sqlite"
	if driver == DriverPostgres {
		sqlDriver = "pgx"
	} else if path, ok := sqliteFilePath(dsn); ok {
		if _, err := filex.EnsureParentDir(path); err != nil {
			return nil, nil, fmt.Errorf("open %s: %w", driver, err)
		}
	}

	db, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrate %s: %w", driver, err)
	}
	return db, m, nil
}

// sqliteFilePath extracts the database file from a SQLite DSN. In-memory
// databases have none.
func sqliteFilePath(dsn string) (string, bool) {
	path, query, _ := strings.Cut(strings.TrimPrefix(dsn, "file:"), "?")
	if path == "" || strings.HasPrefix(path, ":memory:") || strings.Contains(query, "mode=memory") {
		return "", false
	}
	return path, true
}
