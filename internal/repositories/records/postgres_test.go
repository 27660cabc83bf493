package records

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/valet/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

const (
	upsertQ = `(?s)^INSERT\s+INTO\s+records\s*\(id,\s*lot_id,\s*data,\s*nonce\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)\s*ON\s+CONFLICT\s*\(id\)\s*DO\s+UPDATE\s+SET\s+data\s*=\s*excluded\.data,\s*nonce\s*=\s*excluded\.nonce\s+WHERE\s+records\.lot_id\s*=\s*excluded\.lot_id\s+RETURNING\s+id,\s*lot_id,\s*data,\s*nonce,\s*created_at\s*$`
	listQ   = `(?s)^SELECT\s+id,\s*lot_id,\s*data,\s*nonce,\s*created_at\s+FROM\s+records\s+WHERE\s+lot_id\s*=\s*\$1\s+ORDER\s+BY\s+id\s*$`
)

var cols = []string{"id", "lot_id", "data", "nonce", "created_at"}

func TestUpsert_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(upsertQ).
		WithArgs("rec-1", "lot-1", []byte("ct"), []byte("n")).
		WillReturnRows(sqlmock.NewRows(cols).AddRow("rec-1", "lot-1", []byte("ct"), []byte("n"), time.Now()))

	got, err := repo.Upsert(context.Background(), &models.Record{ID: "rec-1", LotID: "lot-1", Data: []byte("ct"), Nonce: []byte("n")})
	require.NoError(t, err)
	assert.Equal(t, "rec-1", got.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsert_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(upsertQ).WillReturnError(errors.New("db down"))

	_, err := repo.Upsert(context.Background(), &models.Record{ID: "rec-1"})
	require.ErrorContains(t, err, "db error: db down")
}

func TestListByLot(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	now := time.Now()
	mock.ExpectQuery(listQ).
		WithArgs("lot-1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("rec-1", "lot-1", []byte{1}, []byte{1}, now).
			AddRow("rec-2", "lot-1", []byte{2}, []byte{2}, now))

	recs, err := repo.ListByLot(context.Background(), "lot-1")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "rec-1", recs[0].ID)
	assert.Equal(t, []byte{2}, recs[1].Data)
}

func TestListByLot_Empty(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(listQ).
		WithArgs("lot-1").
		WillReturnRows(sqlmock.NewRows(cols))

	recs, err := repo.ListByLot(context.Background(), "lot-1")
	require.NoError(t, err)
	assert.Empty(t, recs)
}
