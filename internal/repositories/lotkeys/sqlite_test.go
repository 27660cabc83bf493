package lotkeys

import (
	"context"
	"database/sql"
	"testing"

	"github.com/dmitrijs2005/valet/internal/common"
	"github.com/dmitrijs2005/valet/internal/dbx/dbxtest"
	"github.com/dmitrijs2005/valet/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, db *sql.DB, usernames []string, lotIDs []string) {
	t.Helper()
	for _, u := range usernames {
		_, err := db.Exec(`INSERT INTO users (username, salt, validation_data, validation_nonce) VALUES (?, x'00', x'00', x'00')`, u)
		require.NoError(t, err)
	}
	for i, id := range lotIDs {
		_, err := db.Exec(`INSERT INTO lots (id, name) VALUES (?, ?)`, id, "lot"+string(rune('a'+i)))
		require.NoError(t, err)
	}
}

func TestSQLite_UpsertGetReplace(t *testing.T) {
	db := dbxtest.OpenSQLite(t)
	lotID := uuid.NewString()
	seed(t, db, []string{"alice"}, []string{lotID})

	r := NewSQLiteRepository(db)
	ctx := context.Background()

	_, err := r.Upsert(ctx, &models.LotKey{Username: "alice", LotID: lotID, Data: []byte("k1"), Nonce: []byte("n1")})
	require.NoError(t, err)

	got, err := r.Get(ctx, "alice", lotID)
	require.NoError(t, err)
	assert.Equal(t, []byte("k1"), got.Data)
	assert.Equal(t, []byte("n1"), got.Nonce)

	replaced, err := r.Upsert(ctx, &models.LotKey{Username: "alice", LotID: lotID, Data: []byte("k2"), Nonce: []byte("n2")})
	require.NoError(t, err)
	assert.Equal(t, []byte("k2"), replaced.Data)

	got, err = r.Get(ctx, "alice", lotID)
	require.NoError(t, err)
	assert.Equal(t, []byte("k2"), got.Data)
	assert.Equal(t, []byte("n2"), got.Nonce)
}

func TestSQLite_GetMissing(t *testing.T) {
	db := dbxtest.OpenSQLite(t)
	lotID := uuid.NewString()
	seed(t, db, []string{"alice", "bob"}, []string{lotID})

	r := NewSQLiteRepository(db)
	ctx := context.Background()
	_, err := r.Upsert(ctx, &models.LotKey{Username: "alice", LotID: lotID, Data: []byte{1}, Nonce: []byte{2}})
	require.NoError(t, err)

	_, err = r.Get(ctx, "bob", lotID)
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestSQLite_UpsertUnknownLot(t *testing.T) {
	db := dbxtest.OpenSQLite(t)
	seed(t, db, []string{"alice"}, nil)

	_, err := NewSQLiteRepository(db).Upsert(context.Background(),
		&models.LotKey{Username: "alice", LotID: uuid.NewString(), Data: []byte{1}, Nonce: []byte{2}})
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestSQLite_ListByUser(t *testing.T) {
	db := dbxtest.OpenSQLite(t)
	ids := []string{uuid.NewString(), uuid.NewString(), uuid.NewString()}
	seed(t, db, []string{"alice", "bob"}, ids)

	r := NewSQLiteRepository(db)
	ctx := context.Background()
	for _, id := range ids[:2] {
		_, err := r.Upsert(ctx, &models.LotKey{Username: "alice", LotID: id, Data: []byte{1}, Nonce: []byte{2}})
		require.NoError(t, err)
	}
	_, err := r.Upsert(ctx, &models.LotKey{Username: "bob", LotID: ids[2], Data: []byte{1}, Nonce: []byte{2}})
	require.NoError(t, err)

	keys, err := r.ListByUser(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, keys, 2)
	got := []string{keys[0].LotID, keys[1].LotID}
	assert.ElementsMatch(t, ids[:2], got)

	none, err := r.ListByUser(ctx, "carol")
	require.NoError(t, err)
	assert.Empty(t, none)
}
