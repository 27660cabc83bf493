package valet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/dmitrijs2005/valet/internal/common"
	"github.com/dmitrijs2005/valet/internal/cryptox"
	"github.com/dmitrijs2005/valet/internal/dbx/dbxtest"
	"github.com/dmitrijs2005/valet/internal/payload"
	"github.com/dmitrijs2005/valet/internal/repomanager"
	"github.com/dmitrijs2005/valet/internal/secret"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (Store, *sql.DB) {
	t.Helper()
	db := dbxtest.OpenSQLite(t)
	return NewStore(repomanager.NewSQLiteRepositoryManager(), db), db
}

func registerUser(t *testing.T, store Store, username, password string) *User {
	t.Helper()
	u, err := NewUser(username, secret.FromString(password))
	require.NoError(t, err)
	t.Cleanup(u.Destroy)
	require.NoError(t, u.Register(context.Background(), store))
	return u
}

func savedLot(t *testing.T, store Store, name string, owner *User) *Lot {
	t.Helper()
	lot := NewLot(name)
	t.Cleanup(lot.Destroy)
	require.NoError(t, lot.Save(context.Background(), store, owner))
	return lot
}

func flipFirstByte(t *testing.T, db *sql.DB, table, column, keyColumn string, key any) {
	t.Helper()
	var b []byte
	require.NoError(t, db.QueryRow(`SELECT `+column+` FROM `+table+` WHERE `+keyColumn+` = ?`, key).Scan(&b))
	require.NotEmpty(t, b)
	b[0] ^= 0xff
	_, err := db.Exec(`UPDATE `+table+` SET `+column+` = ? WHERE `+keyColumn+` = ?`, b, key)
	require.NoError(t, err)
}

func TestNewUser_ValidatesImmediately(t *testing.T) {
	pw := secret.FromString("pw")
	u, err := NewUser("alice", pw)
	require.NoError(t, err)
	defer u.Destroy()

	assert.True(t, u.Validate())
	assert.Equal(t, "alice", u.Username())
	assert.False(t, pw.IsAlive(), "password must be destroyed by NewUser")
}

func TestNewUser_EmptyUsername(t *testing.T) {
	pw := secret.FromString("pw")
	_, err := NewUser("", pw)
	require.Error(t, err)
	assert.False(t, pw.IsAlive())
}

func TestNewUser_SaltsDiffer(t *testing.T) {
	a, err := NewUser("alice", secret.FromString("same"))
	require.NoError(t, err)
	defer a.Destroy()
	b, err := NewUser("bob", secret.FromString("same"))
	require.NoError(t, err)
	defer b.Destroy()

	assert.NotEqual(t, a.salt, b.salt)
	assert.False(t, a.Key().Equal(b.Key()))
}

func TestLoadUser(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()
	alice := registerUser(t, store, "alice", "s3cret")

	pw := secret.FromString("s3cret")
	got, err := LoadUser(ctx, store, "alice", pw)
	require.NoError(t, err)
	defer got.Destroy()
	assert.False(t, pw.IsAlive())
	assert.True(t, got.Key().Equal(alice.Key()))
	assert.True(t, got.Validate())
}

func TestLoadUser_InvalidCredentials(t *testing.T) {
	store, db := newStore(t)
	ctx := context.Background()
	registerUser(t, store, "alice", "s3cret")

	t.Run("wrong password", func(t *testing.T) {
		_, err := LoadUser(ctx, store, "alice", secret.FromString("guess"))
		require.ErrorIs(t, err, common.ErrInvalidCredentials)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := LoadUser(ctx, store, "mallory", secret.FromString("s3cret"))
		require.ErrorIs(t, err, common.ErrInvalidCredentials)
	})

	t.Run("tampered validation", func(t *testing.T) {
		flipFirstByte(t, db, `users`, `validation_data`, `username`, "alice")

		_, err := LoadUser(ctx, store, "alice", secret.FromString("s3cret"))
		require.ErrorIs(t, err, common.ErrInvalidCredentials)
	})
}

func TestUser_ValidateFailsOnTamper(t *testing.T) {
	u, err := NewUser("alice", secret.FromString("pw"))
	require.NoError(t, err)
	defer u.Destroy()

	u.validation.Data[0] ^= 0xff
	assert.False(t, u.Validate())
	u.validation.Data[0] ^= 0xff

	u.validation.Nonce[0] ^= 0xff
	assert.False(t, u.Validate())
	u.validation.Nonce[0] ^= 0xff

	assert.True(t, u.Validate())
}

func TestUser_ValidateRejectsWrongMarker(t *testing.T) {
	u, err := NewUser("alice", secret.FromString("pw"))
	require.NoError(t, err)
	defer u.Destroy()

	// Decrypts fine but holds something other than the marker.
	ct, err := u.Key().Encrypt([]byte("not the marker"))
	require.NoError(t, err)
	u.validation = ct
	assert.False(t, u.Validate())
}

func TestRegister_Duplicate(t *testing.T) {
	store, _ := newStore(t)
	registerUser(t, store, "alice", "one")

	again, err := NewUser("alice", secret.FromString("two"))
	require.NoError(t, err)
	defer again.Destroy()
	require.ErrorIs(t, again.Register(context.Background(), store), common.ErrAlreadyExists)
}

func TestEndToEnd_ReopenStore(t *testing.T) {
	ctx := context.Background()
	dsn := dbxtest.SQLiteDSN(t)

	// First session: register, create "main", store an email.
	func() {
		db, m, err := repomanager.Open(ctx, repomanager.DriverSQLite, dsn)
		require.NoError(t, err)
		defer db.Close()
		store := NewStore(m, db)

		alice, err := NewUser("alice", secret.FromString("s3cret"))
		require.NoError(t, err)
		defer alice.Destroy()
		require.NoError(t, alice.Register(ctx, store))

		lot := NewLot("main")
		defer lot.Destroy()
		require.NoError(t, lot.Save(ctx, store, alice))
		_, err = lot.Insert(ctx, store, payload.Plain("email", "a@example.com"))
		require.NoError(t, err)
		require.NoError(t, lot.Save(ctx, store, alice))
	}()

	// Second session on a fresh pool.
	db, m, err := repomanager.Open(ctx, repomanager.DriverSQLite, dsn)
	require.NoError(t, err)
	defer db.Close()
	store := NewStore(m, db)

	alice, err := LoadUser(ctx, store, "alice", secret.FromString("s3cret"))
	require.NoError(t, err)
	defer alice.Destroy()

	lot, err := LoadLot(ctx, store, "main", alice)
	require.NoError(t, err)
	defer lot.Destroy()

	rec, ok := lot.Find("email")
	require.True(t, ok)
	v, ok := rec.Payload().Value()
	require.True(t, ok)
	assert.Equal(t, "a@example.com", v)
	assert.Equal(t, lot.ID(), rec.LotID())
}

func TestLoadLot_NotAuthorized(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()
	alice := registerUser(t, store, "alice", "s3cret")
	bob := registerUser(t, store, "bob", "hunter2")
	savedLot(t, store, "main", alice)

	_, err := LoadLot(ctx, store, "main", bob)
	require.ErrorIs(t, err, common.ErrNotAuthorized)
}

func TestLoadLot_NotFound(t *testing.T) {
	store, _ := newStore(t)
	alice := registerUser(t, store, "alice", "s3cret")

	_, err := LoadLot(context.Background(), store, "nope", alice)
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestLot_RotationRewrapsEverything(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()
	alice := registerUser(t, store, "alice", "s3cret")
	lot := savedLot(t, store, "main", alice)

	_, err := lot.Insert(ctx, store, payload.Domain("github", map[string]string{"user": "alice", "password": "hunter2"}))
	require.NoError(t, err)
	require.NoError(t, lot.Save(ctx, store, alice))

	k1, err := store.LotKeys.Get(ctx, "alice", lot.ID().String())
	require.NoError(t, err)
	recsBefore, err := store.Records.ListByLot(ctx, lot.ID().String())
	require.NoError(t, err)
	require.Len(t, recsBefore, 1)

	lot.RegenerateKey()
	require.NoError(t, lot.Save(ctx, store, alice))

	k2, err := store.LotKeys.Get(ctx, "alice", lot.ID().String())
	require.NoError(t, err)
	assert.NotEqual(t, k1.Data, k2.Data)

	recsAfter, err := store.Records.ListByLot(ctx, lot.ID().String())
	require.NoError(t, err)
	require.Len(t, recsAfter, 1)
	assert.Equal(t, recsBefore[0].ID, recsAfter[0].ID)
	assert.NotEqual(t, recsBefore[0].Data, recsAfter[0].Data)

	reloaded, err := LoadLot(ctx, store, "main", alice)
	require.NoError(t, err)
	defer reloaded.Destroy()
	assert.True(t, reloaded.Key().Equal(lot.Key()))

	rec, ok := reloaded.Find("github")
	require.True(t, ok)
	assert.Equal(t, map[string]string{"user": "alice", "password": "hunter2"}, rec.Payload().Attributes())
}

func TestLoadLot_CorruptRecordFailsWholeLoad(t *testing.T) {
	store, db := newStore(t)
	ctx := context.Background()
	alice := registerUser(t, store, "alice", "s3cret")
	lot := savedLot(t, store, "main", alice)

	_, err := lot.Insert(ctx, store, payload.Plain("a", "1"))
	require.NoError(t, err)
	bad, err := lot.Insert(ctx, store, payload.Plain("b", "2"))
	require.NoError(t, err)

	flipFirstByte(t, db, `records`, `data`, `id`, bad.String())

	got, err := LoadLot(ctx, store, "main", alice)
	require.Error(t, err)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, common.ErrDecryption)

	var pe *payload.PipelineError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, payload.StageDecrypt, pe.Stage)
}

func TestLoadLot_CorruptWrappedKey(t *testing.T) {
	store, db := newStore(t)
	alice := registerUser(t, store, "alice", "s3cret")
	savedLot(t, store, "main", alice)

	_, err := db.Exec(`UPDATE user_lot_keys SET nonce = zeroblob(24)`)
	require.NoError(t, err)

	_, err = LoadLot(context.Background(), store, "main", alice)
	require.ErrorIs(t, err, common.ErrDecryption)
}

func TestLoadLot_CancelledContext(t *testing.T) {
	store, _ := newStore(t)
	alice := registerUser(t, store, "alice", "s3cret")
	lot := savedLot(t, store, "main", alice)
	_, err := lot.Insert(context.Background(), store, payload.Plain("a", "1"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	got, err := LoadLot(ctx, store, "main", alice)
	require.Error(t, err)
	assert.Nil(t, got)
}

func TestLot_InsertRequiresSavedLot(t *testing.T) {
	store, _ := newStore(t)
	lot := NewLot("unsaved")
	defer lot.Destroy()

	_, err := lot.Insert(context.Background(), store, payload.Plain("a", "1"))
	require.ErrorIs(t, err, common.ErrNotFound)
	assert.Empty(t, lot.Records())
}

func TestLot_FindReturnsLatest(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()
	alice := registerUser(t, store, "alice", "s3cret")
	lot := savedLot(t, store, "main", alice)

	_, err := lot.Insert(ctx, store, payload.Plain("pin", "1111"))
	require.NoError(t, err)
	_, err = lot.Insert(ctx, store, payload.Plain("other", "x"))
	require.NoError(t, err)
	newest, err := lot.Insert(ctx, store, payload.Plain("pin", "2222"))
	require.NoError(t, err)

	rec, ok := lot.Find("pin")
	require.True(t, ok)
	assert.Equal(t, newest, rec.ID())

	_, ok = lot.Find("missing")
	assert.False(t, ok)

	reloaded, err := LoadLot(ctx, store, "main", alice)
	require.NoError(t, err)
	defer reloaded.Destroy()
	require.Len(t, reloaded.Records(), 3)
	rec, ok = reloaded.Find("pin")
	require.True(t, ok)
	v, _ := rec.Payload().Value()
	assert.Equal(t, "2222", v)
}

func TestLot_KeysAreIndependent(t *testing.T) {
	u, err := NewUser("alice", secret.FromString("pw"))
	require.NoError(t, err)
	defer u.Destroy()

	a, b := NewLot("a"), NewLot("b")
	defer a.Destroy()
	defer b.Destroy()

	assert.False(t, a.Key().Equal(b.Key()))
	assert.NotEqual(t, a.Key().RawBytes(), u.Key().RawBytes())
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestLot_RenameKeepsIdentity(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()
	alice := registerUser(t, store, "alice", "s3cret")
	lot := savedLot(t, store, "main", alice)

	lot.Rename("personal")
	require.NoError(t, lot.Save(ctx, store, alice))

	_, err := LoadLot(ctx, store, "main", alice)
	require.ErrorIs(t, err, common.ErrNotFound)

	got, err := LoadLot(ctx, store, "personal", alice)
	require.NoError(t, err)
	defer got.Destroy()
	assert.Equal(t, lot.ID(), got.ID())
	assert.True(t, got.Key().Equal(lot.Key()))
}

func TestUser_Lots(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()
	alice := registerUser(t, store, "alice", "s3cret")
	bob := registerUser(t, store, "bob", "hunter2")
	savedLot(t, store, "main", alice)
	savedLot(t, store, "work", alice)
	savedLot(t, store, "bobs", bob)

	lots, err := alice.Lots(ctx, store)
	require.NoError(t, err)
	names := make([]string, 0, len(lots))
	for _, l := range lots {
		names = append(names, l.Name())
		l.Destroy()
	}
	assert.ElementsMatch(t, []string{"main", "work"}, names)
}

func TestSealOpenPayload(t *testing.T) {
	key := cryptox.GenerateKey[Lot]()
	defer key.Destroy()
	other := cryptox.GenerateKey[Lot]()
	defer other.Destroy()

	p := payload.Domain("bank", map[string]string{"iban": "LV00", "pin": "0000"})
	ct, err := SealPayload(p, key)
	require.NoError(t, err)

	got, err := OpenPayload(ct, key)
	require.NoError(t, err)
	assert.True(t, p.Equal(got))

	_, err = OpenPayload(ct, other)
	var pe *payload.PipelineError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, payload.StageDecrypt, pe.Stage)
	assert.ErrorIs(t, err, common.ErrDecryption)
}

func TestOpenPayload_DecryptsButNotAPayload(t *testing.T) {
	key := cryptox.GenerateKey[Lot]()
	defer key.Destroy()

	ct, err := key.Encrypt([]byte("raw bytes, not a packed payload"))
	require.NoError(t, err)

	_, err = OpenPayload(ct, key)
	var pe *payload.PipelineError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, payload.StageDecompress, pe.Stage)
}

func failDerivation(t *testing.T) {
	t.Helper()
	orig := deriveUserKey
	deriveUserKey = func(*secret.String, cryptox.Salt) (*cryptox.Key[User], error) {
		return nil, fmt.Errorf("%w: cannot allocate memory", common.ErrKeyDerivation)
	}
	t.Cleanup(func() { deriveUserKey = orig })
}

func TestLoadUser_KeyDerivationFailure(t *testing.T) {
	store, _ := newStore(t)
	registerUser(t, store, "alice", "s3cret")
	failDerivation(t)

	pw := secret.FromString("s3cret")
	_, err := LoadUser(context.Background(), store, "alice", pw)
	require.ErrorIs(t, err, common.ErrKeyDerivation)
	assert.NotErrorIs(t, err, common.ErrInvalidCredentials)
	assert.False(t, pw.IsAlive())
}

func TestNewUser_KeyDerivationFailure(t *testing.T) {
	failDerivation(t)

	pw := secret.FromString("s3cret")
	_, err := NewUser("alice", pw)
	require.ErrorIs(t, err, common.ErrKeyDerivation)
	assert.False(t, pw.IsAlive())
}
