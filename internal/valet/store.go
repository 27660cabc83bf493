package valet

import (
	"github.com/dmitrijs2005/valet/internal/dbx"
	"github.com/dmitrijs2005/valet/internal/repomanager"
	"github.com/dmitrijs2005/valet/internal/repositories/lotkeys"
	"github.com/dmitrijs2005/valet/internal/repositories/lots"
	"github.com/dmitrijs2005/valet/internal/repositories/records"
	"github.com/dmitrijs2005/valet/internal/repositories/users"
)

// Store groups the repositories the key hierarchy persists through.
type Store struct {
	Users   users.Repository
	Lots    lots.Repository
	LotKeys lotkeys.Repository
	Records records.Repository
}

// NewStore binds every repository of m to db, which may be a pool or a
// transaction.
func NewStore(m repomanager.RepositoryManager, db dbx.DBTX) Store {
	return Store{
		Users:   m.Users(db),
		Lots:    m.Lots(db),
		LotKeys: m.LotKeys(db),
		Records: m.Records(db),
	}
}
