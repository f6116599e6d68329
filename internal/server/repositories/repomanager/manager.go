package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/credkeeper/internal/dbx"
	"github.com/dmitrijs2005/credkeeper/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/credkeeper/internal/server/repositories/revocations"
)

// RepositoryManager vends repositories bound to a DB handle or transaction,
// so a service can run several of them inside one dbx.WithTx call.
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Revocations(db dbx.DBTX) revocations.Repository
}
