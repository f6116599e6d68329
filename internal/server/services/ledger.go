package services

import (
	"context"

	"github.com/dmitrijs2005/credkeeper/internal/common"
	"github.com/dmitrijs2005/credkeeper/internal/dbx"
	"github.com/dmitrijs2005/credkeeper/internal/server/repositories/repomanager"
)

// Ledger records revoked access and refresh tokens by SHA-256 digest.
type Ledger struct {
	repomanager repomanager.RepositoryManager
}

func NewLedger(m repomanager.RepositoryManager) *Ledger {
	return &Ledger{repomanager: m}
}

// Revoke adds token to the ledger. Revoking twice is not an error and an
// empty token is ignored.
func (l *Ledger) Revoke(ctx context.Context, db dbx.DBTX, token string) error {
	if token == "" {
		return nil
	}
	return l.repomanager.Revocations(db).Insert(ctx, common.TokenDigest(token))
}

func (l *Ledger) IsRevoked(ctx context.Context, db dbx.DBTX, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	return l.repomanager.Revocations(db).Exists(ctx, common.TokenDigest(token))
}
