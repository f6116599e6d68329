// Package revocations persists the revoked-token ledger. Entries are keyed by
// token digest, inserted at most once and never removed.
package revocations

import "context"

type Repository interface {
	// Insert records digest. Inserting an existing digest is a no-op.
	Insert(ctx context.Context, digest string) error
	Exists(ctx context.Context, digest string) (bool, error)
}
