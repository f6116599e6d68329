package revocations

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/credkeeper/internal/dbx"
)

// PostgresRepository implements Repository over dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, digest string) error {
	query := `
		INSERT INTO revoked_tokens (token_digest)
		VALUES ($1)
		ON CONFLICT (token_digest) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, digest); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Exists(ctx context.Context, digest string) (bool, error) {
	query := `
		SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE token_digest = $1)
	`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, digest).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}
