package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/credkeeper/internal/common"
	"github.com/dmitrijs2005/credkeeper/internal/dbx"
	"github.com/dmitrijs2005/credkeeper/internal/server/models"
)

const (
	constraintUsername     = "accounts_username_key"
	constraintEmail        = "accounts_email_key"
	constraintPendingEmail = "accounts_pending_email_key"
)

const selectColumns = `id, username, email, pending_email, password_hash, pin_hash,
		is_verified, pin_verified, is_active, avatar,
		refresh_token, refresh_token_expires_at,
		verification_token, verification_purpose, verification_token_expires_at,
		reset_token, reset_token_expires_at,
		version, created_at, updated_at`

var tokenColumns = map[TokenKind]string{
	TokenRefresh:      "refresh_token",
	TokenVerification: "verification_token",
	TokenReset:        "reset_token",
}

// PostgresRepository implements Repository over dbx.DBTX (satisfied by
// *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanAccount(row *sql.Row) (*models.Account, error) {
	a := &models.Account{}
	err := row.Scan(
		&a.ID, &a.Username, &a.Email, &a.PendingEmail, &a.PasswordHash, &a.PinHash,
		&a.IsVerified, &a.PinVerified, &a.IsActive, &a.Avatar,
		&a.RefreshToken, &a.RefreshTokenExpiresAt,
		&a.VerificationToken, &a.VerificationPurpose, &a.VerificationTokenExpiresAt,
		&a.ResetToken, &a.ResetTokenExpiresAt,
		&a.Version, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) findOne(ctx context.Context, where string, arg any) (*models.Account, error) {
	query := `SELECT ` + selectColumns + `
		FROM accounts
		WHERE ` + where
	return scanAccount(r.db.QueryRowContext(ctx, query, arg))
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	return r.findOne(ctx, "id = $1", id)
}

func (r *PostgresRepository) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	return r.findOne(ctx, "username = $1", username)
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.findOne(ctx, "email = $1", email)
}

// FindByToken looks an account up by one of its token columns. An empty
// value never matches.
func (r *PostgresRepository) FindByToken(ctx context.Context, kind TokenKind, value string) (*models.Account, error) {
	column, ok := tokenColumns[kind]
	if !ok {
		return nil, fmt.Errorf("unknown token kind %d", kind)
	}
	if value == "" {
		return nil, common.ErrorNotFound
	}
	return r.findOne(ctx, column+" = $1", value)
}

func (r *PostgresRepository) EmailInUse(ctx context.Context, email string, exceptID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM accounts
			WHERE (email = $1 OR pending_email = $1) AND id::text <> $2
		)
	`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, email, exceptID).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

// Insert stores a new account and fills in the server-assigned version and
// timestamps.
func (r *PostgresRepository) Insert(ctx context.Context, a *models.Account) error {
	query := `
		INSERT INTO accounts (id, username, email, pending_email, password_hash, pin_hash,
			is_verified, pin_verified, is_active, avatar,
			refresh_token, refresh_token_expires_at,
			verification_token, verification_purpose, verification_token_expires_at,
			reset_token, reset_token_expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING version, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		a.ID, a.Username, a.Email, a.PendingEmail, a.PasswordHash, a.PinHash,
		a.IsVerified, a.PinVerified, a.IsActive, a.Avatar,
		a.RefreshToken, a.RefreshTokenExpiresAt,
		a.VerificationToken, a.VerificationPurpose, a.VerificationTokenExpiresAt,
		a.ResetToken, a.ResetTokenExpiresAt,
	).Scan(&a.Version, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	return nil
}

// UpdateIfMatches writes every mutable column of a when the stored version is
// expectedVersion, then bumps the version. On success a carries the new
// version and updated_at.
func (r *PostgresRepository) UpdateIfMatches(ctx context.Context, a *models.Account, expectedVersion int64) error {
	query := `
		UPDATE accounts SET
			email = $3, pending_email = $4, password_hash = $5, pin_hash = $6,
			is_verified = $7, pin_verified = $8, is_active = $9, avatar = $10,
			refresh_token = $11, refresh_token_expires_at = $12,
			verification_token = $13, verification_purpose = $14, verification_token_expires_at = $15,
			reset_token = $16, reset_token_expires_at = $17,
			version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $2
		RETURNING version, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		a.ID, expectedVersion,
		a.Email, a.PendingEmail, a.PasswordHash, a.PinHash,
		a.IsVerified, a.PinVerified, a.IsActive, a.Avatar,
		a.RefreshToken, a.RefreshTokenExpiresAt,
		a.VerificationToken, a.VerificationPurpose, a.VerificationTokenExpiresAt,
		a.ResetToken, a.ResetTokenExpiresAt,
	).Scan(&a.Version, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrVersionConflict
		}
		return mapWriteError(err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `
		DELETE FROM accounts
		WHERE id = $1
	`
	err := dbx.RequireAffected(r.db.ExecContext(ctx, query, id))
	if errors.Is(err, dbx.ErrNoRowsAffected) {
		return common.ErrorNotFound
	}
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func mapWriteError(err error) error {
	if constraint, ok := dbx.UniqueViolation(err); ok {
		switch constraint {
		case constraintUsername:
			return common.ErrDuplicateUsername
		case constraintEmail, constraintPendingEmail:
			return common.ErrDuplicateEmail
		}
	}
	return fmt.Errorf("db error: %w", err)
}
