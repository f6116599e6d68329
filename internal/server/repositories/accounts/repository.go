// Package accounts stores credential records.
package accounts

import (
	"context"

	"github.com/dmitrijs2005/credkeeper/internal/server/models"
)

// TokenKind names a token column that accounts can be looked up by.
type TokenKind int

const (
	TokenRefresh TokenKind = iota
	TokenVerification
	TokenReset
)

// Repository is the account store contract.
//
// Lookups return common.ErrorNotFound when nothing matches. Insert reports
// uniqueness races as common.ErrDuplicateUsername or common.ErrDuplicateEmail.
// UpdateIfMatches writes only if the stored version still equals
// expectedVersion and fails with common.ErrVersionConflict otherwise.
type Repository interface {
	FindByID(ctx context.Context, id string) (*models.Account, error)
	FindByUsername(ctx context.Context, username string) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	FindByToken(ctx context.Context, kind TokenKind, value string) (*models.Account, error)
	// EmailInUse reports whether email is the current or pending email of any
	// account other than exceptID.
	EmailInUse(ctx context.Context, email string, exceptID string) (bool, error)
	Insert(ctx context.Context, account *models.Account) error
	UpdateIfMatches(ctx context.Context, account *models.Account, expectedVersion int64) error
	Delete(ctx context.Context, id string) error
}
