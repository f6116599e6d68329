package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/credkeeper/internal/common"
	"github.com/dmitrijs2005/credkeeper/internal/server/auth"
	"github.com/dmitrijs2005/credkeeper/internal/server/models"
	"github.com/dmitrijs2005/credkeeper/internal/server/repositories/accounts"
)

// ConfirmationBroker issues and consumes the single-use tokens mailed out
// for email verification, email change and password reset.
//
// email-verify and email-change share the verification slot, so issuing one
// replaces the other. A zero TTL means tokens never expire.
type ConfirmationBroker struct {
	verificationTTL time.Duration
	resetTTL        time.Duration
	now             func() time.Time
}

func NewConfirmationBroker(verificationTTL, resetTTL time.Duration) *ConfirmationBroker {
	return &ConfirmationBroker{verificationTTL: verificationTTL, resetTTL: resetTTL, now: time.Now}
}

// Issue stores a fresh token for purpose on a and returns it. The caller
// persists a.
func (b *ConfirmationBroker) Issue(a *models.Account, purpose models.Purpose) (string, error) {
	token, err := auth.NewOpaqueToken()
	if err != nil {
		return "", err
	}

	switch purpose {
	case models.PurposeEmailVerify, models.PurposeEmailChange:
		p := purpose
		a.VerificationToken = &token
		a.VerificationPurpose = &p
		a.VerificationTokenExpiresAt = b.expiry(b.verificationTTL)
	case models.PurposePasswordReset:
		a.ResetToken = &token
		a.ResetTokenExpiresAt = b.expiry(b.resetTTL)
	default:
		return "", fmt.Errorf("unknown purpose %q", purpose)
	}
	return token, nil
}

// Consume finds the account holding token for purpose and clears the token
// on the returned copy. The caller must write that copy back conditionally
// together with its own state change. Unknown, mismatched and expired tokens
// all fail with common.ErrorNotFound.
func (b *ConfirmationBroker) Consume(ctx context.Context, repo accounts.Repository, purpose models.Purpose, token string) (*models.Account, error) {
	a, err := b.lookup(ctx, repo, purpose, token)
	if err != nil {
		return nil, err
	}
	b.Clear(a, purpose)
	return a, nil
}

// Check reports whether token is currently redeemable without consuming it.
func (b *ConfirmationBroker) Check(ctx context.Context, repo accounts.Repository, purpose models.Purpose, token string) error {
	_, err := b.lookup(ctx, repo, purpose, token)
	return err
}

// Clear drops the token slot used by purpose.
func (b *ConfirmationBroker) Clear(a *models.Account, purpose models.Purpose) {
	if purpose == models.PurposePasswordReset {
		a.ClearResetToken()
		return
	}
	a.ClearVerificationToken()
}

func (b *ConfirmationBroker) lookup(ctx context.Context, repo accounts.Repository, purpose models.Purpose, token string) (*models.Account, error) {
	if token == "" || !purpose.Valid() {
		return nil, common.ErrorNotFound
	}

	kind := accounts.TokenVerification
	if purpose == models.PurposePasswordReset {
		kind = accounts.TokenReset
	}

	a, err := repo.FindByToken(ctx, kind, token)
	if err != nil {
		return nil, err
	}

	var expiresAt *time.Time
	if kind == accounts.TokenReset {
		expiresAt = a.ResetTokenExpiresAt
	} else {
		if a.VerificationPurpose == nil || *a.VerificationPurpose != purpose {
			return nil, common.ErrorNotFound
		}
		expiresAt = a.VerificationTokenExpiresAt
	}

	if expiresAt != nil && b.now().After(*expiresAt) {
		return nil, common.ErrorNotFound
	}
	return a, nil
}

func (b *ConfirmationBroker) expiry(ttl time.Duration) *time.Time {
	if ttl <= 0 {
		return nil
	}
	t := b.now().Add(ttl)
	return &t
}

// isNotFound reports a store miss or a rejected confirmation token.
func isNotFound(err error) bool {
	return errors.Is(err, common.ErrorNotFound)
}
