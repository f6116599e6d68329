package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/credkeeper/internal/common"
	"github.com/dmitrijs2005/credkeeper/internal/dbx"
	"github.com/dmitrijs2005/credkeeper/internal/server/models"
	"github.com/dmitrijs2005/credkeeper/internal/server/notify"
)

// ChangePassword replaces the password after checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, accountID, oldPassword, newPassword string) error {
	if err := checkPassword(newPassword); err != nil {
		return err
	}

	newHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	_, err = s.mutate(ctx, s.accounts(), accountID, func(a *models.Account) error {
		if !s.hasher.Verify(oldPassword, a.PasswordHash) {
			return common.ErrInvalidCurrentPassword
		}
		if oldPassword == newPassword {
			return common.ErrPasswordUnchanged
		}
		a.PasswordHash = newHash
		return nil
	})
	return err
}

// RequestPasswordReset mails a reset link if email belongs to an account.
// It never reports whether it did: failures are logged, not returned.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) {
	if email == "" {
		return
	}

	repo := s.accounts()
	a, err := repo.FindByEmail(ctx, email)
	if err != nil {
		if !isNotFound(err) {
			s.logger.Error(ctx, "password reset lookup failed", "error", err)
		}
		return
	}

	var token string
	a, err = s.mutate(ctx, repo, a.ID, func(a *models.Account) error {
		var err error
		token, err = s.broker.Issue(a, models.PurposePasswordReset)
		return err
	})
	if err != nil {
		s.logger.Error(ctx, "password reset token not stored", "error", err)
		return
	}
	if a.Email == nil {
		return
	}

	s.notify(notify.PasswordResetMessage(*a.Email, a.Username, s.link("/reset-password", token)))
}

// CheckPasswordReset reports whether a reset token is redeemable without
// consuming it.
func (s *AuthService) CheckPasswordReset(ctx context.Context, token string) error {
	err := s.broker.Check(ctx, s.accounts(), models.PurposePasswordReset, token)
	if isNotFound(err) {
		return common.ErrInvalidOrExpiredToken
	}
	return err
}

// ConfirmPasswordReset consumes a reset token, sets the new password and
// ends the account's session by revoking its refresh token.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if err := checkPassword(newPassword); err != nil {
		return err
	}

	newHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Accounts(tx)

		for attempt := 0; attempt < maxWriteAttempts; attempt++ {
			a, err := s.broker.Consume(ctx, repo, models.PurposePasswordReset, token)
			if err != nil {
				if isNotFound(err) {
					return common.ErrInvalidOrExpiredToken
				}
				return err
			}

			expected := a.Version
			a.PasswordHash = newHash
			if a.RefreshToken != nil {
				if err := s.ledger.Revoke(ctx, tx, *a.RefreshToken); err != nil {
					return err
				}
				a.ClearRefreshToken()
			}

			err = repo.UpdateIfMatches(ctx, a, expected)
			if errors.Is(err, common.ErrVersionConflict) {
				continue
			}
			if err != nil {
				return err
			}

			s.logger.Info(ctx, "password reset", "account_id", a.ID)
			return nil
		}
		return fmt.Errorf("confirm password reset: %w", common.ErrVersionConflict)
	})
}
