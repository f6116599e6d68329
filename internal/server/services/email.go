package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/credkeeper/internal/common"
	"github.com/dmitrijs2005/credkeeper/internal/server/models"
	"github.com/dmitrijs2005/credkeeper/internal/server/notify"
)

// VerifyEmail consumes an email-verify token and marks the account verified.
// When a parallel request with the same token wins the race the result is
// AlreadyVerified rather than an error.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*VerifyEmailResult, error) {
	repo := s.accounts()

	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		a, err := s.broker.Consume(ctx, repo, models.PurposeEmailVerify, token)
		if err != nil {
			if isNotFound(err) {
				return nil, common.ErrInvalidOrExpiredToken
			}
			return nil, err
		}
		if a.IsVerified {
			return &VerifyEmailResult{AlreadyVerified: true}, nil
		}

		expected := a.Version
		a.IsVerified = true

		err = repo.UpdateIfMatches(ctx, a, expected)
		if errors.Is(err, common.ErrVersionConflict) {
			current, err := repo.FindByID(ctx, a.ID)
			if err != nil {
				return nil, err
			}
			if current.IsVerified {
				return &VerifyEmailResult{AlreadyVerified: true}, nil
			}
			continue
		}
		if err != nil {
			return nil, err
		}

		if a.Email != nil {
			s.notify(notify.WelcomeMessage(*a.Email, a.Username))
		}
		s.logger.Info(ctx, "email verified", "account_id", a.ID)
		return &VerifyEmailResult{}, nil
	}
	return nil, fmt.Errorf("verify email: %w", common.ErrVersionConflict)
}

// ResendVerification issues a new email-verify token and mails it. A pending
// email change is abandoned since both share the verification token slot.
func (s *AuthService) ResendVerification(ctx context.Context, accountID string) error {
	var token string
	a, err := s.mutate(ctx, s.accounts(), accountID, func(a *models.Account) error {
		if a.IsVerified {
			return common.ErrAlreadyVerified
		}
		if a.Email == nil {
			return common.ErrNoEmail
		}
		a.PendingEmail = nil
		var err error
		token, err = s.broker.Issue(a, models.PurposeEmailVerify)
		return err
	})
	if err != nil {
		return err
	}

	s.notify(notify.VerifyEmailMessage(*a.Email, a.Username, s.link("/verify-email", token), true))
	return nil
}

// ChangeEmail starts an email change: newEmail becomes pending and a
// confirmation link is mailed to it. Asking again for the pending address
// resends the link.
func (s *AuthService) ChangeEmail(ctx context.Context, accountID, newEmail string) error {
	if newEmail == "" {
		return common.ErrValidation
	}

	repo := s.accounts()
	var token string
	a, err := s.mutate(ctx, repo, accountID, func(a *models.Account) error {
		if a.PendingEmail == nil && a.Email != nil && *a.Email == newEmail {
			return common.ErrNoOpChange
		}

		used, err := repo.EmailInUse(ctx, newEmail, a.ID)
		if err != nil {
			return err
		}
		if used {
			return common.ErrEmailInUse
		}

		pending := newEmail
		a.PendingEmail = &pending
		token, err = s.broker.Issue(a, models.PurposeEmailChange)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrDuplicateEmail) {
			return common.ErrEmailInUse
		}
		return err
	}

	s.notify(notify.ChangeEmailMessage(newEmail, a.Username, s.link("/verify-email-change", token)))
	return nil
}

// ConfirmEmailChange consumes an email-change token and promotes the pending
// address. isVerified is left as it was.
func (s *AuthService) ConfirmEmailChange(ctx context.Context, token string) error {
	repo := s.accounts()

	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		a, err := s.broker.Consume(ctx, repo, models.PurposeEmailChange, token)
		if err != nil {
			if isNotFound(err) {
				return common.ErrInvalidEmailToken
			}
			return err
		}
		if a.PendingEmail == nil {
			return common.ErrInvalidEmailToken
		}

		expected := a.Version
		a.Email = a.PendingEmail
		a.PendingEmail = nil

		err = repo.UpdateIfMatches(ctx, a, expected)
		switch {
		case errors.Is(err, common.ErrVersionConflict):
			continue
		case errors.Is(err, common.ErrDuplicateEmail):
			return common.ErrEmailInUse
		case err != nil:
			return err
		}

		s.notify(notify.EmailChangedMessage(*a.Email, a.Username))
		s.logger.Info(ctx, "email changed", "account_id", a.ID)
		return nil
	}
	return fmt.Errorf("confirm email change: %w", common.ErrVersionConflict)
}

// CancelPendingEmail abandons a pending email change.
func (s *AuthService) CancelPendingEmail(ctx context.Context, accountID string) error {
	_, err := s.mutate(ctx, s.accounts(), accountID, func(a *models.Account) error {
		if a.PendingEmail == nil {
			return common.ErrNoPendingChange
		}
		a.PendingEmail = nil
		s.broker.Clear(a, models.PurposeEmailChange)
		return nil
	})
	return err
}
