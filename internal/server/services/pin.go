package services

import (
	"context"
	"unicode/utf8"

	"github.com/dmitrijs2005/credkeeper/internal/common"
	"github.com/dmitrijs2005/credkeeper/internal/server/models"
)

// SetPin stores a PIN and resets the step-up flag.
func (s *AuthService) SetPin(ctx context.Context, accountID, pin string) error {
	if utf8.RuneCountInString(pin) < minPinLength {
		return common.ErrPinTooShort
	}

	pinHash, err := s.hasher.Hash(pin)
	if err != nil {
		return err
	}

	_, err = s.mutate(ctx, s.accounts(), accountID, func(a *models.Account) error {
		if a.HasPin() && s.hasher.Verify(pin, *a.PinHash) {
			return common.ErrPinUnchanged
		}
		a.PinHash = &pinHash
		a.PinVerified = false
		return nil
	})
	return err
}

// ChangePin replaces the PIN after checking the current one and resets the
// step-up flag.
func (s *AuthService) ChangePin(ctx context.Context, accountID, oldPin, newPin string) error {
	if utf8.RuneCountInString(newPin) < minPinLength {
		return common.ErrPinTooShort
	}

	pinHash, err := s.hasher.Hash(newPin)
	if err != nil {
		return err
	}

	_, err = s.mutate(ctx, s.accounts(), accountID, func(a *models.Account) error {
		if !a.HasPin() || !s.hasher.Verify(oldPin, *a.PinHash) {
			return common.ErrInvalidCurrentPin
		}
		if oldPin == newPin {
			return common.ErrPinUnchanged
		}
		a.PinHash = &pinHash
		a.PinVerified = false
		return nil
	})
	return err
}

// VerifyPin checks the PIN and sets the step-up flag.
func (s *AuthService) VerifyPin(ctx context.Context, accountID, pin string) error {
	_, err := s.mutate(ctx, s.accounts(), accountID, func(a *models.Account) error {
		if !a.HasPin() || !s.hasher.Verify(pin, *a.PinHash) {
			return common.ErrInvalidPin
		}
		if a.PinVerified {
			return errNoChange
		}
		a.PinVerified = true
		return nil
	})
	return err
}
