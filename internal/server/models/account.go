// Package models defines server-side data models persisted in the database.
package models

import "time"

// Purpose tags an outstanding confirmation token.
type Purpose string

const (
	PurposeEmailVerify   Purpose = "email-verify"
	PurposeEmailChange   Purpose = "email-change"
	PurposePasswordReset Purpose = "password-reset"
)

// Valid reports whether p is one of the known purposes.
func (p Purpose) Valid() bool {
	switch p {
	case PurposeEmailVerify, PurposeEmailChange, PurposePasswordReset:
		return true
	}
	return false
}

// Account is the credential record of a user.
//
// Secrets are stored as digests only. Version is bumped on every update and
// guards conditional writes.
type Account struct {
	ID       string
	Username string
	// Email is nil for accounts registered without one.
	Email        *string
	PendingEmail *string
	PasswordHash string
	PinHash      *string
	IsVerified   bool
	PinVerified  bool
	IsActive     bool
	Avatar       *string

	RefreshToken          *string
	RefreshTokenExpiresAt *time.Time

	// VerificationToken serves both email verification and email change;
	// VerificationPurpose says which.
	VerificationToken          *string
	VerificationPurpose        *Purpose
	VerificationTokenExpiresAt *time.Time

	ResetToken          *string
	ResetTokenExpiresAt *time.Time

	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasPin reports whether a PIN digest is stored.
func (a *Account) HasPin() bool {
	return a.PinHash != nil && *a.PinHash != ""
}

// ClearRefreshToken drops the live refresh token.
func (a *Account) ClearRefreshToken() {
	a.RefreshToken = nil
	a.RefreshTokenExpiresAt = nil
}

// ClearVerificationToken drops the email-verify or email-change token.
func (a *Account) ClearVerificationToken() {
	a.VerificationToken = nil
	a.VerificationPurpose = nil
	a.VerificationTokenExpiresAt = nil
}

// ClearResetToken drops the password-reset token.
func (a *Account) ClearResetToken() {
	a.ResetToken = nil
	a.ResetTokenExpiresAt = nil
}

// Clone returns a deep copy so callers can mutate it without touching a
// shared instance.
func (a *Account) Clone() *Account {
	c := *a
	c.Email = cloneString(a.Email)
	c.PendingEmail = cloneString(a.PendingEmail)
	c.PinHash = cloneString(a.PinHash)
	c.Avatar = cloneString(a.Avatar)
	c.RefreshToken = cloneString(a.RefreshToken)
	c.RefreshTokenExpiresAt = cloneTime(a.RefreshTokenExpiresAt)
	c.VerificationToken = cloneString(a.VerificationToken)
	c.VerificationTokenExpiresAt = cloneTime(a.VerificationTokenExpiresAt)
	c.ResetToken = cloneString(a.ResetToken)
	c.ResetTokenExpiresAt = cloneTime(a.ResetTokenExpiresAt)
	if a.VerificationPurpose != nil {
		p := *a.VerificationPurpose
		c.VerificationPurpose = &p
	}
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
