package services

import (
	"time"

	"github.com/dmitrijs2005/credkeeper/internal/server/models"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}

type RegisterResult struct {
	ID          string
	Username    string
	Email       *string
	Tokens      TokenPair
	PinVerified bool
}

type LoginResult struct {
	ID          string
	Username    string
	Tokens      TokenPair
	PinVerified bool
}

type VerifyEmailResult struct {
	// AlreadyVerified is set when a concurrent request verified the account
	// first.
	AlreadyVerified bool
}

// Profile is the self-view of an account.
type Profile struct {
	ID           string
	Username     string
	Email        *string
	PendingEmail *string
	Verified     bool
	IsActive     bool
	HasPin       bool
	PinVerified  bool
	Avatar       *string
	CreatedAt    time.Time
}

// Introspection describes an access token to another backend.
type Introspection struct {
	Active    bool
	Subject   string
	Username  string
	ExpiresAt time.Time
}

func newProfile(a *models.Account) *Profile {
	return &Profile{
		ID:           a.ID,
		Username:     a.Username,
		Email:        a.Email,
		PendingEmail: a.PendingEmail,
		Verified:     a.IsVerified,
		IsActive:     a.IsActive,
		HasPin:       a.HasPin(),
		PinVerified:  a.PinVerified,
		Avatar:       a.Avatar,
		CreatedAt:    a.CreatedAt,
	}
}
