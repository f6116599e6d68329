// Package httpapi exposes AuthService over JSON/HTTP under the /auth prefix.
package httpapi

import (
	"context"
	"time"

	"github.com/dmitrijs2005/credkeeper/internal/logging"
	"github.com/dmitrijs2005/credkeeper/internal/server/models"
	"github.com/dmitrijs2005/credkeeper/internal/server/services"
	"github.com/go-playground/validator/v10"
)

// Service is the part of services.AuthService the HTTP layer calls.
type Service interface {
	Register(ctx context.Context, in services.RegisterInput) (*services.RegisterResult, error)
	Login(ctx context.Context, username, password string) (*services.LoginResult, error)
	Logout(ctx context.Context, accessToken, refreshToken string) error
	Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Authenticate(ctx context.Context, accessToken string) (*models.Account, error)
	Me(ctx context.Context, a *models.Account) *services.Profile

	ChangePassword(ctx context.Context, accountID, oldPassword, newPassword string) error
	RequestPasswordReset(ctx context.Context, email string)
	CheckPasswordReset(ctx context.Context, token string) error
	ConfirmPasswordReset(ctx context.Context, token, newPassword string) error

	VerifyEmail(ctx context.Context, token string) (*services.VerifyEmailResult, error)
	ResendVerification(ctx context.Context, accountID string) error
	ChangeEmail(ctx context.Context, accountID, newEmail string) error
	ConfirmEmailChange(ctx context.Context, token string) error
	CancelPendingEmail(ctx context.Context, accountID string) error

	SetPin(ctx context.Context, accountID, pin string) error
	ChangePin(ctx context.Context, accountID, oldPin, newPin string) error
	VerifyPin(ctx context.Context, accountID, pin string) error
}

// Handler holds the HTTP endpoints of the auth API.
type Handler struct {
	auth     Service
	validate *validator.Validate
	logger   logging.Logger

	// secureCookies sets the Secure attribute on the refresh cookie.
	secureCookies bool
	refreshTTL    time.Duration
}

func NewHandler(auth Service, logger logging.Logger, secureCookies bool, refreshTTL time.Duration) *Handler {
	return &Handler{
		auth:          auth,
		validate:      validator.New(validator.WithRequiredStructEnabled()),
		logger:        logger,
		secureCookies: secureCookies,
		refreshTTL:    refreshTTL,
	}
}
