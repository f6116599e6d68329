package services

import (
	"context"
	"errors"
	"unicode/utf8"

	"github.com/dmitrijs2005/credkeeper/internal/common"
	"github.com/dmitrijs2005/credkeeper/internal/dbx"
	"github.com/dmitrijs2005/credkeeper/internal/server/models"
	"github.com/dmitrijs2005/credkeeper/internal/server/notify"
	"github.com/dmitrijs2005/credkeeper/internal/server/repositories/accounts"
	"github.com/google/uuid"
)

// RegisterInput holds sign-up data. Empty optional strings are treated as
// absent.
type RegisterInput struct {
	Username string
	Password string
	Email    string
	Pin      string
	Avatar   string
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Register creates an unverified account and signs it in. When an email is
// given a verification link is mailed to it.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	if in.Username == "" || in.Password == "" {
		return nil, common.ErrMissingField
	}
	if utf8.RuneCountInString(in.Username) < minUsernameLength {
		return nil, common.ErrUsernameTooShort
	}
	if err := checkPassword(in.Password); err != nil {
		return nil, err
	}
	if in.Pin != "" && utf8.RuneCountInString(in.Pin) < minPinLength {
		return nil, common.ErrPinTooShort
	}

	repo := s.accounts()

	// Pre-checks give friendly errors; the unique indexes decide races.
	if _, err := repo.FindByUsername(ctx, in.Username); err == nil {
		return nil, common.ErrUsernameTaken
	} else if !isNotFound(err) {
		return nil, err
	}
	if in.Email != "" {
		used, err := repo.EmailInUse(ctx, in.Email, "")
		if err != nil {
			return nil, err
		}
		if used {
			return nil, common.ErrEmailTaken
		}
	}

	passwordHash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	a := &models.Account{
		ID:           uuid.NewString(),
		Username:     in.Username,
		Email:        optional(in.Email),
		PasswordHash: passwordHash,
		IsActive:     true,
		Avatar:       optional(in.Avatar),
	}

	if in.Pin != "" {
		pinHash, err := s.hasher.Hash(in.Pin)
		if err != nil {
			return nil, err
		}
		a.PinHash = &pinHash
	}

	if err := s.setRefreshToken(a); err != nil {
		return nil, err
	}

	var verifyToken string
	if a.Email != nil {
		if verifyToken, err = s.broker.Issue(a, models.PurposeEmailVerify); err != nil {
			return nil, err
		}
	}

	if err := repo.Insert(ctx, a); err != nil {
		switch {
		case errors.Is(err, common.ErrDuplicateUsername):
			return nil, common.ErrUsernameTaken
		case errors.Is(err, common.ErrDuplicateEmail):
			return nil, common.ErrEmailTaken
		}
		return nil, err
	}

	pair, err := s.tokenPair(a)
	if err != nil {
		return nil, err
	}

	if a.Email != nil {
		s.notify(notify.VerifyEmailMessage(*a.Email, a.Username, s.link("/verify-email", verifyToken), false))
	}

	s.logger.Info(ctx, "account registered", "account_id", a.ID)

	return &RegisterResult{
		ID:          a.ID,
		Username:    a.Username,
		Email:       a.Email,
		Tokens:      pair,
		PinVerified: a.PinVerified,
	}, nil
}

// Login checks the password and opens a new session, replacing the previous
// refresh token. Unknown usernames and wrong passwords are reported alike.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	repo := s.accounts()

	a, err := repo.FindByUsername(ctx, username)
	if err != nil {
		if isNotFound(err) {
			s.verifyAgainstDummy(password)
			return nil, common.ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.hasher.Verify(password, a.PasswordHash) {
		return nil, common.ErrInvalidCredentials
	}

	a, err = s.mutate(ctx, repo, a.ID, func(a *models.Account) error {
		if !a.IsVerified {
			return common.ErrEmailNotVerified
		}
		if !a.IsActive {
			return common.ErrAccountDisabled
		}
		return s.setRefreshToken(a)
	})
	if err != nil {
		return nil, err
	}

	pair, err := s.tokenPair(a)
	if err != nil {
		return nil, err
	}

	return &LoginResult{ID: a.ID, Username: a.Username, Tokens: pair, PinVerified: a.PinVerified}, nil
}

// Logout revokes the presented access token and refresh token and detaches
// the refresh token from its account, all in one transaction.
func (s *AuthService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	if accessToken == "" {
		return common.ErrNotAuthenticated
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.ledger.Revoke(ctx, tx, accessToken); err != nil {
			return err
		}
		if refreshToken == "" {
			return nil
		}
		if err := s.ledger.Revoke(ctx, tx, refreshToken); err != nil {
			return err
		}

		repo := s.repomanager.Accounts(tx)
		a, err := repo.FindByToken(ctx, accounts.TokenRefresh, refreshToken)
		if err != nil {
			if isNotFound(err) {
				return nil
			}
			return err
		}

		_, err = s.mutate(ctx, repo, a.ID, func(a *models.Account) error {
			if a.RefreshToken == nil || *a.RefreshToken != refreshToken {
				return errNoChange
			}
			a.ClearRefreshToken()
			return nil
		})
		if errors.Is(err, common.ErrAccountNotFound) {
			return nil
		}
		return err
	})
}

// Refresh rotates a refresh token. The presented value must be held by an
// account, absent from the ledger and unexpired. A token that loses a
// rotation race fails like a revoked one.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, common.ErrNoRefreshToken
	}

	revoked, err := s.ledger.IsRevoked(ctx, s.db, refreshToken)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, common.ErrInvalidOrRevokedRefreshToken
	}

	repo := s.accounts()
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		// the lookup doubles as the re-read after a conflict: a rotated
		// token no longer matches any account
		a, err := repo.FindByToken(ctx, accounts.TokenRefresh, refreshToken)
		if err != nil {
			if isNotFound(err) {
				return nil, common.ErrInvalidOrRevokedRefreshToken
			}
			return nil, err
		}

		if a.RefreshTokenExpiresAt != nil && s.now().After(*a.RefreshTokenExpiresAt) {
			return nil, common.ErrRefreshTokenExpired
		}
		if !a.IsActive {
			return nil, common.ErrAccountDisabled
		}

		expected := a.Version
		if err := s.setRefreshToken(a); err != nil {
			return nil, err
		}

		err = repo.UpdateIfMatches(ctx, a, expected)
		if errors.Is(err, common.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}

		pair, err := s.tokenPair(a)
		if err != nil {
			return nil, err
		}
		return &pair, nil
	}
	return nil, common.ErrInvalidOrRevokedRefreshToken
}

// Authenticate resolves a bearer access token to its account.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*models.Account, error) {
	if accessToken == "" {
		return nil, common.ErrNotAuthenticated
	}

	claims, err := s.issuer.Validate(accessToken)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			return nil, common.ErrAccessTokenExpired
		}
		return nil, common.ErrInvalidToken
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return nil, common.ErrInvalidToken
	}

	if s.checkAccessRevocation {
		revoked, err := s.ledger.IsRevoked(ctx, s.db, accessToken)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, common.ErrInvalidToken
		}
	}

	a, err := s.accounts().FindByID(ctx, claims.Subject)
	if err != nil {
		if isNotFound(err) {
			return nil, common.ErrAccountNotFound
		}
		return nil, err
	}
	if !a.IsActive {
		return nil, common.ErrAccountDisabled
	}
	return a, nil
}

// Introspect reports whether accessToken would currently authenticate.
// Rejections are not errors; only store failures are.
func (s *AuthService) Introspect(ctx context.Context, accessToken string) (*Introspection, error) {
	a, err := s.Authenticate(ctx, accessToken)
	if err != nil {
		if common.KindOf(err) == common.KindInternal {
			return nil, err
		}
		return &Introspection{Active: false}, nil
	}

	claims, err := s.issuer.Validate(accessToken)
	if err != nil {
		return &Introspection{Active: false}, nil
	}

	return &Introspection{
		Active:    true,
		Subject:   a.ID,
		Username:  a.Username,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Me returns the profile of an authenticated account.
func (s *AuthService) Me(ctx context.Context, a *models.Account) *Profile {
	return newProfile(a)
}
