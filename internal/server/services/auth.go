// Package services contains server-side business logic. AuthService is the
// credential state machine: registration, sessions, email verification and
// change, password reset and the PIN gate.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/credkeeper/internal/common"
	"github.com/dmitrijs2005/credkeeper/internal/logging"
	"github.com/dmitrijs2005/credkeeper/internal/server/auth"
	"github.com/dmitrijs2005/credkeeper/internal/server/config"
	"github.com/dmitrijs2005/credkeeper/internal/server/models"
	"github.com/dmitrijs2005/credkeeper/internal/server/notify"
	"github.com/dmitrijs2005/credkeeper/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/credkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/credkeeper/internal/server/secrets"
)

const (
	minUsernameLength = 3
	minPasswordLength = 8
	// bcrypt rejects longer input.
	maxPasswordBytes = 72
	minPinLength     = 4

	// maxWriteAttempts bounds re-read/re-apply cycles after a version
	// conflict.
	maxWriteAttempts = 3
)

// errNoChange lets a mutation skip the write.
var errNoChange = errors.New("no change")

// Mailer queues outbound email. Delivery happens after the triggering
// operation has returned.
type Mailer interface {
	Enqueue(msg notify.Message) bool
}

// AuthService implements every account operation on top of the account
// store, the revocation ledger and the confirmation broker.
type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      secrets.Hasher
	issuer      *auth.Issuer
	ledger      *Ledger
	broker      *ConfirmationBroker
	mailer      Mailer
	logger      logging.Logger

	refreshTokenValidityDuration time.Duration
	checkAccessRevocation        bool
	frontendURL                  string
	now                          func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService constructs an AuthService using repositories and server config.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, hasher secrets.Hasher, mailer Mailer, logger logging.Logger, cfg *config.Config) *AuthService {
	return &AuthService{
		db:                           db,
		repomanager:                  m,
		hasher:                       hasher,
		issuer:                       auth.NewIssuer([]byte(cfg.SecretKey), cfg.AccessTokenValidityDuration),
		ledger:                       NewLedger(m),
		broker:                       NewConfirmationBroker(cfg.VerificationTokenValidityDuration, cfg.ResetTokenValidityDuration),
		mailer:                       mailer,
		logger:                       logger.With("module", "auth"),
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		checkAccessRevocation:        cfg.CheckAccessRevocation,
		frontendURL:                  strings.TrimRight(cfg.FrontendURL, "/"),
		now:                          time.Now,
	}
}

func (s *AuthService) accounts() accounts.Repository {
	return s.repomanager.Accounts(s.db)
}

// checkPassword enforces the length bounds on a new password. The minimum
// counts characters, the maximum counts bytes.
func checkPassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return common.ErrPasswordTooShort
	}
	if len(password) > maxPasswordBytes {
		return common.ErrPasswordTooLong
	}
	return nil
}

// mutate reads the account, applies fn and writes it back conditioned on the
// version it read. fn is re-run against fresh state after a conflict.
func (s *AuthService) mutate(ctx context.Context, repo accounts.Repository, id string, fn func(a *models.Account) error) (*models.Account, error) {
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		a, err := repo.FindByID(ctx, id)
		if err != nil {
			if isNotFound(err) {
				return nil, common.ErrAccountNotFound
			}
			return nil, err
		}

		expected := a.Version
		if err := fn(a); err != nil {
			if errors.Is(err, errNoChange) {
				return a, nil
			}
			return nil, err
		}

		err = repo.UpdateIfMatches(ctx, a, expected)
		if errors.Is(err, common.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return a, nil
	}
	return nil, fmt.Errorf("account %s: %w", id, common.ErrVersionConflict)
}

// setRefreshToken installs a new refresh token on a, replacing any previous
// one.
func (s *AuthService) setRefreshToken(a *models.Account) error {
	token, err := auth.NewOpaqueToken()
	if err != nil {
		return err
	}
	expiresAt := s.now().Add(s.refreshTokenValidityDuration)
	a.RefreshToken = &token
	a.RefreshTokenExpiresAt = &expiresAt
	return nil
}

// tokenPair mints an access token to go with the refresh token already on a.
func (s *AuthService) tokenPair(a *models.Account) (TokenPair, error) {
	access, accessExp, err := s.issuer.Mint(a.ID, a.Username)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:           access,
		AccessTokenExpiresAt:  accessExp,
		RefreshToken:          *a.RefreshToken,
		RefreshTokenExpiresAt: *a.RefreshTokenExpiresAt,
	}, nil
}

// verifyAgainstDummy burns the same time as a real password check so a
// missing account is not distinguishable by latency.
func (s *AuthService) verifyAgainstDummy(secret string) {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash("credkeeper-dummy-password")
		if err == nil {
			s.dummyHash = h
		}
	})
	s.hasher.Verify(secret, s.dummyHash)
}

func (s *AuthService) link(path, token string) string {
	return s.frontendURL + path + "?token=" + url.QueryEscape(token)
}

func (s *AuthService) notify(msg notify.Message) {
	if msg.To == "" {
		return
	}
	s.mailer.Enqueue(msg)
}
