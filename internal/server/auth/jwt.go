// Package auth mints and validates access tokens and generates opaque
// refresh and confirmation tokens.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/credkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// opaqueTokenBytes is the entropy of refresh and confirmation tokens.
const opaqueTokenBytes = 32

// Claims carries the account id in the standard "sub" claim plus the
// username.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// Issuer signs HS256 access tokens with a shared secret.
type Issuer struct {
	secretKey []byte
	validity  time.Duration
	now       func() time.Time
}

// NewIssuer returns an Issuer whose tokens live for validity.
func NewIssuer(secretKey []byte, validity time.Duration) *Issuer {
	return &Issuer{secretKey: secretKey, validity: validity, now: time.Now}
}

// Mint returns a signed access token for the account and its expiry.
func (i *Issuer) Mint(accountID, username string) (string, time.Time, error) {
	now := i.now()
	expiresAt := now.Add(i.validity)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
		Username: username,
	})

	tokenString, err := token.SignedString(i.secretKey)
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

// Validate checks signature and expiry and returns the claims. Errors are
// common.ErrTokenExpired, common.ErrInvalidSignature or
// common.ErrMalformedToken.
func (i *Issuer) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return i.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, common.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, common.ErrInvalidSignature
		default:
			return nil, common.ErrMalformedToken
		}
	}

	if !token.Valid || claims.Subject == "" {
		return nil, common.ErrMalformedToken
	}

	return claims, nil
}

// NewOpaqueToken returns a random hex token for refresh and confirmation use.
func NewOpaqueToken() (string, error) {
	return common.MakeRandHexString(opaqueTokenBytes)
}
