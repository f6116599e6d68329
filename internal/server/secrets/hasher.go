// Package secrets hashes and verifies passwords and PINs.
//
// Digests are self-describing, so Verify accepts both bcrypt and argon2id
// digests whichever algorithm a Hasher produces.
package secrets

import (
	"errors"
	"fmt"
	"strings"

	"github.com/matthewhartstonge/argon2"
	"golang.org/x/crypto/bcrypt"
)

const (
	AlgorithmBcrypt = "bcrypt"
	AlgorithmArgon2 = "argon2"
)

var ErrEmptySecret = errors.New("secret must not be empty")

// Hasher produces salted one-way digests.
type Hasher interface {
	Hash(secret string) (string, error)
	// Verify reports whether secret matches digest. Malformed digests do not
	// match.
	Verify(secret, digest string) bool
}

// New returns the hasher for algorithm. A non-positive bcryptCost selects the
// build default.
func New(algorithm string, bcryptCost int) (Hasher, error) {
	switch algorithm {
	case "", AlgorithmBcrypt:
		if bcryptCost <= 0 {
			bcryptCost = defaultBcryptCost()
		}
		return NewBcryptHasher(bcryptCost), nil
	case AlgorithmArgon2:
		return NewArgon2Hasher(), nil
	default:
		return nil, fmt.Errorf("unknown hash algorithm %q", algorithm)
	}
}

// Verify checks secret against a bcrypt or argon2id digest.
func Verify(secret, digest string) bool {
	switch {
	case strings.HasPrefix(digest, "$argon2"):
		ok, err := argon2.VerifyEncoded([]byte(secret), []byte(digest))
		return err == nil && ok
	case strings.HasPrefix(digest, "$2"):
		return bcrypt.CompareHashAndPassword([]byte(digest), []byte(secret)) == nil
	default:
		return false
	}
}
