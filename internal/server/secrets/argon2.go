package secrets

import "github.com/matthewhartstonge/argon2"

// Argon2Hasher hashes with argon2id and PHC-encoded output.
type Argon2Hasher struct {
	config argon2.Config
}

func NewArgon2Hasher() *Argon2Hasher {
	return &Argon2Hasher{config: argon2.DefaultConfig()}
}

func (h *Argon2Hasher) Hash(secret string) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}
	encoded, err := h.config.HashEncoded([]byte(secret))
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func (h *Argon2Hasher) Verify(secret, digest string) bool {
	return Verify(secret, digest)
}
