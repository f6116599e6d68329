//go:build race

package secrets

import "golang.org/x/crypto/bcrypt"

func defaultBcryptCost() int {
	// race builds run hashing an order of magnitude slower
	return bcrypt.MinCost
}
