//go:build !race

package secrets

import "golang.org/x/crypto/bcrypt"

func defaultBcryptCost() int {
	return bcrypt.DefaultCost
}
