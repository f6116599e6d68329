package models

import "time"

// RevokedToken is a ledger entry. Digest is the hex SHA-256 of the token
// value; the raw token is never stored.
type RevokedToken struct {
	Digest    string
	RevokedAt time.Time
}
