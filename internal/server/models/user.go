// Package models contains the persistent data structures of the server.
package models

import "time"

// User is a single record in the credential store. PasswordHash holds the
// bcrypt digest of the password; the plaintext is never stored and never
// leaves the registration call. Email is unique, enforced by the store.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}
