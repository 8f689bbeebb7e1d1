// Package user defines the account model used throughout the application,
// particularly for authentication and link ownership.
package user

// User represents a registered account.
// PasswordHash holds the bcrypt hash of the sign-up password.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
}
