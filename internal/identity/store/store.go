// Package store resolves company accounts for login and token subjects.
package store

// Identity is a company account as the registry sees it.
type Identity struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
}
