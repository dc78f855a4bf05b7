package auth

import "time"

// User is an authenticated operator account. The deployment seeds a single
// admin; every ledger mutation requires one of these behind a session.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
