package domain

import "time"

// Account is a registered user. Username and PasswordHash never change after
// signup.
type Account struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}
