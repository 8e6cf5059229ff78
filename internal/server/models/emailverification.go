package models

import "time"

// EmailVerification is a single-use token proving control of Email.
// Rows are flipped to IsUsed rather than deleted.
type EmailVerification struct {
	ID        string
	UserID    string
	Email     string
	Token     string
	ExpiresAt time.Time
	IsUsed    bool
	CreatedAt time.Time

	// User is set by lookups that join the owner.
	User *User
}

func (v *EmailVerification) Expired(now time.Time) bool {
	return v.ExpiresAt.Before(now)
}
