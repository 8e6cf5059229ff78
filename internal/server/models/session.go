package models

import "time"

// Session is an opaque bearer token bound to a user until ExpiresAt.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time

	// User is set by lookups that join the owner.
	User *User
}

func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}

// OAuthProfile is the identity asserted by an external provider.
type OAuthProfile struct {
	Email   string
	Name    *string
	Picture *string
}
