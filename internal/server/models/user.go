// Package models defines the server-side records persisted by the
// repositories and the projections handed to callers.
package models

import "time"

// User is the stored account record. PasswordHash is nil for accounts
// created through an OAuth provider.
type User struct {
	ID              string
	Email           string
	Name            *string
	PasswordHash    *string
	IsEmailVerified bool
	Avatar          *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// PublicUser is the projection of User returned outside the service. It has
// no credential field.
type PublicUser struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	Name            *string   `json:"name"`
	IsEmailVerified bool      `json:"isEmailVerified"`
	Avatar          *string   `json:"avatar"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Public strips the credential. A nil user yields nil.
func (u *User) Public() *PublicUser {
	if u == nil {
		return nil
	}
	return &PublicUser{
		ID:              u.ID,
		Email:           u.Email,
		Name:            cloneString(u.Name),
		IsEmailVerified: u.IsEmailVerified,
		Avatar:          cloneString(u.Avatar),
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

// Clone returns a deep copy.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Name = cloneString(u.Name)
	c.PasswordHash = cloneString(u.PasswordHash)
	c.Avatar = cloneString(u.Avatar)
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
