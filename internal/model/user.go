// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// User represents a registered account.
//
// Email and Username are both unique — signup rejects duplicates of either.
//
// WHY PasswordHash with `json:"-"`?
// The dash tag tells encoding/json to NEVER serialize this field. A user
// record written to an API response cannot leak the bcrypt hash, no matter
// which handler forgets to strip it. The plaintext password itself never
// leaves the session service.
//
// WHY Bio string (not *string)?
// Bio is optional, but an empty string is a perfectly good "no bio" value.
// Using the zero value instead of a nullable pointer keeps callers simple
// and safe to display.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Username     string    `json:"username"  db:"username"`
	Email        string    `json:"email"     db:"email"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	Bio          string    `json:"bio"       db:"bio"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// Profile is the session-facing projection of a User: only the fields that
// are safe to hand to any caller. This is what CurrentUser returns and what
// the auth endpoints echo back.
type Profile struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Bio      string `json:"bio,omitempty"`
}

// Profile derives the safe projection from a full user record.
func (u *User) Profile() Profile {
	return Profile{
		ID:       u.ID,
		Email:    u.Email,
		Username: u.Username,
		Bio:      u.Bio,
	}
}
