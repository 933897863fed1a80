package domain

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User models an authenticated actor in the system.
type User struct {
	ID           string    `json:"_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Ref returns the reference stored on leads and notes authored by u.
func (u *User) Ref() UserRef {
	return UserRef{ID: u.ID, Name: u.Name, Email: u.Email}
}

// Claims is the caller identity carried by an access token.
type Claims struct {
	UserID    string
	Name      string
	Email     string
	Role      string
	TokenID   string
	ExpiresAt time.Time
}

// Ref returns the author reference for the caller.
func (c Claims) Ref() UserRef {
	return UserRef{ID: c.UserID, Name: c.Name, Email: c.Email}
}
