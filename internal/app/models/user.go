package models

import (
	"time"
)

// Role is a row of the roles table
type Role struct {
	ID   int64    `json:"id"`
	Name RoleType `json:"name"`
}

// User defines the user model based on the 'users' table
type User struct {
	ID           int64      `json:"id" example:"1"`
	RoleID       int64      `json:"roleId" example:"4"`
	Role         RoleType   `json:"role" example:"faculty"`
	Email        string     `json:"email" example:"jdelacruz@school.edu"`
	PasswordHash string     `json:"-"`
	FirstName    string     `json:"firstName" example:"Juan"`
	LastName     string     `json:"lastName" example:"Dela Cruz"`
	IsApproved   bool       `json:"isApproved" example:"true"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
}

// FullName returns "First Last"
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// RefreshToken is a row of refresh_tokens
type RefreshToken struct {
	Token     string    `json:"-"`
	UserID    int64     `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
	Revoked   bool      `json:"revoked"`
	CreatedAt time.Time `json:"createdAt"`
}
