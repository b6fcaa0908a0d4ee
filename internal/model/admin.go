// Package model defines domain entities for the application.
package model

import "time"

// Admin represents an administrative account.
// The password hash is never serialized.
type Admin struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// AdminRegisterRequest represents a request to register an admin account.
type AdminRegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AdminLoginRequest represents an admin login attempt.
type AdminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
