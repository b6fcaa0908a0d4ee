// Package model defines domain entities for the application.
package model

import "time"

// User represents a registered API consumer.
// APIKeyID references the key issued to the user; it is nil only while the
// creation transaction is in flight or after the key has been deleted.
type User struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	APIKeyID  *string   `json:"api_key_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// UserCreateRequest represents a request to register a user.
// APIKey is optional; see auth.SelectKey for how it is interpreted.
type UserCreateRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	APIKey    string `json:"apiKey,omitempty"`
}

// UserUpdateRequest replaces a user's editable fields.
// Key linkage is never touched by an update.
type UserUpdateRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// UserListRow is a user joined to its key's status for admin listings.
// KeyStatus is nil for users whose key has been deleted.
type UserListRow struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	KeyStatus *string   `json:"key_status,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
