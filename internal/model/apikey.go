// Package model defines domain entities for the application.
package model

import "time"

// API key status values.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// ToggledStatus returns the opposite status value.
// Unknown values flip to active so a corrupt row recovers on toggle.
func ToggledStatus(status string) string {
	if status == StatusActive {
		return StatusInactive
	}
	return StatusActive
}

// APIKey represents an issued API key.
// UserID is the owning user; it is cleared (not cascaded) when the owner is
// deleted, so unowned keys are a valid state.
type APIKey struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	UserID    *string   `json:"user_id,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// IsActive returns true if the key is currently active.
func (k *APIKey) IsActive() bool {
	return k.Status == StatusActive
}

// APIKeyListRow is an API key joined to its owner's display columns.
// UserName and Email are nil for keys whose owner has been deleted.
type APIKeyListRow struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	Status    string    `json:"status"`
	UserName  *string   `json:"user_name"`
	Email     *string   `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// KeyValidity is the result of a key validity check.
// Row is nil when the key is unknown; an unknown key is not an error.
type KeyValidity struct {
	Valid bool           `json:"valid"`
	Row   *APIKeyListRow `json:"row,omitempty"`
}

// StatusSummary holds aggregate counts for the admin status endpoint.
type StatusSummary struct {
	UsersCount  int64 `json:"usersCount"`
	APICount    int64 `json:"apiCount"`
	ActiveCount int64 `json:"activeCount"`
}
