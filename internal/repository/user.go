package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/keymint/keymint/internal/model"
)

// Common errors for user repository operations.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailExists  = errors.New("email already exists")
)

// CreateUser inserts a new user. The key reference starts unset; it is
// linked by SetUserAPIKey inside the creation transaction.
func (r *Repository) CreateUser(ctx context.Context, q Querier, user *model.User) error {
	query := `
		INSERT INTO users (id, first_name, last_name, email, api_key_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := q.Exec(ctx, query,
		user.ID,
		user.FirstName,
		user.LastName,
		user.Email,
		user.APIKeyID,
		user.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// SetUserAPIKey points a user's key reference at the given key.
func (r *Repository) SetUserAPIKey(ctx context.Context, q Querier, userID, keyID string) error {
	query := `
		UPDATE users
		SET api_key_id = $2
		WHERE id = $1
	`

	result, err := q.Exec(ctx, query, userID, keyID)
	if err != nil {
		return fmt.Errorf("failed to set user API key: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

// GetUserByID retrieves a user by their ID.
func (r *Repository) GetUserByID(ctx context.Context, q Querier, id string) (*model.User, error) {
	query := `
		SELECT id, first_name, last_name, email, api_key_id, created_at
		FROM users
		WHERE id = $1
	`

	var user model.User
	err := q.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.APIKeyID,
		&user.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	return &user, nil
}

// UpdateUser replaces the three editable fields and returns the number of
// rows matched. A zero count is not an error here; the caller decides how
// to treat it.
func (r *Repository) UpdateUser(ctx context.Context, q Querier, id string, in model.UserUpdateRequest) (int64, error) {
	query := `
		UPDATE users
		SET first_name = $2, last_name = $3, email = $4
		WHERE id = $1
	`

	result, err := q.Exec(ctx, query, id, in.FirstName, in.LastName, in.Email)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrEmailExists
		}
		return 0, fmt.Errorf("failed to update user: %w", err)
	}

	return result.RowsAffected(), nil
}

// DeleteUser removes a user row. Key rows are never cascade-deleted;
// detaching the key is a separate statement in the same transaction.
func (r *Repository) DeleteUser(ctx context.Context, q Querier, id string) error {
	query := `
		DELETE FROM users
		WHERE id = $1
	`

	if _, err := q.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	return nil
}

// ClearUserKeyRef nulls the key reference of any user pointing at keyID.
func (r *Repository) ClearUserKeyRef(ctx context.Context, q Querier, keyID string) error {
	query := `
		UPDATE users
		SET api_key_id = NULL
		WHERE api_key_id = $1
	`

	if _, err := q.Exec(ctx, query, keyID); err != nil {
		return fmt.Errorf("failed to clear user key reference: %w", err)
	}

	return nil
}

// ListUsers returns all users joined to their key's status, newest first.
func (r *Repository) ListUsers(ctx context.Context) ([]model.UserListRow, error) {
	query := `
		SELECT u.id, u.first_name, u.last_name, u.email, k.status, u.created_at
		FROM users u
		LEFT JOIN api_keys k ON k.id = u.api_key_id
		ORDER BY u.created_at DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]model.UserListRow, 0)
	for rows.Next() {
		var u model.UserListRow
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.KeyStatus, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// CountUsers returns the total number of users.
func (r *Repository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}
