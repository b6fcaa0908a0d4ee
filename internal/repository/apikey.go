package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/keymint/keymint/internal/model"
)

// Common errors for API key repository operations.
var (
	ErrAPIKeyNotFound = errors.New("API key not found")
	ErrKeyExists      = errors.New("API key already exists")
)

// CreateAPIKey inserts a new API key.
func (r *Repository) CreateAPIKey(ctx context.Context, q Querier, key *model.APIKey) error {
	query := `
		INSERT INTO api_keys (id, key, user_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := q.Exec(ctx, query,
		key.ID,
		key.Key,
		key.UserID,
		key.Status,
		key.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrKeyExists
		}
		return fmt.Errorf("failed to create API key: %w", err)
	}

	return nil
}

// GetAPIKeyByID retrieves an API key by its ID.
func (r *Repository) GetAPIKeyByID(ctx context.Context, q Querier, id string) (*model.APIKey, error) {
	query := `
		SELECT id, key, user_id, status, created_at
		FROM api_keys
		WHERE id = $1
	`

	var key model.APIKey
	err := q.QueryRow(ctx, query, id).Scan(
		&key.ID,
		&key.Key,
		&key.UserID,
		&key.Status,
		&key.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAPIKeyNotFound
		}
		return nil, fmt.Errorf("failed to get API key by ID: %w", err)
	}

	return &key, nil
}

// GetKeyWithOwner looks up a key by its secret value, left-joined to the
// owning user's display columns. Used by the validity check; a missing key
// surfaces as ErrAPIKeyNotFound, which is not a failure there.
func (r *Repository) GetKeyWithOwner(ctx context.Context, keyValue string) (*model.APIKeyListRow, error) {
	query := `
		SELECT k.id, k.key, k.status,
		       u.first_name || ' ' || u.last_name AS user_name,
		       u.email, k.created_at
		FROM api_keys k
		LEFT JOIN users u ON u.id = k.user_id
		WHERE k.key = $1
	`

	var row model.APIKeyListRow
	err := r.pool.QueryRow(ctx, query, keyValue).Scan(
		&row.ID,
		&row.Key,
		&row.Status,
		&row.UserName,
		&row.Email,
		&row.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAPIKeyNotFound
		}
		return nil, fmt.Errorf("failed to look up API key: %w", err)
	}

	return &row, nil
}

// UpdateKeyStatus sets a key's status.
func (r *Repository) UpdateKeyStatus(ctx context.Context, q Querier, id, status string) error {
	query := `
		UPDATE api_keys
		SET status = $2
		WHERE id = $1
	`

	result, err := q.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update API key status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrAPIKeyNotFound
	}

	return nil
}

// ClearKeyOwner nulls the owner reference on a key.
func (r *Repository) ClearKeyOwner(ctx context.Context, q Querier, id string) error {
	query := `
		UPDATE api_keys
		SET user_id = NULL
		WHERE id = $1
	`

	if _, err := q.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to clear API key owner: %w", err)
	}

	return nil
}

// DeleteAPIKey removes a key row. Owning users keep their rows; their key
// reference is cleared by ClearUserKeyRef in the same transaction.
func (r *Repository) DeleteAPIKey(ctx context.Context, q Querier, id string) error {
	query := `
		DELETE FROM api_keys
		WHERE id = $1
	`

	if _, err := q.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete API key: %w", err)
	}

	return nil
}

// ListAPIKeys returns all keys joined to owner display columns, newest first.
// Keys of deleted users appear with null owner fields.
func (r *Repository) ListAPIKeys(ctx context.Context) ([]model.APIKeyListRow, error) {
	query := `
		SELECT k.id, k.key, k.status,
		       u.first_name || ' ' || u.last_name AS user_name,
		       u.email, k.created_at
		FROM api_keys k
		LEFT JOIN users u ON u.id = k.user_id
		ORDER BY k.created_at DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list API keys: %w", err)
	}
	defer rows.Close()

	keys := make([]model.APIKeyListRow, 0)
	for rows.Next() {
		var row model.APIKeyListRow
		if err := rows.Scan(&row.ID, &row.Key, &row.Status, &row.UserName, &row.Email, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan API key row: %w", err)
		}
		keys = append(keys, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating API keys: %w", err)
	}

	return keys, nil
}

// CountAPIKeys returns the total and active key counts in one query.
func (r *Repository) CountAPIKeys(ctx context.Context) (total, active int64, err error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'active')
		FROM api_keys
	`

	if err := r.pool.QueryRow(ctx, query).Scan(&total, &active); err != nil {
		return 0, 0, fmt.Errorf("failed to count API keys: %w", err)
	}
	return total, active, nil
}
