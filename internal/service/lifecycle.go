// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"

	"github.com/keymint/keymint/internal/auth"
	"github.com/keymint/keymint/internal/model"
	"github.com/keymint/keymint/internal/repository"
)

// Service errors surfaced to handlers.
var (
	ErrEmailExists    = errors.New("email already exists")
	ErrUserNotFound   = errors.New("user not found")
	ErrAPIKeyNotFound = errors.New("API key not found")
)

// Lifecycle manages the user/API-key lifecycle: atomic creation of
// user+key pairs, status toggles, and detach-then-delete removal.
//
// Both users.api_key_id and api_keys.user_id are maintained here by
// separate statements. Each maintenance path runs in one transaction, so
// the pair is never observed half-applied, but two interleaved
// transactions on the same rows can still leave the references drifted.
// That gap is inherited behavior and deliberately not papered over.
type Lifecycle struct {
	repo   *repository.Repository
	logger *slog.Logger
}

// NewLifecycle creates a new Lifecycle service.
func NewLifecycle(repo *repository.Repository, logger *slog.Logger) *Lifecycle {
	return &Lifecycle{
		repo:   repo,
		logger: logger,
	}
}

// CreateUserWithKey registers a user and issues their API key atomically:
// insert user, insert key owned by the user, then link the user to the key.
// All three statements commit or roll back together.
func (s *Lifecycle) CreateUserWithKey(ctx context.Context, req model.UserCreateRequest) (*model.User, *model.APIKey, error) {
	keyValue, err := auth.SelectKey(req.APIKey)
	if err != nil {
		return nil, nil, fmt.Errorf("select key: %w", err)
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:        ulid.Make().String(),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		CreatedAt: now,
	}
	key := &model.APIKey{
		ID:        ulid.Make().String(),
		Key:       keyValue,
		UserID:    &user.ID,
		Status:    model.StatusActive,
		CreatedAt: now,
	}

	err = s.repo.InTx(ctx, func(tx pgx.Tx) error {
		if err := s.repo.CreateUser(ctx, tx, user); err != nil {
			return err
		}
		if err := s.repo.CreateAPIKey(ctx, tx, key); err != nil {
			return err
		}
		return s.repo.SetUserAPIKey(ctx, tx, user.ID, key.ID)
	})
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, nil, ErrEmailExists
		}
		return nil, nil, fmt.Errorf("create user with key: %w", err)
	}

	user.APIKeyID = &key.ID

	s.logger.Info("user created with API key",
		slog.String("user_id", user.ID),
		slog.String("key_id", key.ID),
	)

	return user, key, nil
}

// CheckKey looks up a key by its secret value. An unknown key is not an
// error; it yields Valid=false.
func (s *Lifecycle) CheckKey(ctx context.Context, keyValue string) (*model.KeyValidity, error) {
	row, err := s.repo.GetKeyWithOwner(ctx, keyValue)
	if err != nil {
		if errors.Is(err, repository.ErrAPIKeyNotFound) {
			return &model.KeyValidity{Valid: false}, nil
		}
		return nil, fmt.Errorf("check key: %w", err)
	}

	return &model.KeyValidity{Valid: true, Row: row}, nil
}

// ToggleKeyStatus flips a key between active and inactive and returns the
// new status. Ownership is never touched by a toggle.
func (s *Lifecycle) ToggleKeyStatus(ctx context.Context, keyID string) (string, error) {
	var newStatus string

	err := s.repo.InTx(ctx, func(tx pgx.Tx) error {
		key, err := s.repo.GetAPIKeyByID(ctx, tx, keyID)
		if err != nil {
			return err
		}
		newStatus = model.ToggledStatus(key.Status)
		return s.repo.UpdateKeyStatus(ctx, tx, keyID, newStatus)
	})
	if err != nil {
		if errors.Is(err, repository.ErrAPIKeyNotFound) {
			return "", ErrAPIKeyNotFound
		}
		return "", fmt.Errorf("toggle key status: %w", err)
	}

	s.logger.Info("API key status toggled",
		slog.String("key_id", keyID),
		slog.String("status", newStatus),
	)

	return newStatus, nil
}

// UpdateUser replaces a user's editable fields. An id matching zero rows
// still reports success; only the log line records the miss. Key linkage
// is never modified here.
func (s *Lifecycle) UpdateUser(ctx context.Context, userID string, req model.UserUpdateRequest) error {
	var affected int64

	err := s.repo.InTx(ctx, func(tx pgx.Tx) error {
		var err error
		affected, err = s.repo.UpdateUser(ctx, tx, userID, req)
		return err
	})
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return ErrEmailExists
		}
		return fmt.Errorf("update user: %w", err)
	}

	if affected == 0 {
		s.logger.Warn("user update matched no rows", slog.String("user_id", userID))
	} else {
		s.logger.Info("user updated", slog.String("user_id", userID))
	}

	return nil
}

// DeleteUser removes a user. The user's key survives with its owner
// reference cleared; key rows are never cascade-deleted.
func (s *Lifecycle) DeleteUser(ctx context.Context, userID string) error {
	err := s.repo.InTx(ctx, func(tx pgx.Tx) error {
		user, err := s.repo.GetUserByID(ctx, tx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				// Deleting an absent user is a no-op, matching the
				// surface's 200-on-delete contract.
				return nil
			}
			return err
		}

		if user.APIKeyID != nil {
			if err := s.repo.ClearKeyOwner(ctx, tx, *user.APIKeyID); err != nil {
				return err
			}
		}

		return s.repo.DeleteUser(ctx, tx, userID)
	})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	s.logger.Info("user deleted", slog.String("user_id", userID))
	return nil
}

// DeleteAPIKey removes a key. Any user pointing at it keeps their row with
// the key reference cleared. Both statements run in one transaction.
func (s *Lifecycle) DeleteAPIKey(ctx context.Context, keyID string) error {
	err := s.repo.InTx(ctx, func(tx pgx.Tx) error {
		if err := s.repo.ClearUserKeyRef(ctx, tx, keyID); err != nil {
			return err
		}
		return s.repo.DeleteAPIKey(ctx, tx, keyID)
	})
	if err != nil {
		return fmt.Errorf("delete API key: %w", err)
	}

	s.logger.Info("API key deleted", slog.String("key_id", keyID))
	return nil
}

// ListUsers returns all users with their key status, newest first.
func (s *Lifecycle) ListUsers(ctx context.Context) ([]model.UserListRow, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// ListAPIKeys returns all keys with owner display columns, newest first.
func (s *Lifecycle) ListAPIKeys(ctx context.Context) ([]model.APIKeyListRow, error) {
	keys, err := s.repo.ListAPIKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list API keys: %w", err)
	}
	return keys, nil
}

// Status returns aggregate user and key counts.
func (s *Lifecycle) Status(ctx context.Context) (*model.StatusSummary, error) {
	users, err := s.repo.CountUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("status summary: %w", err)
	}

	total, active, err := s.repo.CountAPIKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("status summary: %w", err)
	}

	return &model.StatusSummary{
		UsersCount:  users,
		APICount:    total,
		ActiveCount: active,
	}, nil
}
