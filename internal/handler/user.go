package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/keymint/keymint/internal/model"
	"github.com/keymint/keymint/internal/service"
)

// Lifecycle defines the key lifecycle operations handlers depend on.
type Lifecycle interface {
	CreateUserWithKey(ctx context.Context, req model.UserCreateRequest) (*model.User, *model.APIKey, error)
	CheckKey(ctx context.Context, key string) (*model.KeyValidity, error)
	ToggleKeyStatus(ctx context.Context, keyID string) (string, error)
	UpdateUser(ctx context.Context, userID string, req model.UserUpdateRequest) error
	DeleteUser(ctx context.Context, userID string) error
	DeleteAPIKey(ctx context.Context, keyID string) error
	ListUsers(ctx context.Context) ([]model.UserListRow, error)
	ListAPIKeys(ctx context.Context) ([]model.APIKeyListRow, error)
	Status(ctx context.Context) (*model.StatusSummary, error)
}

// UserHandler handles the public user and key endpoints.
type UserHandler struct {
	logger    *slog.Logger
	lifecycle Lifecycle
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(logger *slog.Logger, lifecycle Lifecycle) *UserHandler {
	return &UserHandler{
		logger:    logger,
		lifecycle: lifecycle,
	}
}

// Create handles POST /user/create.
// Registers a user and issues their API key in one transaction.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.UserCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	if req.FirstName == "" || req.LastName == "" || req.Email == "" {
		writeError(w, http.StatusBadRequest, "MISSING_FIELDS", "first_name, last_name and email are required")
		return
	}

	user, key, err := h.lifecycle.CreateUserWithKey(r.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrEmailExists) {
			writeError(w, http.StatusBadRequest, "EMAIL_EXISTS", "Email already registered")
			return
		}
		h.logger.Error("failed to create user", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create user")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":   user,
		"apiKey": key,
	})
}

// CheckKey handles POST /cekapi.
// An unknown key is a 200 with valid=false, never an error.
func (h *UserHandler) CheckKey(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIKey string `json:"apiKey"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	if req.APIKey == "" {
		writeError(w, http.StatusBadRequest, "MISSING_FIELDS", "apiKey is required")
		return
	}

	validity, err := h.lifecycle.CheckKey(r.Context(), req.APIKey)
	if err != nil {
		h.logger.Error("failed to check API key", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to check API key")
		return
	}

	writeJSON(w, http.StatusOK, validity)
}

// ListKeys handles GET /list.
// Debug surface: lists every key without authentication. Only mounted when
// DEBUG_ENDPOINTS is enabled.
func (h *UserHandler) ListKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.lifecycle.ListAPIKeys(r.Context())
	if err != nil {
		h.logger.Error("failed to list API keys", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list API keys")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(keys),
		"apiKeys": keys,
	})
}
