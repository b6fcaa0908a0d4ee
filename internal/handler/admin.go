package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/keymint/keymint/internal/auth"
	"github.com/keymint/keymint/internal/model"
	"github.com/keymint/keymint/internal/repository"
	"github.com/keymint/keymint/internal/service"
)

// AdminStore defines the admin account persistence operations.
type AdminStore interface {
	CreateAdmin(ctx context.Context, admin *model.Admin) error
	GetAdminByEmail(ctx context.Context, email string) (*model.Admin, error)
}

// TokenIssuer issues signed admin bearer tokens.
type TokenIssuer interface {
	Issue(adminID, email string) (string, error)
}

// AdminHandler handles admin registration, login, and the protected
// administration endpoints.
type AdminHandler struct {
	logger    *slog.Logger
	admins    AdminStore
	tokens    TokenIssuer
	lifecycle Lifecycle
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(logger *slog.Logger, admins AdminStore, tokens TokenIssuer, lifecycle Lifecycle) *AdminHandler {
	return &AdminHandler{
		logger:    logger,
		admins:    admins,
		tokens:    tokens,
		lifecycle: lifecycle,
	}
}

// Register handles POST /admin/register.
func (h *AdminHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.AdminRegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "MISSING_FIELDS", "email and password are required")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("failed to hash password", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to register admin")
		return
	}

	admin := &model.Admin{
		ID:           ulid.Make().String(),
		Email:        req.Email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := h.admins.CreateAdmin(r.Context(), admin); err != nil {
		if errors.Is(err, repository.ErrAdminExists) {
			writeError(w, http.StatusBadRequest, "EMAIL_EXISTS", "Email already registered")
			return
		}
		h.logger.Error("failed to create admin", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to register admin")
		return
	}

	h.logger.Info("admin registered", slog.String("admin_id", admin.ID))
	writeJSON(w, http.StatusOK, map[string]string{"message": "admin registered"})
}

// Login handles POST /admin/login.
// Unknown email and wrong password are indistinguishable to the caller.
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.AdminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "MISSING_FIELDS", "email and password are required")
		return
	}

	admin, err := h.admins.GetAdminByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrAdminNotFound) {
			writeLoginError(w)
			return
		}
		h.logger.Error("failed to look up admin", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to log in")
		return
	}

	if !auth.VerifyPassword(req.Password, admin.PasswordHash) {
		writeLoginError(w)
		return
	}

	token, err := h.tokens.Issue(admin.ID, admin.Email)
	if err != nil {
		h.logger.Error("failed to issue token", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to log in")
		return
	}

	h.logger.Info("admin logged in", slog.String("admin_id", admin.ID))
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// ListUsers handles GET /admin/users.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.lifecycle.ListUsers(r.Context())
	if err != nil {
		h.logger.Error("failed to list users", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list users")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

// ListAPIKeys handles GET /admin/apikeys.
func (h *AdminHandler) ListAPIKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.lifecycle.ListAPIKeys(r.Context())
	if err != nil {
		h.logger.Error("failed to list API keys", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list API keys")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"apiKeys": keys})
}

// Status handles GET /admin/status.
func (h *AdminHandler) Status(w http.ResponseWriter, r *http.Request) {
	summary, err := h.lifecycle.Status(r.Context())
	if err != nil {
		h.logger.Error("failed to build status summary", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to build status summary")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// ToggleKey handles POST /admin/apikeys/{id}/toggle.
func (h *AdminHandler) ToggleKey(w http.ResponseWriter, r *http.Request) {
	keyID := chi.URLParam(r, "id")

	status, err := h.lifecycle.ToggleKeyStatus(r.Context(), keyID)
	if err != nil {
		if errors.Is(err, service.ErrAPIKeyNotFound) {
			writeError(w, http.StatusNotFound, "KEY_NOT_FOUND", "API key not found")
			return
		}
		h.logger.Error("failed to toggle API key", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to toggle API key")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

// UpdateUser handles PUT /admin/users/{id}.
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	var req model.UserUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	if req.FirstName == "" || req.LastName == "" || req.Email == "" {
		writeError(w, http.StatusBadRequest, "MISSING_FIELDS", "first_name, last_name and email are required")
		return
	}

	if err := h.lifecycle.UpdateUser(r.Context(), userID, req); err != nil {
		if errors.Is(err, service.ErrEmailExists) {
			writeError(w, http.StatusBadRequest, "EMAIL_EXISTS", "Email already registered")
			return
		}
		h.logger.Error("failed to update user", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update user")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "user updated"})
}

// DeleteUser handles DELETE /admin/users/{id}.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	if err := h.lifecycle.DeleteUser(r.Context(), userID); err != nil {
		h.logger.Error("failed to delete user", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete user")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "user deleted"})
}

// DeleteKey handles DELETE /admin/apikeys/{id}.
func (h *AdminHandler) DeleteKey(w http.ResponseWriter, r *http.Request) {
	keyID := chi.URLParam(r, "id")

	if err := h.lifecycle.DeleteAPIKey(r.Context(), keyID); err != nil {
		h.logger.Error("failed to delete API key", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete API key")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "API key deleted"})
}

// writeLoginError writes the single 401 body shared by unknown-email and
// wrong-password failures.
func writeLoginError(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
}
