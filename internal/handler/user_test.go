package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/keymint/keymint/internal/model"
	"github.com/keymint/keymint/internal/service"
)

// stubLifecycle implements Lifecycle with overridable function fields.
type stubLifecycle struct {
	createFn   func(ctx context.Context, req model.UserCreateRequest) (*model.User, *model.APIKey, error)
	checkFn    func(ctx context.Context, key string) (*model.KeyValidity, error)
	toggleFn   func(ctx context.Context, keyID string) (string, error)
	updateFn   func(ctx context.Context, userID string, req model.UserUpdateRequest) error
	delUserFn  func(ctx context.Context, userID string) error
	delKeyFn   func(ctx context.Context, keyID string) error
	listUsers  func(ctx context.Context) ([]model.UserListRow, error)
	listKeys   func(ctx context.Context) ([]model.APIKeyListRow, error)
	statusFn   func(ctx context.Context) (*model.StatusSummary, error)
}

func (s *stubLifecycle) CreateUserWithKey(ctx context.Context, req model.UserCreateRequest) (*model.User, *model.APIKey, error) {
	return s.createFn(ctx, req)
}

func (s *stubLifecycle) CheckKey(ctx context.Context, key string) (*model.KeyValidity, error) {
	return s.checkFn(ctx, key)
}

func (s *stubLifecycle) ToggleKeyStatus(ctx context.Context, keyID string) (string, error) {
	return s.toggleFn(ctx, keyID)
}

func (s *stubLifecycle) UpdateUser(ctx context.Context, userID string, req model.UserUpdateRequest) error {
	return s.updateFn(ctx, userID, req)
}

func (s *stubLifecycle) DeleteUser(ctx context.Context, userID string) error {
	return s.delUserFn(ctx, userID)
}

func (s *stubLifecycle) DeleteAPIKey(ctx context.Context, keyID string) error {
	return s.delKeyFn(ctx, keyID)
}

func (s *stubLifecycle) ListUsers(ctx context.Context) ([]model.UserListRow, error) {
	return s.listUsers(ctx)
}

func (s *stubLifecycle) ListAPIKeys(ctx context.Context) ([]model.APIKeyListRow, error) {
	return s.listKeys(ctx)
}

func (s *stubLifecycle) Status(ctx context.Context) (*model.StatusSummary, error) {
	return s.statusFn(ctx)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestUserHandler_Create(t *testing.T) {
	keyID := "01KEY"
	stub := &stubLifecycle{
		createFn: func(ctx context.Context, req model.UserCreateRequest) (*model.User, *model.APIKey, error) {
			user := &model.User{
				ID:        "01USER",
				FirstName: req.FirstName,
				LastName:  req.LastName,
				Email:     req.Email,
				APIKeyID:  &keyID,
				CreatedAt: time.Now(),
			}
			key := &model.APIKey{
				ID:        keyID,
				Key:       strings.Repeat("ab", 32),
				UserID:    &user.ID,
				Status:    model.StatusActive,
				CreatedAt: time.Now(),
			}
			return user, key, nil
		},
	}
	h := NewUserHandler(discardLogger(), stub)

	body := `{"first_name":"Jane","last_name":"Doe","email":"jane@x.com"}`
	req := httptest.NewRequest(http.MethodPost, "/user/create", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		User   model.User   `json:"user"`
		APIKey model.APIKey `json:"apiKey"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if resp.User.Email != "jane@x.com" {
		t.Errorf("user email = %q, want jane@x.com", resp.User.Email)
	}
	if len(resp.APIKey.Key) < 64 {
		t.Errorf("key should be at least 64 chars, got %d", len(resp.APIKey.Key))
	}
}

func TestUserHandler_Create_Validation(t *testing.T) {
	called := false
	stub := &stubLifecycle{
		createFn: func(ctx context.Context, req model.UserCreateRequest) (*model.User, *model.APIKey, error) {
			called = true
			return nil, nil, nil
		},
	}
	h := NewUserHandler(discardLogger(), stub)

	testCases := []struct {
		name string
		body string
	}{
		{"missing first name", `{"last_name":"Doe","email":"jane@x.com"}`},
		{"missing last name", `{"first_name":"Jane","email":"jane@x.com"}`},
		{"missing email", `{"first_name":"Jane","last_name":"Doe"}`},
		{"not json", `not json`},
		{"empty body", ``},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			called = false
			req := httptest.NewRequest(http.MethodPost, "/user/create", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()

			h.Create(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			if called {
				t.Error("lifecycle should not be called on validation failure")
			}
		})
	}
}

func TestUserHandler_Create_DuplicateEmail(t *testing.T) {
	stub := &stubLifecycle{
		createFn: func(ctx context.Context, req model.UserCreateRequest) (*model.User, *model.APIKey, error) {
			return nil, nil, service.ErrEmailExists
		},
	}
	h := NewUserHandler(discardLogger(), stub)

	body := `{"first_name":"Jane","last_name":"Doe","email":"jane@x.com"}`
	req := httptest.NewRequest(http.MethodPost, "/user/create", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for duplicate email", rec.Code)
	}
}

func TestUserHandler_CheckKey(t *testing.T) {
	name := "Jane Doe"
	email := "jane@x.com"
	stub := &stubLifecycle{
		checkFn: func(ctx context.Context, key string) (*model.KeyValidity, error) {
			if key == "known-key-value" {
				return &model.KeyValidity{
					Valid: true,
					Row: &model.APIKeyListRow{
						ID:       "01KEY",
						Key:      key,
						Status:   model.StatusActive,
						UserName: &name,
						Email:    &email,
					},
				}, nil
			}
			return &model.KeyValidity{Valid: false}, nil
		},
	}
	h := NewUserHandler(discardLogger(), stub)

	t.Run("known key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/cekapi", strings.NewReader(`{"apiKey":"known-key-value"}`))
		rec := httptest.NewRecorder()

		h.CheckKey(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var resp model.KeyValidity
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if !resp.Valid {
			t.Error("known key should be valid")
		}
		if resp.Row == nil || resp.Row.Email == nil || *resp.Row.Email != "jane@x.com" {
			t.Errorf("row = %+v, want email jane@x.com", resp.Row)
		}
	})

	t.Run("unknown key is 200 with valid false", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/cekapi", strings.NewReader(`{"apiKey":"nope"}`))
		rec := httptest.NewRecorder()

		h.CheckKey(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var resp model.KeyValidity
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.Valid {
			t.Error("unknown key should be invalid")
		}
		if resp.Row != nil {
			t.Error("unknown key should have no row")
		}
	})

	t.Run("missing apiKey is 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/cekapi", strings.NewReader(`{}`))
		rec := httptest.NewRecorder()

		h.CheckKey(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestUserHandler_ListKeys(t *testing.T) {
	stub := &stubLifecycle{
		listKeys: func(ctx context.Context) ([]model.APIKeyListRow, error) {
			return []model.APIKeyListRow{
				{ID: "01A", Key: "key-a", Status: model.StatusActive},
				{ID: "01B", Key: "key-b", Status: model.StatusInactive},
			}, nil
		},
	}
	h := NewUserHandler(discardLogger(), stub)

	req := httptest.NewRequest(http.MethodGet, "/list", nil)
	rec := httptest.NewRecorder()

	h.ListKeys(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Count   int                  `json:"count"`
		APIKeys []model.APIKeyListRow `json:"apiKeys"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Count != 2 || len(resp.APIKeys) != 2 {
		t.Errorf("count = %d with %d keys, want 2/2", resp.Count, len(resp.APIKeys))
	}
}
