package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/keymint/keymint/internal/auth"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAuth_AdmitsValidToken(t *testing.T) {
	tokens := auth.NewTokens("test-secret", time.Hour)
	signed, err := tokens.Issue("admin-1", "admin@example.com")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	var gotClaims *auth.Claims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims = auth.ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	handler := Auth(AuthConfig{Logger: newTestLogger(), Verifier: tokens})(next)

	testCases := []struct {
		name   string
		header string
	}{
		{"with bearer prefix", "Bearer " + signed},
		{"lowercase bearer prefix", "bearer " + signed},
		{"raw token without prefix", signed},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gotClaims = nil
			req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
			req.Header.Set("Authorization", tc.header)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			if gotClaims == nil || gotClaims.AdminID != "admin-1" {
				t.Errorf("claims = %+v, want admin-1", gotClaims)
			}
		})
	}
}

func TestAuth_RejectsBeforeHandler(t *testing.T) {
	tokens := auth.NewTokens("test-secret", time.Hour)
	expired, err := auth.NewTokens("test-secret", -time.Minute).Issue("admin-1", "admin@example.com")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	wrongKey, err := auth.NewTokens("other-secret", time.Hour).Issue("admin-1", "admin@example.com")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	handlerRan := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerRan = true
	})

	handler := Auth(AuthConfig{Logger: newTestLogger(), Verifier: tokens})(next)

	testCases := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"malformed token", "Bearer not.a.jwt"},
		{"expired token", "Bearer " + expired},
		{"wrong signature", "Bearer " + wrongKey},
		{"bearer with empty token", "Bearer "},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handlerRan = false
			req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
			if handlerRan {
				t.Error("handler should not run for rejected request")
			}
		})
	}
}

func TestExtractBearerToken(t *testing.T) {
	testCases := []struct {
		name   string
		header string
		want   string
	}{
		{"bearer prefix", "Bearer abc123", "abc123"},
		{"no prefix", "abc123", "abc123"},
		{"lowercase prefix", "bearer abc123", "abc123"},
		{"empty", "", ""},
		{"whitespace padding", "  Bearer abc123  ", "abc123"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			if got := extractBearerToken(req); got != tc.want {
				t.Errorf("extractBearerToken(%q) = %q, want %q", tc.header, got, tc.want)
			}
		})
	}
}
