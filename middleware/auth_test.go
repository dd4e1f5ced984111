package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v4"
)

const testSecret = "unit-test-secret"

func signedToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func TestAuthenticateResolvesProfileID(t *testing.T) {
	auth := NewAuthenticator(testSecret)

	var gotID int
	handler := auth.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := GetProfileIDFromContext(r.Context())
		if err != nil {
			t.Errorf("GetProfileIDFromContext: %v", err)
		}
		gotID = id
	}))

	req := httptest.NewRequest(http.MethodGet, "/group-posts", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, testSecret, jwt.MapClaims{"profile_id": float64(42)}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotID != 42 {
		t.Errorf("profile id = %d, want 42", gotID)
	}
}

func TestAuthenticateRejects(t *testing.T) {
	auth := NewAuthenticator(testSecret)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not a bearer token", "Basic abc"},
		{"wrong secret", "Bearer " + signedToken(t, "other-secret", jwt.MapClaims{"profile_id": float64(42)})},
		{"garbage token", "Bearer not.a.jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := auth.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/group-posts", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
			if called {
				t.Error("inner handler was invoked for a rejected request")
			}
		})
	}
}

func TestGetProfileIDFromContext(t *testing.T) {
	if _, err := GetProfileIDFromContext(context.Background()); err == nil {
		t.Error("expected an error for a context without claims")
	}

	if id, err := GetProfileIDFromContext(WithProfileID(context.Background(), 7)); err != nil || id != 7 {
		t.Errorf("WithProfileID round trip = (%d, %v), want (7, nil)", id, err)
	}

	ctx := context.WithValue(context.Background(), profileContextKey, jwt.MapClaims{"profile_id": "not-a-number"})
	if _, err := GetProfileIDFromContext(ctx); err == nil {
		t.Error("expected an error for a non-numeric profile_id claim")
	}

	ctx = context.WithValue(context.Background(), profileContextKey, jwt.MapClaims{"profile_id": float64(2.5)})
	if _, err := GetProfileIDFromContext(ctx); err == nil {
		t.Error("expected an error for a fractional profile_id claim")
	}
}
