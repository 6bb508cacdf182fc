package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestJWTRoundTrip(t *testing.T) {
	token, err := SignJWT("secret", TokenClaims{
		Sub:  "u1",
		Role: "admin",
		Exp:  time.Now().Add(time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	claims, err := VerifyJWT("secret", token)
	if err != nil {
		t.Fatalf("VerifyJWT: %v", err)
	}
	if claims.Sub != "u1" || claims.Role != "admin" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestVerifyJWTRejects(t *testing.T) {
	valid, _ := SignJWT("secret", TokenClaims{Sub: "u1", Exp: time.Now().Add(time.Hour).Unix()})
	expired, _ := SignJWT("secret", TokenClaims{Sub: "u1", Exp: time.Now().Add(-time.Hour).Unix()})

	tests := []struct {
		name   string
		secret string
		token  string
	}{
		{name: "wrong secret", secret: "other", token: valid},
		{name: "expired", secret: "secret", token: expired},
		{name: "malformed", secret: "secret", token: "a.b"},
		{name: "tampered signature", secret: "secret", token: valid + "x"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := VerifyJWT(tc.secret, tc.token); err == nil {
				t.Fatalf("expected verification failure")
			}
		})
	}
}

func TestAuthJWTMiddleware(t *testing.T) {
	var gotUser, gotRole string
	handler := AuthJWT("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = UserIDFromContext(r.Context())
		gotRole = UserRoleFromContext(r.Context())
	}))

	t.Run("valid bearer token", func(t *testing.T) {
		token, _ := SignJWT("secret", TokenClaims{Sub: "u1", Role: "general", Exp: time.Now().Add(time.Hour).Unix()})
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if gotUser != "u1" || gotRole != "general" {
			t.Fatalf("context user=%q role=%q", gotUser, gotRole)
		}
	})

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("bad scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic abc")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})
}
