package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"carelink/globals"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
)

func issueToken(t *testing.T, userID, role string, ttl time.Duration) string {
	t.Helper()
	claims := &Claims{
		Username: "tester",
		UserID:   userID,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(globals.JwtSecret)
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func TestAuthenticateSetsContext(t *testing.T) {
	var gotUser, gotRole string
	h := Authenticate(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		gotUser, _ = r.Context().Value(globals.UserIDKey).(string)
		gotRole, _ = r.Context().Value(globals.RoleKey).(string)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, "u123", "doctor", time.Hour))
	rec := httptest.NewRecorder()
	h(rec, req, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if gotUser != "u123" || gotRole != "doctor" {
		t.Fatalf("context = (%q, %q)", gotUser, gotRole)
	}
}

func TestAuthenticateRejects(t *testing.T) {
	h := Authenticate(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		t.Fatal("handler must not run")
	})

	cases := []struct {
		name  string
		token string
	}{
		{"missing", ""},
		{"not bearer", "Token abc"},
		{"garbage", "Bearer not.a.jwt"},
		{"expired", "Bearer " + issueToken(t, "u123", "patient", -time.Hour)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			if tc.token != "" {
				req.Header.Set("Authorization", tc.token)
			}
			rec := httptest.NewRecorder()
			h(rec, req, nil)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	called := false
	h := RequireRole(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		called = true
	}, "admin")

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, "u1", "patient", time.Hour))
	rec := httptest.NewRecorder()
	h(rec, req, nil)
	if rec.Code != http.StatusForbidden || called {
		t.Fatalf("status = %d, called = %v", rec.Code, called)
	}

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, "u2", "admin", time.Hour))
	rec = httptest.NewRecorder()
	h(rec, req, nil)
	if rec.Code != http.StatusOK || !called {
		t.Fatalf("status = %d, called = %v", rec.Code, called)
	}
}

func TestParseToken(t *testing.T) {
	claims, err := ParseToken(issueToken(t, "u9", "doctor", time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if claims.UserID != "u9" || claims.Role != "doctor" {
		t.Fatalf("claims = %+v", claims)
	}

	if _, err := ParseToken("bogus"); err == nil {
		t.Fatal("expected error for bogus token")
	}
}
