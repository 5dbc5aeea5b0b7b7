package main

import (
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"spacesBack/internal/models"
	"spacesBack/utils"
)

func testApplication(t *testing.T) *application {
	t.Helper()
	tokens, err := utils.NewManager("secret")
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	discard := log.New(io.Discard, "", 0)
	return &application{errorLog: discard, infoLog: discard, tokens: tokens}
}

func signToken(t *testing.T, secret string, userID uint, role string) string {
	t.Helper()
	m, err := utils.NewManager(secret)
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	token, err := m.NewAccessToken(userID, role, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}

func TestJWTMiddlewareRoles(t *testing.T) {
	app := testApplication(t)
	var gotUser int
	var gotRole string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = r.Context().Value("user_id").(int)
		gotRole, _ = r.Context().Value("role").(string)
	})

	tests := []struct {
		name     string
		token    string
		required string
		want     int
	}{
		{name: "missing header", required: "", want: http.StatusUnauthorized},
		{name: "bad signature", token: signToken(t, "other", 1, models.RoleClient), required: "", want: http.StatusUnauthorized},
		{name: "any authenticated", token: signToken(t, "secret", 1, models.RoleClient), required: "", want: http.StatusOK},
		{name: "client on business route", token: signToken(t, "secret", 1, models.RoleClient), required: models.RoleBusiness, want: http.StatusForbidden},
		{name: "business on business route", token: signToken(t, "secret", 1, models.RoleBusiness), required: models.RoleBusiness, want: http.StatusOK},
		{name: "admin passes client route", token: signToken(t, "secret", 1, models.RoleAdmin), required: models.RoleClient, want: http.StatusOK},
		{name: "business on admin route", token: signToken(t, "secret", 1, models.RoleBusiness), required: models.RoleAdmin, want: http.StatusForbidden},
		{name: "token without user", token: signToken(t, "secret", 0, models.RoleAdmin), required: "", want: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotUser, gotRole = 0, ""
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.token != "" {
				r.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()
			app.JWTMiddleware(next, tt.required).ServeHTTP(w, r)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.want, w.Body.String())
			}
			if tt.want == http.StatusOK && (gotUser != 1 || gotRole == "") {
				t.Fatalf("identity not propagated: user=%d role=%q", gotUser, gotRole)
			}
		})
	}
}

func TestRecoverPanic(t *testing.T) {
	app := testApplication(t)
	h := app.recoverPanic(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestWSAuthRequiresMatchingUser(t *testing.T) {
	app := testApplication(t)
	h := app.wsAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	r := httptest.NewRequest(http.MethodGet, "/ws/autoquote?user_id=2", nil)
	r.Header.Set("Authorization", "Bearer "+signToken(t, "secret", 1, models.RoleBusiness))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign user_id, got %d", w.Code)
	}

	r = httptest.NewRequest(http.MethodGet, "/ws/autoquote?user_id=1", nil)
	r.Header.Set("Authorization", "Bearer "+signToken(t, "secret", 1, models.RoleBusiness))
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
