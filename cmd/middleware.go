package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"spacesBack/internal/models"
)

func secureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("X-Frame-Options", "deny")
		next.ServeHTTP(w, r)
	})
}

func (app *application) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		app.infoLog.Printf("%s - %s %s %s", r.RemoteAddr, r.Proto, r.Method, r.URL.RequestURI())
		next.ServeHTTP(w, r)
	})
}

func (app *application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				w.Header().Set("Connection", "close")
				app.serverError(w, fmt.Errorf("%s", err))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (app *application) parseToken(r *http.Request) (*models.Claims, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return nil, fmt.Errorf("authorization header missing or invalid")
	}
	claims, err := app.tokens.Parse(strings.TrimPrefix(authHeader, "Bearer "))
	if err != nil {
		return nil, fmt.Errorf("invalid access token")
	}
	return claims, nil
}

// JWTMiddleware authenticates the caller and enforces requiredRole. Admins
// pass every role check; an empty role admits any authenticated user.
func (app *application) JWTMiddleware(next http.Handler, requiredRole string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := app.parseToken(r)
		if err != nil {
			app.clientError(w, http.StatusUnauthorized, err.Error())
			return
		}

		switch requiredRole {
		case models.RoleAdmin:
			if claims.Role != models.RoleAdmin {
				app.clientError(w, http.StatusForbidden, "Forbidden: only admins allowed")
				return
			}
		case models.RoleClient:
			if claims.Role != models.RoleClient && claims.Role != models.RoleAdmin {
				app.clientError(w, http.StatusForbidden, "Forbidden: only clients or admins allowed")
				return
			}
		case models.RoleBusiness:
			if claims.Role != models.RoleBusiness && claims.Role != models.RoleAdmin {
				app.clientError(w, http.StatusForbidden, "Forbidden: only business or admins allowed")
				return
			}
		}

		ctx := context.WithValue(r.Context(), "user_id", int(claims.UserID))
		ctx = context.WithValue(ctx, "role", claims.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (app *application) JWTMiddlewareWithRole(requiredRole string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return app.JWTMiddleware(next, requiredRole)
	}
}

// wsAuth checks that the token owner matches the user_id of the socket.
func (app *application) wsAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := app.parseToken(r)
		if err != nil {
			app.clientError(w, http.StatusUnauthorized, err.Error())
			return
		}
		if r.URL.Query().Get("user_id") != fmt.Sprint(claims.UserID) {
			app.clientError(w, http.StatusForbidden, "user_id does not match token")
			return
		}
		next.ServeHTTP(w, r)
	})
}
