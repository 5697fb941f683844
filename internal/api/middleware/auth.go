package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/joeychilson/chat/internal/models"
	"github.com/joeychilson/chat/internal/store"
)

type contextKey string

const userContextKey contextKey = "user"

// AuthMiddleware resolves bearer session tokens to users.
type AuthMiddleware struct {
	store store.Store
}

// NewAuthMiddleware creates a new auth middleware.
func NewAuthMiddleware(st store.Store) *AuthMiddleware {
	return &AuthMiddleware{store: st}
}

// RequireAuth verifies the session token and puts the user on the request
// context. Expired and unknown tokens both read as unauthorized; the store
// treats an expired session as absent.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			jsonError(w, http.StatusUnauthorized, "missing session token")
			return
		}
		session, user, err := m.store.GetSessionByToken(r.Context(), token)
		if err != nil {
			jsonError(w, http.StatusInternalServerError, "failed to verify session")
			return
		}
		if session == nil || user == nil {
			jsonError(w, http.StatusUnauthorized, "invalid or expired session")
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	// Browser EventSource cannot set headers; allow a cookie fallback.
	if c, err := r.Cookie("session"); err == nil {
		return c.Value
	}
	return ""
}

func jsonError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// ContextWithUser returns a context carrying an authenticated user.
func ContextWithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext retrieves the authenticated user from the request context.
func UserFromContext(ctx context.Context) *models.User {
	user, ok := ctx.Value(userContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}
