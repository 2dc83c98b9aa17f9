package auth

import (
	"context"
	"net/http"

	"github.com/kuitang/login-suite/internal/obs"
)

type contextKey string

const accountIDKey contextKey = "accountID"

// Middleware gates handlers on a valid session.
type Middleware struct {
	sessions *SessionService
}

func NewMiddleware(sessions *SessionService) *Middleware {
	return &Middleware{sessions: sessions}
}

// RequireSession calls next with the account ID in the context when the
// request carries a valid session, and unauthenticated otherwise.
func (m *Middleware) RequireSession(next, unauthenticated http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := GetFromRequest(r)
		if err != nil {
			unauthenticated.ServeHTTP(w, r)
			return
		}

		accountID, err := m.sessions.Validate(r.Context(), sessionID)
		if err != nil {
			obs.From(r.Context()).Debug("session_rejected", "error", err.Error())
			unauthenticated.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), accountIDKey, accountID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetAccountID retrieves the account ID from the request context.
// Returns empty string if no account is authenticated.
func GetAccountID(ctx context.Context) string {
	id, _ := ctx.Value(accountIDKey).(string)
	return id
}

// IsAuthenticated checks if the context has an authenticated account.
func IsAuthenticated(ctx context.Context) bool {
	return GetAccountID(ctx) != ""
}
