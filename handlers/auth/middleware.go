package auth

import (
	"context"
	"net/http"

	"bloodzy/backend/handlers/respond"
)

type ctxKey struct{}

// Middleware rejects requests without a valid token and stores the user id
// in the request context.
func (t *Tokens) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := t.UserIDFromRequest(r)
		if err != nil {
			respond.Message(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

// WithUserID returns ctx carrying userID.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// UserID returns the id stored by Middleware.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ctxKey{}).(int64)
	return id, ok && id > 0
}

// RequireUser returns the authenticated user id, or writes 401 and returns
// false.
func RequireUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := UserID(r.Context())
	if !ok {
		respond.Message(w, http.StatusUnauthorized, "Unauthorized")
	}
	return id, ok
}
