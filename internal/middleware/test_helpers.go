package middleware

import (
	"context"
	"net/http"
)

// WithUserForTest attaches a User to the request context for testing.
func WithUserForTest(r *http.Request, user *User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), userContextKey, user))
}
