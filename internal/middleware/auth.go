package middleware

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/nyrahul/shellsight/internal/audit"
	"github.com/nyrahul/shellsight/internal/config"
	"github.com/nyrahul/shellsight/internal/logutil"
)

type contextKey string

const userContextKey contextKey = "user"

// SessionCookie marks a browser session whose login has been audited.
const SessionCookie = "shellsight_session"

// anonymousUser is the identity assumed when auth is disabled.
const anonymousUser = "admin"

// User is the identity asserted by the proxy in front of the service.
type User struct {
	Name  string
	Admin bool
}

// LoginRecorder persists login events.
type LoginRecorder interface {
	LogLogin(entry audit.LoginEntry) error
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// RequireIdentity resolves the user from the configured identity header and
// records one login per browser session. recorder may be nil.
func RequireIdentity(recorder LoginRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			name := anonymousUser
			if !config.Cfg.AuthDisabled {
				name = strings.TrimSpace(r.Header.Get(config.Cfg.IdentityHeader))
				if name == "" {
					writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication required"})
					return
				}
				if !validName(name) {
					log.Printf("[auth] rejected identity %q", logutil.SanitizeForLog(name))
					writeJSON(w, http.StatusForbidden, map[string]string{"detail": "Invalid identity"})
					return
				}
			}

			user := &User{Name: name, Admin: config.Cfg.AuthDisabled || config.Cfg.IsAdmin(name)}

			if _, err := r.Cookie(SessionCookie); err != nil {
				sessionID := uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookie,
					Value:    sessionID,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
				if recorder != nil {
					recorder.LogLogin(audit.LoginEntry{
						Username:  name,
						SessionID: sessionID,
						SourceIP:  r.RemoteAddr,
						UserAgent: r.UserAgent(),
					})
				}
			}

			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// validName rejects identities that would escape their namespace when used
// as a key path segment.
func validName(name string) bool {
	if name == "." || name == ".." || len(name) > 256 {
		return false
	}
	for _, r := range name {
		if r == '/' || r == '\\' || r < 32 || r == 0x7f {
			return false
		}
	}
	return true
}

func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetUser(r)
		if user == nil || !user.Admin {
			writeJSON(w, http.StatusForbidden, map[string]string{"detail": "Admin access required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func GetUser(r *http.Request) *User {
	user, _ := r.Context().Value(userContextKey).(*User)
	return user
}

// Namespace returns the recording namespace for the request: the user's name
// when recordings are stored per user, otherwise "".
func Namespace(r *http.Request) string {
	if !config.Cfg.PerUserRecordings {
		return ""
	}
	if user := GetUser(r); user != nil {
		return user.Name
	}
	return ""
}
