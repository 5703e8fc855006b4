package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/angermaster11/eduhub/internal/httputil"
)

// SessionCookie keys a browsing session's viewer state
const SessionCookie = "eduhub_session"

// SessionMiddleware makes sure every request carries a browsing session
// id, issuing a fresh cookie when the request has none or a malformed one.
func SessionMiddleware(secure bool, maxAge time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if c, err := r.Cookie(SessionCookie); err == nil {
				if _, err := uuid.Parse(c.Value); err == nil {
					next.ServeHTTP(w, httputil.WithSessionID(r, c.Value))
					return
				}
			}

			id := uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    id,
				Path:     "/",
				MaxAge:   int(maxAge.Seconds()),
				HttpOnly: true,
				Secure:   secure,
				SameSite: http.SameSiteLaxMode,
			})
			next.ServeHTTP(w, httputil.WithSessionID(r, id))
		})
	}
}
