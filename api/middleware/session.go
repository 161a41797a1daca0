package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-checkout/api/validators"
	"github.com/angelmondragon/storefront-checkout/internal/session"
	"github.com/angelmondragon/storefront-checkout/pkg/logger"
)

const (
	sessionIDHeader = "X-Session-Id"
	maxSessionIDLen = 128
)

// SessionKey picks the checkout workspace of the request: the user id for
// signed-in actors, the X-Session-Id header for guests. Guests without a
// session id get a fresh one echoed back in the response header.
func SessionKey(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := session.ActorFromContext(r.Context())

			var key string
			if actor.Authenticated && strings.TrimSpace(actor.UserID) != "" {
				key = "user:" + actor.UserID
			} else {
				guestID := validators.SanitizeString(r.Header.Get(sessionIDHeader), maxSessionIDLen)
				if guestID == "" {
					guestID = uuid.NewString()
				}
				w.Header().Set(sessionIDHeader, guestID)
				key = "guest:" + guestID
			}

			ctx := WithSessionKey(r.Context(), key)
			ctx = logg.WithSessionID(ctx, key)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
