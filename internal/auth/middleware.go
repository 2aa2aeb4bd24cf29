package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"material-quiz-service/internal/domain"
	"github.com/google/uuid"
)

// GuestCookie holds the stable per-session key for anonymous callers.
const GuestCookie = "quiz_guest_session"

const guestCookieTTL = 30 * 24 * time.Hour

type ctxKey struct{}

// WithIdentity attaches the caller identity to the context.
func WithIdentity(ctx context.Context, identity domain.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, identity)
}

// IdentityFromContext returns the caller identity; the zero value is an
// anonymous guest without a session key.
func IdentityFromContext(ctx context.Context) domain.Identity {
	if v, ok := ctx.Value(ctxKey{}).(domain.Identity); ok {
		return v
	}
	return domain.Identity{}
}

// Identity derives a domain.Identity for every request and stores it in the
// request context. A valid bearer token yields a registered identity (demo
// role marks it restricted); anything else is a guest keyed by the session
// cookie, minted on first contact. The predicate is evaluated per request,
// never cached.
func Identity(svc *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
				claims, err := svc.Parse(strings.TrimPrefix(h, "Bearer "))
				if err != nil {
					http.Error(w, "bad token", http.StatusUnauthorized)
					return
				}
				identity := domain.Identity{
					UserID:     claims.Subject,
					Restricted: claims.Role == RoleDemo,
				}
				next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
				return
			}

			key := guestKey(w, r)
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), domain.GuestIdentity(key))))
		})
	}
}

// guestKey reuses the session cookie or mints a new key.
func guestKey(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(GuestCookie); err == nil && c.Value != "" {
		return c.Value
	}
	key := "guest-" + uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     GuestCookie,
		Value:    key,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(guestCookieTTL),
	})
	return key
}
