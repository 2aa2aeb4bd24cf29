package auth

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// LoginHandler issues a token for offline/dev use. Credentials are an
// ultra-minimal stand-in (username must equal password); swap in a real
// identity provider behind the same token shape for production.
func LoginHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
			Role     string `json:"role"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.Role == "" {
			req.Role = RoleStudent
		}
		valid := req.Username != "" && req.Username == req.Password &&
			(req.Role == RoleStudent || req.Role == RoleDemo)
		if !valid {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		token, err := svc.Issue(req.Username, req.Role)
		if err != nil {
			http.Error(w, "issue token", http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": token})
	}
}

// GuestLoginHandler mints (or reuses) a guest session key and persists it in
// the session cookie.
func GuestLoginHandler() http.HandlerFunc {
	type out struct {
		SessionKey string `json:"sessionKey"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(GuestCookie); err == nil && c.Value != "" {
			_ = json.NewEncoder(w).Encode(out{SessionKey: c.Value})
			return
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
		_ = json.NewEncoder(w).Encode(out{SessionKey: key})
	}
}
