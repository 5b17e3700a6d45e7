package auth

import (
	"net/http"
	"time"

	"github.com/prayagtech/storefront/pkg/config"
)

// SetSessionCookie writes the signed token as an HTTP-only cookie.
func SetSessionCookie(w http.ResponseWriter, cfg config.JWTConfig, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(cfg.SessionTTL() / time.Second),
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(w http.ResponseWriter, cfg config.JWTConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SessionTokenFromRequest pulls the raw token from the session cookie.
func SessionTokenFromRequest(r *http.Request, cfg config.JWTConfig) (string, bool) {
	cookie, err := r.Cookie(cfg.CookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}
