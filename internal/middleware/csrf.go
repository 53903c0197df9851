package middleware

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
)

type contextKey string

const (
	CSRFTokenKey   contextKey = "csrf_token"
	CSRFCookieName            = "csrf_token"
	CSRFHeaderName            = "X-CSRF-Token"
)

func GenerateToken() string {
	b := make([]byte, 32)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// CSRF issues a per-browser token cookie and checks it on every POST, either
// from the X-CSRF-Token header or a csrf_token form field.
func CSRF(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := ""
		if cookie, err := r.Cookie(CSRFCookieName); err == nil && cookie.Value != "" {
			token = cookie.Value
		} else {
			token = GenerateToken()
			http.SetCookie(w, &http.Cookie{
				Name:     CSRFCookieName,
				Value:    token,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
				Secure:   r.TLS != nil,
			})
		}

		if r.Method == http.MethodPost {
			reqToken := r.Header.Get(CSRFHeaderName)
			if reqToken == "" {
				reqToken = r.FormValue("csrf_token")
			}
			if subtle.ConstantTimeCompare([]byte(reqToken), []byte(token)) != 1 {
				http.Error(w, "Invalid CSRF Token", http.StatusForbidden)
				return
			}
		}

		ctx := context.WithValue(r.Context(), CSRFTokenKey, token)
		next(w, r.WithContext(ctx))
	}
}

// CSRFToken returns the token CSRF stored for templates.
func CSRFToken(ctx context.Context) string {
	token, _ := ctx.Value(CSRFTokenKey).(string)
	return token
}
