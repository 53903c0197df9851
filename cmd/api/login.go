package main

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"staff-portal/internal/identity"
	"staff-portal/internal/logging"
	"staff-portal/internal/middleware"
)

const sessionMaxAge = 12 * 60 * 60

type LoginData struct {
	Next  string
	Error string
}

// safeNext keeps redirects on this site.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

func (a *app) handleLogin(w http.ResponseWriter, r *http.Request) {
	next := safeNext(r.URL.Query().Get("next"))
	if !a.authEnabled {
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}
	a.render(w, r, LoginData{Next: next}, "login.html")
}

// handleLoginSubmit checks an access token issued by the identity service and
// stores it in the session cookie.
func (a *app) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	next := safeNext(r.FormValue("next"))
	if !a.authEnabled {
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}

	token := strings.TrimSpace(r.FormValue("token"))
	if _, err := a.users.CurrentUser(r.Context(), token); err != nil {
		if errors.Is(err, identity.ErrUnauthenticated) {
			a.renderStatus(w, r, http.StatusUnauthorized, LoginData{Next: next, Error: "That sign-in token was not accepted."}, "login.html")
			return
		}
		logging.FromContext(r.Context(), a.logger).Error("identity lookup failed", zap.Error(err))
		a.renderStatus(w, r, http.StatusBadGateway, LoginData{Next: next, Error: "The sign-in service is unavailable. Try again shortly."}, "login.html")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
	http.Redirect(w, r, next, http.StatusSeeOther)
}

func (a *app) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
