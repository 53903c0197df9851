package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"staff-portal/internal/identity"
	"staff-portal/internal/logging"
	"staff-portal/internal/models"
)

const (
	SessionCookieName            = "portal_session"
	userKey           contextKey = "user"
)

type UserResolver interface {
	CurrentUser(ctx context.Context, token string) (*identity.User, error)
}

type RoleStore interface {
	Role(ctx context.Context, userID string) (models.Role, error)
}

// DevUser is the caller when authentication is disabled.
var DevUser = models.User{ID: "dev", Email: "dev@localhost", Role: models.RoleAdmin}

// Authenticator resolves the session token to a user and role and gates
// handlers on a minimum role.
type Authenticator struct {
	users   UserResolver
	roles   RoleStore
	enabled bool
	logger  *zap.Logger
}

func NewAuthenticator(users UserResolver, roles RoleStore, enabled bool, logger *zap.Logger) *Authenticator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authenticator{users: users, roles: roles, enabled: enabled, logger: logger}
}

// API answers unauthenticated callers with 401 and under-privileged ones with 403.
func (a *Authenticator) API(min models.Role, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, status, err := a.authenticate(r)
		if err != nil {
			writeJSONError(w, status, err.Error())
			return
		}
		if !user.Role.Allows(min) {
			writeJSONError(w, http.StatusForbidden, "requires role "+string(min))
			return
		}
		next(w, r.WithContext(WithUser(r.Context(), user)))
	}
}

// Page redirects unauthenticated browsers to /login.
func (a *Authenticator) Page(min models.Role, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, status, err := a.authenticate(r)
		if status == http.StatusUnauthorized {
			http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), status)
			return
		}
		if !user.Role.Allows(min) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next(w, r.WithContext(WithUser(r.Context(), user)))
	}
}

func (a *Authenticator) authenticate(r *http.Request) (*models.User, int, error) {
	if !a.enabled {
		u := DevUser
		return &u, http.StatusOK, nil
	}
	log := logging.FromContext(r.Context(), a.logger)

	id, err := a.users.CurrentUser(r.Context(), SessionToken(r))
	if errors.Is(err, identity.ErrUnauthenticated) {
		return nil, http.StatusUnauthorized, errors.New("authentication required")
	}
	if err != nil {
		log.Error("identity lookup failed", zap.Error(err))
		return nil, http.StatusBadGateway, errors.New("identity service unavailable")
	}

	role, err := a.roles.Role(r.Context(), id.ID)
	if err != nil {
		log.Error("role lookup failed", zap.String("user_id", id.ID), zap.Error(err))
		return nil, http.StatusInternalServerError, errors.New("role lookup failed")
	}
	return &models.User{ID: id.ID, Email: id.Email, Role: role}, http.StatusOK, nil
}

// SessionToken reads the bearer token from the Authorization header, falling
// back to the session cookie.
func SessionToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	if c, err := r.Cookie(SessionCookieName); err == nil {
		return c.Value
	}
	return ""
}

func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

func UserFrom(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey).(*models.User)
	return u, ok && u != nil
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
