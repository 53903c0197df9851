package main

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"staff-portal/internal/logging"
	"staff-portal/internal/models"
)

type ProfilesData struct {
	Profiles []*models.Profile
	Roles    []models.Role
}

func (a *app) handleProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := a.profiles.ListProfiles(r.Context())
	if err != nil {
		logging.FromContext(r.Context(), a.logger).Error("list profiles failed", zap.Error(err))
		http.Error(w, "Failed to load profiles", http.StatusInternalServerError)
		return
	}
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		writeJSON(w, http.StatusOK, map[string]any{"items": profiles})
		return
	}
	a.render(w, r, ProfilesData{
		Profiles: profiles,
		Roles:    []models.Role{models.RoleStaff, models.RoleManager, models.RoleAdmin},
	}, "profiles.html")
}

func (a *app) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.FormValue("id"))
	if id == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}
	role, ok := models.ParseRole(r.FormValue("role"))
	if !ok {
		http.Error(w, "unknown role", http.StatusBadRequest)
		return
	}

	p, err := a.profiles.SetRole(r.Context(), id, r.FormValue("email"), role)
	if err != nil {
		logging.FromContext(r.Context(), a.logger).Error("set role failed", zap.String("user_id", id), zap.Error(err))
		http.Error(w, "Failed to update profile", http.StatusInternalServerError)
		return
	}
	logging.FromContext(r.Context(), a.logger).Info("role changed",
		zap.String("user_id", p.ID),
		zap.String("role", string(p.Role)))

	http.Redirect(w, r, "/admin/profiles", http.StatusSeeOther)
}
