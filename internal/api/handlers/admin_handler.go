package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/haneul-academy/portal-be/internal/auth"
	"github.com/haneul-academy/portal-be/internal/authz"
	"github.com/haneul-academy/portal-be/internal/models"
	"github.com/haneul-academy/portal-be/internal/services"
)

// AdminHandler serves the moderation surface: user management, bans, the
// activity trail, and the system tab.
type AdminHandler struct {
	userSvc       services.UserServiceProvider
	moderationSvc services.ModerationServiceProvider
	activitySvc   services.ActivityServiceProvider
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(userSvc services.UserServiceProvider, moderationSvc services.ModerationServiceProvider, activitySvc services.ActivityServiceProvider) *AdminHandler {
	return &AdminHandler{userSvc: userSvc, moderationSvc: moderationSvc, activitySvc: activitySvc}
}

// RequireModerator gates the admin routes to teacher and creator roles.
func RequireModerator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident, ok := auth.IdentityFromContext(r.Context())
		if !ok || !authz.CanPerform(ident.Role, authz.ActionViewAdmin) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ListUsers handles GET /admin/users.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userSvc.ListUsers()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list users")
		writeServiceError(w, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	respondJSON(w, http.StatusOK, users)
}

// RolePayload defines the structure for role change requests.
type RolePayload struct {
	Role models.Role `json:"role"`
}

// ChangeRole handles PUT /admin/users/{username}/role.
func (h *AdminHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFromContext(r.Context())
	username := chi.URLParam(r, "username")

	var payload RolePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if !models.ValidRole(payload.Role) {
		http.Error(w, "Unknown role", http.StatusBadRequest)
		return
	}

	user, err := h.userSvc.ChangeRole(ident, username, payload.Role)
	if err != nil {
		log.Warn().Err(err).Str("username", username).Msg("Failed to change role")
		writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// BanPayload defines the structure for ban requests.
type BanPayload struct {
	Reason string `json:"reason"`
}

// Ban handles POST /admin/users/{username}/ban.
func (h *AdminHandler) Ban(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFromContext(r.Context())
	username := chi.URLParam(r, "username")

	var payload BanPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.moderationSvc.Ban(ident, username, payload.Reason); err != nil {
		log.Warn().Err(err).Str("username", username).Msg("Failed to ban user")
		writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "User banned"})
}

// Unban handles DELETE /admin/users/{username}/ban.
func (h *AdminHandler) Unban(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFromContext(r.Context())
	username := chi.URLParam(r, "username")

	if err := h.moderationSvc.Unban(ident, username); err != nil {
		log.Warn().Err(err).Str("username", username).Msg("Failed to unban user")
		writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "User unbanned"})
}

// ListBans handles GET /admin/bans.
func (h *AdminHandler) ListBans(w http.ResponseWriter, r *http.Request) {
	bans, err := h.moderationSvc.ListBans()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list bans")
		writeServiceError(w, err)
		return
	}
	if bans == nil {
		bans = []models.Ban{}
	}
	respondJSON(w, http.StatusOK, bans)
}

// DeleteUser handles DELETE /admin/users/{username}. The account is
// deactivated, not removed, so owned content keeps resolving.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFromContext(r.Context())
	username := chi.URLParam(r, "username")

	if err := h.userSvc.DeleteUser(ident, username); err != nil {
		log.Warn().Err(err).Str("username", username).Msg("Failed to delete user")
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Logs handles GET /admin/logs, returning the 100 most recent entries.
func (h *AdminHandler) Logs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.activitySvc.Recent(100)
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch activity logs")
		writeServiceError(w, err)
		return
	}
	if logs == nil {
		logs = []models.ActivityLog{}
	}
	respondJSON(w, http.StatusOK, logs)
}

// System handles GET /admin/system: host uptime and memory for the admin
// system tab.
func (h *AdminHandler) System(w http.ResponseWriter, r *http.Request) {
	info, err := host.Info()
	if err != nil {
		log.Error().Err(err).Msg("Failed to read host info")
		http.Error(w, "Failed to read system status", http.StatusInternalServerError)
		return
	}
	vm, err := mem.VirtualMemory()
	if err != nil {
		log.Error().Err(err).Msg("Failed to read memory stats")
		http.Error(w, "Failed to read system status", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"hostname":       info.Hostname,
		"os":             info.OS,
		"platform":       info.Platform,
		"uptimeSeconds":  info.Uptime,
		"memTotalBytes":  vm.Total,
		"memUsedBytes":   vm.Used,
		"memUsedPercent": vm.UsedPercent,
		"time":           time.Now().UTC(),
	})
}
