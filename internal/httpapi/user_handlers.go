package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/DaffafauzanD/Project-Sismakel/internal/auth"
)

type createUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	RoleID   string `json:"role_id"`
}

type updateUserRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
	RoleID   *string `json:"role_id"`
}

func (a *API) handleUsers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if !a.ensurePermissions(w, r, auth.PermissionUserRead) {
			return
		}
		users, err := a.auth.ListUsers(r.Context())
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"users": users})
	case http.MethodPost:
		if !a.ensurePermissions(w, r, auth.PermissionUserWrite) {
			return
		}
		var req createUserRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		user, err := a.auth.CreateUser(r.Context(), req.Username, req.Password, req.RoleID)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		a.audit(r.Context(), "user.create", map[string]any{
			"user_id":  user.ID,
			"username": user.Username,
		})
		w.Header().Set("Location", fmt.Sprintf("/api/v1/users/%s", user.ID))
		writeJSON(w, http.StatusCreated, user)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleUserResource(w http.ResponseWriter, r *http.Request) {
	userID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/users/"), "/")
	if userID == "" || strings.Contains(userID, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		if !a.ensurePermissions(w, r, auth.PermissionUserRead) {
			return
		}
		user, err := a.auth.GetUser(r.Context(), userID)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	case http.MethodPut:
		if !a.ensurePermissions(w, r, auth.PermissionUserWrite) {
			return
		}
		var req updateUserRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		user, err := a.auth.UpdateUser(r.Context(), userID, auth.UserUpdate{
			Username: req.Username,
			Password: req.Password,
			RoleID:   req.RoleID,
		})
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		a.audit(r.Context(), "user.update", map[string]any{"user_id": user.ID})
		writeJSON(w, http.StatusOK, user)
	case http.MethodDelete:
		if !a.ensurePermissions(w, r, auth.PermissionUserWrite) {
			return
		}
		if err := a.auth.DeleteUser(r.Context(), userID); err != nil {
			handleServiceError(w, r, err)
			return
		}
		a.audit(r.Context(), "user.delete", map[string]any{"user_id": userID})
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) handleRoles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if !a.ensurePermissions(w, r, auth.PermissionUserRead) {
		return
	}
	roles, err := a.auth.ListRoles(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"roles": roles})
}
