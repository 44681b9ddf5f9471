package httpapi

import (
	"net/http"

	"github.com/XiaoHuahai/group3/internal/auth"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

type updateRolesRequest struct {
	Roles []string `json:"roles"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		a.handleError(w, r, err)
		return
	}
	user, err := a.auth.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	w.Header().Set("Location", "/users/"+user.ID)
	writeJSON(w, http.StatusCreated, user)
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		a.handleError(w, r, err)
		return
	}
	res, err := a.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *API) handleUserStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.auth.Stats(r.Context())
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (a *API) handleListUsers(w http.ResponseWriter, r *http.Request) {
	if err := auth.PrincipalFromContext(r.Context()).Require(auth.RoleAdmin); err != nil {
		a.handleError(w, r, err)
		return
	}
	users, err := a.auth.ListUsers(r.Context())
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	if users == nil {
		users = []auth.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (a *API) handleGetUser(w http.ResponseWriter, r *http.Request) {
	if err := auth.PrincipalFromContext(r.Context()).Require(auth.RoleAdmin); err != nil {
		a.handleError(w, r, err)
		return
	}
	user, err := a.auth.GetUser(r.Context(), r.PathValue("id"))
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// handleUpdateRoles gates on the token's Admin claim first; the service then
// re-checks the acting user's stored roles before parsing the names.
func (a *API) handleUpdateRoles(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())
	if err := principal.Require(auth.RoleAdmin); err != nil {
		a.handleError(w, r, err)
		return
	}
	var req updateRolesRequest
	if err := decodeJSON(r, &req); err != nil {
		a.handleError(w, r, err)
		return
	}
	roles := make([]auth.Role, len(req.Roles))
	for i, name := range req.Roles {
		roles[i] = auth.Role(name)
	}
	user, err := a.auth.UpdateRoles(r.Context(), r.PathValue("id"), roles, principal.UserID)
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
