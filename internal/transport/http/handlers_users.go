// Copyright 2026 The OpenTrusty Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/opentrusty/keystone-id/internal/model"
	"github.com/opentrusty/keystone-id/internal/paging"
	"github.com/opentrusty/keystone-id/internal/store"
)

func decodeUser(r *http.Request) (*model.User, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, err
	}
	if requestFormat(r) == contentXML {
		return model.DecodeUserXML(data)
	}
	return model.DecodeUserJSON(data)
}

// ListUsers handles GET /users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	marker, limit := pageFromQuery(r)
	items, prev, next, err := h.core.ListUsers(r.Context(), "", store.Page{Marker: marker, Limit: limit})
	if err != nil {
		respondFault(w, r, err)
		return
	}
	links := paging.Links(baseURL(r), prev, next, limit)
	respond(w, r, http.StatusOK,
		func() ([]byte, error) { return model.EncodeUsersJSON(items, links) },
		func() ([]byte, error) { return model.EncodeUsersXML(items, links) },
	)
}

// CreateUser handles POST /users. The password travels as the "password"
// attribute on the user object itself (spec §4.4.4); model.User.Password
// carries it in plaintext until CreateUser hashes and discards it.
// @Summary Create a user
// @Description Creates a user; the password attribute is hashed and discarded, never stored or echoed back
// @Tags Users
// @Accept json
// @Produce json
// @Param request body model.User true "User"
// @Success 201 {object} model.User
// @Failure 400 {object} identitycore.Fault
// @Router /users [post]
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	in, err := decodeUser(r)
	if err != nil {
		respondFault(w, r, badRequest("malformed user"))
		return
	}
	u, err := h.core.CreateUser(r.Context(), authToken(r), in, in.Password)
	if err != nil {
		respondFault(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated,
		func() ([]byte, error) { return model.EncodeUserJSON(u) },
		func() ([]byte, error) { return model.EncodeUserXML(u) },
	)
}

// GetUser handles GET /users/{id}.
// @Summary Get a user
// @Tags Users
// @Produce json
// @Param userID path string true "User ID"
// @Success 200 {object} model.User
// @Failure 404 {object} identitycore.Fault
// @Router /users/{userID} [get]
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.core.GetUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		respondFault(w, r, err)
		return
	}
	respond(w, r, http.StatusOK,
		func() ([]byte, error) { return model.EncodeUserJSON(u) },
		func() ([]byte, error) { return model.EncodeUserXML(u) },
	)
}

// UpdateUser handles PUT /users/{id}.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	patch, err := decodeUser(r)
	if err != nil {
		respondFault(w, r, badRequest("malformed user"))
		return
	}
	u, err := h.core.UpdateUser(r.Context(), authToken(r), chi.URLParam(r, "userID"), patch)
	if err != nil {
		respondFault(w, r, err)
		return
	}
	respond(w, r, http.StatusOK,
		func() ([]byte, error) { return model.EncodeUserJSON(u) },
		func() ([]byte, error) { return model.EncodeUserXML(u) },
	)
}

// DeleteUser handles DELETE /users/{id}.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.core.DeleteUser(r.Context(), authToken(r), chi.URLParam(r, "userID")); err != nil {
		respondFault(w, r, err)
		return
	}
	respondNoContent(w, http.StatusNoContent)
}

// SetPassword handles PUT /users/{id}/password. The body is a {"user":
// {"password": ...}} envelope, same shape as CreateUser's.
func (h *Handler) SetPassword(w http.ResponseWriter, r *http.Request) {
	req, err := decodeUser(r)
	if err != nil {
		respondFault(w, r, badRequest("malformed password request"))
		return
	}
	u, err := h.core.AddPassword(r.Context(), authToken(r), chi.URLParam(r, "userID"), req.Password)
	if err != nil {
		respondFault(w, r, err)
		return
	}
	respond(w, r, http.StatusOK,
		func() ([]byte, error) { return model.EncodeUserJSON(u) },
		func() ([]byte, error) { return model.EncodeUserXML(u) },
	)
}

// SetEnabled handles PUT /users/{id}/enabled.
func (h *Handler) SetEnabled(w http.ResponseWriter, r *http.Request) {
	req, err := decodeUser(r)
	if err != nil {
		respondFault(w, r, badRequest("malformed enabled request"))
		return
	}
	u, err := h.core.SetEnabled(r.Context(), authToken(r), chi.URLParam(r, "userID"), req.Enabled)
	if err != nil {
		respondFault(w, r, err)
		return
	}
	respond(w, r, http.StatusOK,
		func() ([]byte, error) { return model.EncodeUserJSON(u) },
		func() ([]byte, error) { return model.EncodeUserXML(u) },
	)
}

// SetDefaultTenant handles PUT /users/{id}/tenant.
func (h *Handler) SetDefaultTenant(w http.ResponseWriter, r *http.Request) {
	req, err := decodeUser(r)
	if err != nil {
		respondFault(w, r, badRequest("malformed tenant request"))
		return
	}
	u, err := h.core.SetDefaultTenant(r.Context(), authToken(r), chi.URLParam(r, "userID"), req.TenantID)
	if err != nil {
		respondFault(w, r, err)
		return
	}
	respond(w, r, http.StatusOK,
		func() ([]byte, error) { return model.EncodeUserJSON(u) },
		func() ([]byte, error) { return model.EncodeUserXML(u) },
	)
}

// UserRoles handles GET /users/{id}/roles.
func (h *Handler) UserRoles(w http.ResponseWriter, r *http.Request) {
	marker, limit := pageFromQuery(r)
	userID := chi.URLParam(r, "userID")
	tenantID := r.URL.Query().Get("tenantId")
	grants, err := h.core.RolesForUser(r.Context(), userID, tenantID, store.Page{Marker: marker, Limit: limit})
	if err != nil {
		respondFault(w, r, err)
		return
	}
	names := make(map[string]string, len(grants))
	for _, g := range grants {
		if role, err := h.core.GetRole(r.Context(), g.RoleID); err == nil {
			names[g.RoleID] = role.Name
		}
	}
	respond(w, r, http.StatusOK,
		func() ([]byte, error) { return model.EncodeUserRolesJSON(grants, names, nil) },
		func() ([]byte, error) { return model.EncodeUserRolesXML(grants, names, nil) },
	)
}

// GrantRole handles PUT /users/{user}/roles/OS-KSADM/{role}[/tenant/{tenant}].
func (h *Handler) GrantRole(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	roleID := chi.URLParam(r, "roleID")
	tenantID := chi.URLParam(r, "tenantID")
	if err := h.core.GrantRole(r.Context(), authToken(r), userID, roleID, tenantID); err != nil {
		respondFault(w, r, err)
		return
	}
	respondNoContent(w, http.StatusNoContent)
}

// RevokeRole handles DELETE /users/{user}/roles/OS-KSADM/{role}[/tenant/{tenant}].
func (h *Handler) RevokeRole(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	roleID := chi.URLParam(r, "roleID")
	tenantID := chi.URLParam(r, "tenantID")
	if err := h.core.RevokeRole(r.Context(), authToken(r), userID, roleID, tenantID); err != nil {
		respondFault(w, r, err)
		return
	}
	respondNoContent(w, http.StatusNoContent)
}
