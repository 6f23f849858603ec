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

func decodeRole(r *http.Request) (*model.Role, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, err
	}
	if requestFormat(r) == contentXML {
		return model.DecodeRoleXML(data)
	}
	return model.DecodeRoleJSON(data)
}

// ListRoles handles GET /OS-KSADM/roles, optionally filtered by ?serviceId=.
func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	marker, limit := pageFromQuery(r)
	serviceID := r.URL.Query().Get("serviceId")
	items, prev, next, err := h.core.ListRoles(r.Context(), serviceID, store.Page{Marker: marker, Limit: limit})
	if err != nil {
		respondFault(w, r, err)
		return
	}
	links := paging.Links(baseURL(r), prev, next, limit)
	respond(w, r, http.StatusOK,
		func() ([]byte, error) { return model.EncodeRolesJSON(items, links) },
		func() ([]byte, error) { return model.EncodeRolesXML(items, links) },
	)
}

// CreateRole handles POST /OS-KSADM/roles.
// @Summary Create a role
// @Tags Roles
// @Accept json
// @Produce json
// @Param request body model.Role true "Role"
// @Success 201 {object} model.Role
// @Failure 403 {object} identitycore.Fault
// @Router /OS-KSADM/roles [post]
func (h *Handler) CreateRole(w http.ResponseWriter, r *http.Request) {
	in, err := decodeRole(r)
	if err != nil {
		respondFault(w, r, badRequest("malformed role"))
		return
	}
	role, err := h.core.CreateRole(r.Context(), authToken(r), in)
	if err != nil {
		respondFault(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated,
		func() ([]byte, error) { return model.EncodeRoleJSON(role) },
		func() ([]byte, error) { return model.EncodeRoleXML(role) },
	)
}

// GetRole handles GET /OS-KSADM/roles/{id}.
func (h *Handler) GetRole(w http.ResponseWriter, r *http.Request) {
	role, err := h.core.GetRole(r.Context(), chi.URLParam(r, "roleID"))
	if err != nil {
		respondFault(w, r, err)
		return
	}
	respond(w, r, http.StatusOK,
		func() ([]byte, error) { return model.EncodeRoleJSON(role) },
		func() ([]byte, error) { return model.EncodeRoleXML(role) },
	)
}

// DeleteRole handles DELETE /OS-KSADM/roles/{id}.
func (h *Handler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	if err := h.core.DeleteRole(r.Context(), authToken(r), chi.URLParam(r, "roleID")); err != nil {
		respondFault(w, r, err)
		return
	}
	respondNoContent(w, http.StatusNoContent)
}
