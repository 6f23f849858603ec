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

func decodeTenant(r *http.Request) (*model.Tenant, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, err
	}
	if requestFormat(r) == contentXML {
		return model.DecodeTenantXML(data)
	}
	return model.DecodeTenantJSON(data)
}

// ListTenants handles GET /tenants.
// @Summary List tenants
// @Description Lists tenants visible to the caller, paginated by marker/limit
// @Tags Tenants
// @Produce json
// @Param marker query string false "Pagination marker"
// @Param limit query int false "Page size"
// @Success 200 {object} map[string]any
// @Router /tenants [get]
func (h *Handler) ListTenants(w http.ResponseWriter, r *http.Request) {
	marker, limit := pageFromQuery(r)
	items, prev, next, err := h.core.ListTenants(r.Context(), store.Page{Marker: marker, Limit: limit})
	if err != nil {
		respondFault(w, r, err)
		return
	}
	links := paging.Links(baseURL(r), prev, next, limit)
	respond(w, r, http.StatusOK,
		func() ([]byte, error) { return model.EncodeTenantsJSON(items, links) },
		func() ([]byte, error) { return model.EncodeTenantsXML(items, links) },
	)
}

// CreateTenant handles POST /tenants.
// @Summary Create a tenant
// @Description Creates a new tenant (project). Requires the admin role.
// @Tags Tenants
// @Accept json
// @Produce json
// @Param request body model.Tenant true "Tenant"
// @Success 201 {object} model.Tenant
// @Failure 400 {object} identitycore.Fault
// @Failure 403 {object} identitycore.Fault
// @Router /tenants [post]
func (h *Handler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	in, err := decodeTenant(r)
	if err != nil {
		respondFault(w, r, badRequest("malformed tenant"))
		return
	}
	t, err := h.core.CreateTenant(r.Context(), authToken(r), in)
	if err != nil {
		respondFault(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated,
		func() ([]byte, error) { return model.EncodeTenantJSON(t) },
		func() ([]byte, error) { return model.EncodeTenantXML(t) },
	)
}

// GetTenant handles GET /tenants/{id}.
// @Summary Get a tenant
// @Tags Tenants
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Success 200 {object} model.Tenant
// @Failure 404 {object} identitycore.Fault
// @Router /tenants/{tenantID} [get]
func (h *Handler) GetTenant(w http.ResponseWriter, r *http.Request) {
	t, err := h.core.GetTenant(r.Context(), chi.URLParam(r, "tenantID"))
	if err != nil {
		respondFault(w, r, err)
		return
	}
	respond(w, r, http.StatusOK,
		func() ([]byte, error) { return model.EncodeTenantJSON(t) },
		func() ([]byte, error) { return model.EncodeTenantXML(t) },
	)
}

// UpdateTenant handles PUT /tenants/{id}.
func (h *Handler) UpdateTenant(w http.ResponseWriter, r *http.Request) {
	patch, err := decodeTenant(r)
	if err != nil {
		respondFault(w, r, badRequest("malformed tenant"))
		return
	}
	t, err := h.core.UpdateTenant(r.Context(), authToken(r), chi.URLParam(r, "tenantID"), patch)
	if err != nil {
		respondFault(w, r, err)
		return
	}
	respond(w, r, http.StatusOK,
		func() ([]byte, error) { return model.EncodeTenantJSON(t) },
		func() ([]byte, error) { return model.EncodeTenantXML(t) },
	)
}

// DeleteTenant handles DELETE /tenants/{id}.
func (h *Handler) DeleteTenant(w http.ResponseWriter, r *http.Request) {
	if err := h.core.DeleteTenant(r.Context(), authToken(r), chi.URLParam(r, "tenantID")); err != nil {
		respondFault(w, r, err)
		return
	}
	respondNoContent(w, http.StatusNoContent)
}

// TenantUsers handles GET /tenants/{id}/users.
func (h *Handler) TenantUsers(w http.ResponseWriter, r *http.Request) {
	marker, limit := pageFromQuery(r)
	items, err := h.core.UsersByTenant(r.Context(), chi.URLParam(r, "tenantID"), store.Page{Marker: marker, Limit: limit})
	if err != nil {
		respondFault(w, r, err)
		return
	}
	respond(w, r, http.StatusOK,
		func() ([]byte, error) { return model.EncodeUsersJSON(items, nil) },
		func() ([]byte, error) { return model.EncodeUsersXML(items, nil) },
	)
}

// TenantEndpoints handles GET /tenants/{id}/OS-KSCATALOG/endpoints.
func (h *Handler) TenantEndpoints(w http.ResponseWriter, r *http.Request) {
	marker, limit := pageFromQuery(r)
	items, err := h.core.EndpointsForTenant(r.Context(), chi.URLParam(r, "tenantID"), store.Page{Marker: marker, Limit: limit})
	if err != nil {
		respondFault(w, r, err)
		return
	}
	respond(w, r, http.StatusOK,
		func() ([]byte, error) { return model.EncodeEndpointsJSON(items, nil) },
		func() ([]byte, error) { return model.EncodeEndpointsXML(items, nil) },
	)
}

// BindEndpoint handles POST /tenants/{id}/OS-KSCATALOG/endpoints.
func (h *Handler) BindEndpoint(w http.ResponseWriter, r *http.Request) {
	data, err := readAll(r)
	if err != nil {
		respondFault(w, r, badRequest("read request body"))
		return
	}
	var in *model.Endpoint
	if requestFormat(r) == contentXML {
		in, err = model.DecodeEndpointXML(data)
	} else {
		in, err = model.DecodeEndpointJSON(data)
	}
	if err != nil {
		respondFault(w, r, badRequest("malformed endpoint"))
		return
	}
	ep, err := h.core.BindEndpoint(r.Context(), authToken(r), chi.URLParam(r, "tenantID"), in.EndpointTemplateID)
	if err != nil {
		respondFault(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated,
		func() ([]byte, error) { return model.EncodeEndpointJSON(ep) },
		func() ([]byte, error) { return model.EncodeEndpointXML(ep) },
	)
}

// UnbindEndpoint handles DELETE /tenants/{id}/OS-KSCATALOG/endpoints/{endpointID}.
func (h *Handler) UnbindEndpoint(w http.ResponseWriter, r *http.Request) {
	if err := h.core.UnbindEndpoint(r.Context(), authToken(r), chi.URLParam(r, "endpointID")); err != nil {
		respondFault(w, r, err)
		return
	}
	respondNoContent(w, http.StatusNoContent)
}
