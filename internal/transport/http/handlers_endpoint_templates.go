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

func decodeEndpointTemplate(r *http.Request) (*model.EndpointTemplate, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, err
	}
	if requestFormat(r) == contentXML {
		return model.DecodeEndpointTemplateXML(data)
	}
	return model.DecodeEndpointTemplateJSON(data)
}

// ListEndpointTemplates handles GET /OS-KSCATALOG/endpointTemplates,
// optionally filtered by ?serviceId=.
func (h *Handler) ListEndpointTemplates(w http.ResponseWriter, r *http.Request) {
	marker, limit := pageFromQuery(r)
	serviceID := r.URL.Query().Get("serviceId")
	items, prev, next, err := h.core.ListEndpointTemplates(r.Context(), serviceID, store.Page{Marker: marker, Limit: limit})
	if err != nil {
		respondFault(w, r, err)
		return
	}
	links := paging.Links(baseURL(r), prev, next, limit)
	respond(w, r, http.StatusOK,
		func() ([]byte, error) { return model.EncodeEndpointTemplatesJSON(items, links) },
		func() ([]byte, error) { return model.EncodeEndpointTemplatesXML(items, links) },
	)
}

// CreateEndpointTemplate handles POST /OS-KSCATALOG/endpointTemplates.
func (h *Handler) CreateEndpointTemplate(w http.ResponseWriter, r *http.Request) {
	in, err := decodeEndpointTemplate(r)
	if err != nil {
		respondFault(w, r, badRequest("malformed endpoint template"))
		return
	}
	tmpl, err := h.core.CreateEndpointTemplate(r.Context(), authToken(r), in)
	if err != nil {
		respondFault(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated,
		func() ([]byte, error) { return model.EncodeEndpointTemplateJSON(tmpl) },
		func() ([]byte, error) { return model.EncodeEndpointTemplateXML(tmpl) },
	)
}

// GetEndpointTemplate handles GET /OS-KSCATALOG/endpointTemplates/{id}.
func (h *Handler) GetEndpointTemplate(w http.ResponseWriter, r *http.Request) {
	tmpl, err := h.core.GetEndpointTemplate(r.Context(), chi.URLParam(r, "templateID"))
	if err != nil {
		respondFault(w, r, err)
		return
	}
	respond(w, r, http.StatusOK,
		func() ([]byte, error) { return model.EncodeEndpointTemplateJSON(tmpl) },
		func() ([]byte, error) { return model.EncodeEndpointTemplateXML(tmpl) },
	)
}

// UpdateEndpointTemplate handles PUT /OS-KSCATALOG/endpointTemplates/{id}.
func (h *Handler) UpdateEndpointTemplate(w http.ResponseWriter, r *http.Request) {
	patch, err := decodeEndpointTemplate(r)
	if err != nil {
		respondFault(w, r, badRequest("malformed endpoint template"))
		return
	}
	tmpl, err := h.core.UpdateEndpointTemplate(r.Context(), authToken(r), chi.URLParam(r, "templateID"), patch)
	if err != nil {
		respondFault(w, r, err)
		return
	}
	respond(w, r, http.StatusOK,
		func() ([]byte, error) { return model.EncodeEndpointTemplateJSON(tmpl) },
		func() ([]byte, error) { return model.EncodeEndpointTemplateXML(tmpl) },
	)
}

// DeleteEndpointTemplate handles DELETE /OS-KSCATALOG/endpointTemplates/{id}.
func (h *Handler) DeleteEndpointTemplate(w http.ResponseWriter, r *http.Request) {
	if err := h.core.DeleteEndpointTemplate(r.Context(), authToken(r), chi.URLParam(r, "templateID")); err != nil {
		respondFault(w, r, err)
		return
	}
	respondNoContent(w, http.StatusNoContent)
}
