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

func decodeService(r *http.Request) (*model.Service, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, err
	}
	if requestFormat(r) == contentXML {
		return model.DecodeServiceXML(data)
	}
	return model.DecodeServiceJSON(data)
}

// ListServices handles GET /OS-KSADM/services.
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	marker, limit := pageFromQuery(r)
	items, prev, next, err := h.core.ListServices(r.Context(), store.Page{Marker: marker, Limit: limit})
	if err != nil {
		respondFault(w, r, err)
		return
	}
	links := paging.Links(baseURL(r), prev, next, limit)
	respond(w, r, http.StatusOK,
		func() ([]byte, error) { return model.EncodeServicesJSON(items, links) },
		func() ([]byte, error) { return model.EncodeServicesXML(items, links) },
	)
}

// CreateService handles POST /OS-KSADM/services.
func (h *Handler) CreateService(w http.ResponseWriter, r *http.Request) {
	in, err := decodeService(r)
	if err != nil {
		respondFault(w, r, badRequest("malformed service"))
		return
	}
	svc, err := h.core.CreateService(r.Context(), authToken(r), in)
	if err != nil {
		respondFault(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated,
		func() ([]byte, error) { return model.EncodeServiceJSON(svc) },
		func() ([]byte, error) { return model.EncodeServiceXML(svc) },
	)
}

// GetService handles GET /OS-KSADM/services/{id}.
func (h *Handler) GetService(w http.ResponseWriter, r *http.Request) {
	svc, err := h.core.GetService(r.Context(), chi.URLParam(r, "serviceID"))
	if err != nil {
		respondFault(w, r, err)
		return
	}
	respond(w, r, http.StatusOK,
		func() ([]byte, error) { return model.EncodeServiceJSON(svc) },
		func() ([]byte, error) { return model.EncodeServiceXML(svc) },
	)
}

// DeleteService handles DELETE /OS-KSADM/services/{id}.
func (h *Handler) DeleteService(w http.ResponseWriter, r *http.Request) {
	if err := h.core.DeleteService(r.Context(), authToken(r), chi.URLParam(r, "serviceID")); err != nil {
		respondFault(w, r, err)
		return
	}
	respondNoContent(w, http.StatusNoContent)
}
