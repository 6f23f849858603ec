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
	"github.com/opentrusty/keystone-id/internal/store"
)

// ListCredentials handles GET /users/{id}/OS-KSADM/credentials.
func (h *Handler) ListCredentials(w http.ResponseWriter, r *http.Request) {
	marker, limit := pageFromQuery(r)
	userID := chi.URLParam(r, "userID")
	items, err := h.core.ListCredentialsForUser(r.Context(), authToken(r), userID, store.Page{Marker: marker, Limit: limit})
	if err != nil {
		respondFault(w, r, err)
		return
	}
	respond(w, r, http.StatusOK,
		func() ([]byte, error) { return model.EncodeCredentialsListJSON(items, nil) },
		func() ([]byte, error) { return model.EncodeCredentialsListXML(items, nil) },
	)
}

// CreateCredentials handles POST /users/{id}/OS-KSADM/credentials. Key and
// secret are generated server-side; the body only supplies tenantId and
// type.
func (h *Handler) CreateCredentials(w http.ResponseWriter, r *http.Request) {
	data, err := readAll(r)
	if err != nil {
		respondFault(w, r, badRequest("read request body"))
		return
	}
	var in *model.Credentials
	if requestFormat(r) == contentXML {
		in, err = model.DecodeCredentialsXML(data)
	} else {
		in, err = model.DecodeCredentialsJSON(data)
	}
	if err != nil {
		respondFault(w, r, badRequest("malformed credentials"))
		return
	}
	userID := chi.URLParam(r, "userID")
	cr, err := h.core.CreateCredentials(r.Context(), authToken(r), userID, in.TenantID, in.Type)
	if err != nil {
		respondFault(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated,
		func() ([]byte, error) { return model.EncodeCredentialsJSON(cr) },
		func() ([]byte, error) { return model.EncodeCredentialsXML(cr) },
	)
}

// GetCredentials handles GET /users/{id}/OS-KSADM/credentials/{credentialsID}.
// The secret is only ever rendered at creation time (spec §4.4.4); a fetched
// record has it stripped before encoding.
func (h *Handler) GetCredentials(w http.ResponseWriter, r *http.Request) {
	cr, err := h.core.GetCredentials(r.Context(), authToken(r), chi.URLParam(r, "credentialsID"))
	if err != nil {
		respondFault(w, r, err)
		return
	}
	stripped := *cr
	stripped.Secret = ""
	respond(w, r, http.StatusOK,
		func() ([]byte, error) { return model.EncodeCredentialsJSON(&stripped) },
		func() ([]byte, error) { return model.EncodeCredentialsXML(&stripped) },
	)
}

// DeleteCredentials handles DELETE /users/{id}/OS-KSADM/credentials/{credentialsID}.
func (h *Handler) DeleteCredentials(w http.ResponseWriter, r *http.Request) {
	if err := h.core.DeleteCredentials(r.Context(), authToken(r), chi.URLParam(r, "credentialsID")); err != nil {
		respondFault(w, r, err)
		return
	}
	respondNoContent(w, http.StatusNoContent)
}
