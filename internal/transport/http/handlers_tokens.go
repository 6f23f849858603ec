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
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/opentrusty/keystone-id/internal/identitycore"
	"github.com/opentrusty/keystone-id/internal/model"
	"github.com/opentrusty/keystone-id/internal/signer"
)

// authRequest is the POST /tokens body (spec §4.4.1): exactly one of
// PasswordCredentials, Token or EC2Credentials is set. No XML codec exists
// for this envelope — the model package only defines wire codecs for
// entity records, and every real Keystone client authenticates with JSON
// (recorded in DESIGN.md) — so this endpoint accepts application/json
// only.
type authRequest struct {
	Auth struct {
		PasswordCredentials *struct {
			Username string `json:"username"`
			Password string `json:"password"`
		} `json:"passwordCredentials"`
		Token *struct {
			ID string `json:"id"`
		} `json:"token"`
		EC2Credentials *struct {
			Access         string            `json:"access"`
			Signature      string            `json:"signature"`
			Verb           string            `json:"verb"`
			Host           string            `json:"host"`
			Path           string            `json:"path"`
			Params         map[string]string `json:"params"`
			AllowPortStrip bool              `json:"allowPortStrip"`
		} `json:"ec2Credentials"`
		TenantID   string `json:"tenantId"`
		TenantName string `json:"tenantName"`
	} `json:"auth"`
}

// Authenticate handles POST /tokens (spec §4.4.1's three flows).
// @Summary Issue a token
// @Description Authenticates with password credentials, an existing token, or EC2 credentials and returns a scoped or unscoped token
// @Tags Tokens
// @Accept json
// @Produce json
// @Param request body authRequest true "Authentication request"
// @Success 200 {object} model.AuthResponse
// @Failure 400 {object} identitycore.Fault
// @Failure 401 {object} identitycore.Fault
// @Router /tokens [post]
func (h *Handler) Authenticate(w http.ResponseWriter, r *http.Request) {
	data, err := readAll(r)
	if err != nil {
		respondFault(w, r, badRequest("read request body"))
		return
	}
	var req authRequest
	if err := json.Unmarshal(data, &req); err != nil {
		respondFault(w, r, badRequest("malformed auth request"))
		return
	}

	var auth *identitycore.AuthData
	switch {
	case req.Auth.PasswordCredentials != nil:
		auth, err = h.core.PasswordCredentials(r.Context(),
			req.Auth.PasswordCredentials.Username, req.Auth.PasswordCredentials.Password,
			req.Auth.TenantID, req.Auth.TenantName)
	case req.Auth.Token != nil:
		auth, err = h.core.UnscopedToken(r.Context(), req.Auth.Token.ID, req.Auth.TenantID, req.Auth.TenantName)
	case req.Auth.EC2Credentials != nil:
		ec2 := req.Auth.EC2Credentials
		auth, err = h.core.EC2Credentials(r.Context(), ec2.Access, ec2.Signature, signer.Request{
			Verb: ec2.Verb, Host: ec2.Host, Path: ec2.Path, Params: ec2.Params,
		}, ec2.AllowPortStrip)
	default:
		respondFault(w, r, badRequest("auth requires passwordCredentials, token or ec2Credentials"))
		return
	}
	if err != nil {
		respondFault(w, r, err)
		return
	}

	resp := authResponse(auth)
	respond(w, r, http.StatusOK,
		func() ([]byte, error) { return model.EncodeAuthResponseJSON(resp) },
		func() ([]byte, error) { return model.EncodeAuthResponseXML(resp) },
	)
}

// ValidateToken handles GET /tokens/{id} (admin-privileged: a caller
// validates someone else's token by presenting its own admin token in
// X-Auth-Token).
func (h *Handler) ValidateToken(w http.ResponseWriter, r *http.Request) {
	if ok, err := h.core.HasAdminRole(r.Context(), authToken(r)); err != nil {
		respondFault(w, r, err)
		return
	} else if !ok {
		respondFault(w, r, forbidden("admin role required"))
		return
	}

	tokenID := chi.URLParam(r, "tokenID")
	belongsTo := r.URL.Query().Get("belongsTo")
	tok, user, err := h.core.ValidateToken(r.Context(), tokenID, belongsTo)
	if err != nil {
		respondFault(w, r, err)
		return
	}
	resp := h.tokenAuthResponse(r, tok, user)
	respond(w, r, http.StatusOK,
		func() ([]byte, error) { return model.EncodeAuthResponseJSON(resp) },
		func() ([]byte, error) { return model.EncodeAuthResponseXML(resp) },
	)
}

// CheckToken handles HEAD /tokens/{id}: same as ValidateToken but a
// not-found result (rather than unauthorized) avoids leaking whether an
// unknown token ever existed (spec §4.4.2).
func (h *Handler) CheckToken(w http.ResponseWriter, r *http.Request) {
	if ok, err := h.core.HasAdminRole(r.Context(), authToken(r)); err != nil {
		respondFault(w, r, err)
		return
	} else if !ok {
		respondFault(w, r, forbidden("admin role required"))
		return
	}
	tokenID := chi.URLParam(r, "tokenID")
	belongsTo := r.URL.Query().Get("belongsTo")
	if _, _, err := h.core.CheckToken(r.Context(), tokenID, belongsTo); err != nil {
		respondFault(w, r, err)
		return
	}
	respondNoContent(w, http.StatusOK)
}

// RevokeToken handles DELETE /tokens/{id}.
func (h *Handler) RevokeToken(w http.ResponseWriter, r *http.Request) {
	if ok, err := h.core.HasAdminRole(r.Context(), authToken(r)); err != nil {
		respondFault(w, r, err)
		return
	} else if !ok {
		respondFault(w, r, forbidden("admin role required"))
		return
	}
	tokenID := chi.URLParam(r, "tokenID")
	if err := h.core.RevokeToken(r.Context(), authToken(r), tokenID); err != nil {
		respondFault(w, r, err)
		return
	}
	respondNoContent(w, http.StatusNoContent)
}

// TokenEndpoints handles GET /tokens/{id}/endpoints (spec §4.4.5).
func (h *Handler) TokenEndpoints(w http.ResponseWriter, r *http.Request) {
	tokenID := chi.URLParam(r, "tokenID")
	entries, err := h.core.EndpointsForToken(r.Context(), tokenID)
	if err != nil {
		respondFault(w, r, err)
		return
	}
	respond(w, r, http.StatusOK,
		func() ([]byte, error) { return model.EncodeCatalogJSON(entries) },
		func() ([]byte, error) { return model.EncodeCatalogXML(entries) },
	)
}

// authResponse renders an AuthData as the wire AuthResponse shape.
func authResponse(a *identitycore.AuthData) *model.AuthResponse {
	roles := make([]string, 0, len(a.Roles))
	for _, r := range a.Roles {
		roles = append(roles, r.Name)
	}
	return &model.AuthResponse{Token: a.Token, Tenant: a.Tenant, User: a.User, Roles: roles, Catalog: a.Catalog}
}

// tokenAuthResponse assembles the AuthResponse shape for a validated token
// (GET /tokens/{id}) from its constituent lookups.
func (h *Handler) tokenAuthResponse(r *http.Request, tok *model.Token, user *model.User) *model.AuthResponse {
	resp := &model.AuthResponse{Token: tok, User: user}
	roles, err := h.core.RolesInScope(r.Context(), user.ID, tok.TenantID)
	if err == nil {
		for _, role := range roles {
			resp.Roles = append(resp.Roles, role.Name)
		}
	}
	if tok.TenantID != "" {
		if tenant, err := h.core.GetTenant(r.Context(), tok.TenantID); err == nil {
			resp.Tenant = tenant
		}
	}
	if entries, err := h.core.EndpointsForToken(r.Context(), tok.ID); err == nil {
		resp.Catalog = entries
	}
	return resp
}
