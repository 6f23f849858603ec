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
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/opentrusty/keystone-id/internal/identitycore"
	"github.com/opentrusty/keystone-id/internal/model"
	"github.com/opentrusty/keystone-id/internal/store/directory"
	"github.com/stretchr/testify/require"
)

// newTestHandler builds a Handler over a real Core on the directory
// backend, seeded with the admin role and an admin user, and returns the
// handler plus the admin's auth token for use as X-Auth-Token.
func newTestHandler(t *testing.T) (*Handler, string) {
	t.Helper()
	ctx := context.Background()
	st := directory.New()

	adminRole := &model.Role{ID: "role-admin", Name: "admin"}
	svcAdminRole := &model.Role{ID: "role-svc-admin", Name: "ServiceAdmin"}
	require.NoError(t, st.Roles.Create(ctx, adminRole))
	require.NoError(t, st.Roles.Create(ctx, svcAdminRole))

	core, err := identitycore.NewCore(ctx, st, identitycore.Options{
		AdminRoleName:        "admin",
		ServiceAdminRoleName: "ServiceAdmin",
	})
	require.NoError(t, err)

	hasher := identitycore.NewPasswordHasher(64*1024, 3, 2, 16, 32)
	hashed, err := hasher.Hash("adminpw")
	require.NoError(t, err)
	admin := &model.User{ID: "admin-1", Name: "root", Password: hashed, Enabled: true}
	require.NoError(t, st.Users.Create(ctx, admin))
	require.NoError(t, st.Grants.Grant(ctx, &model.UserRoleAssociation{UserID: admin.ID, RoleID: adminRole.ID}))

	auth, err := core.PasswordCredentials(ctx, "root", "adminpw", "", "")
	require.NoError(t, err)

	return NewHandler(core), auth.Token.ID
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// TestPurpose: HealthCheck reports liveness without touching the store.
// Scope: Handler.HealthCheck
// Test Case ID: HTTP-01
func TestHealthCheck(t *testing.T) {
	h, _ := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	h.HealthCheck(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "healthy")
}

// TestPurpose: creating a tenant without a caller token is rejected with
// the uniform JSON fault envelope (spec §7), not a bare 500.
// Scope: Handler.CreateTenant / respondFault
// Test Case ID: HTTP-02
func TestCreateTenant_NoToken_Unauthorized(t *testing.T) {
	h, _ := newTestHandler(t)
	body, _ := json.Marshal(map[string]any{"tenant": map[string]any{"name": "acme", "enabled": true}})
	req := httptest.NewRequest(http.MethodPost, "/v2.0/tenants", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	h.CreateTenant(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	var fault jsonFault
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fault))
	require.NotEmpty(t, fault.Error.Message)
}

// TestPurpose: an admin-bearing caller can create and then fetch a tenant
// through the HTTP layer, with the JSON envelope round-tripping id/name.
// Scope: Handler.CreateTenant, Handler.GetTenant
// Test Case ID: HTTP-03
func TestCreateAndGetTenant(t *testing.T) {
	h, adminToken := newTestHandler(t)

	body, _ := json.Marshal(map[string]any{"tenant": map[string]any{"name": "acme", "enabled": true}})
	req := httptest.NewRequest(http.MethodPost, "/v2.0/tenants", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Auth-Token", adminToken)
	w := httptest.NewRecorder()

	h.CreateTenant(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Tenant model.Tenant `json:"tenant"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Equal(t, "acme", created.Tenant.Name)
	require.NotEmpty(t, created.Tenant.ID)

	getReq := httptest.NewRequest(http.MethodGet, "/v2.0/tenants/"+created.Tenant.ID, nil)
	getReq = withURLParam(getReq, "tenantID", created.Tenant.ID)
	getW := httptest.NewRecorder()

	h.GetTenant(getW, getReq)
	require.Equal(t, http.StatusOK, getW.Code)

	var fetched struct {
		Tenant model.Tenant `json:"tenant"`
	}
	require.NoError(t, json.Unmarshal(getW.Body.Bytes(), &fetched))
	require.Equal(t, created.Tenant.ID, fetched.Tenant.ID)
	require.Equal(t, "acme", fetched.Tenant.Name)
}

// TestPurpose: fetching a tenant that does not exist renders a 404 fault
// envelope rather than a panic or a bare empty body.
// Scope: Handler.GetTenant / respondFault / faultKindStatus
// Test Case ID: HTTP-04
func TestGetTenant_NotFound(t *testing.T) {
	h, _ := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/v2.0/tenants/does-not-exist", nil)
	req = withURLParam(req, "tenantID", "does-not-exist")
	w := httptest.NewRecorder()

	h.GetTenant(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
	var fault jsonFault
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fault))
	require.Equal(t, http.StatusNotFound, fault.Error.Code)
}

// TestPurpose: S1 exercised through the transport layer — posting valid
// password credentials to /v2.0/tokens returns a token envelope with a
// non-empty token id.
// Scope: Handler.Authenticate
// Test Case ID: HTTP-05
func TestAuthenticate_PasswordCredentials(t *testing.T) {
	h, _ := newTestHandler(t)

	body, _ := json.Marshal(map[string]any{
		"auth": map[string]any{
			"passwordCredentials": map[string]any{
				"username": "root",
				"password": "adminpw",
			},
		},
	})
	req := httptest.NewRequest(http.MethodPost, "/v2.0/tokens", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	h.Authenticate(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Access struct {
			Token struct {
				ID string `json:"id"`
			} `json:"token"`
		} `json:"access"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Access.Token.ID)
}
