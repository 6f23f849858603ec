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

package authtoken

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/opentrusty/keystone-id/internal/identitycore"
	"github.com/opentrusty/keystone-id/internal/model"
	"github.com/opentrusty/keystone-id/internal/store/directory"
	"github.com/stretchr/testify/require"
)

// TestPurpose: End-to-end S3 scenario — a valid token for a tenant-scoped
// user decorates the downstream request with the exact header set the
// spec enumerates, driven by a real identitycore.Core over the directory
// adapter rather than a fake validator.
// Scope: Middleware/core integration test
// Security: Downstream identity propagation (CWE-290 adjacent)
// Expect: X-Identity-Status: Confirmed, X-Tenant-Id: t1, X-Tenant-Name:
// acme, X-User-Id: u1, X-User-Name: alice, X-Roles: Member.
// Test Case ID: MW-S3
// Metadata:
//   - Category: Middleware
//   - Priority: High
//   - Tags: scenario, end-to-end
func TestEmbeddedValidator_ScenarioS3(t *testing.T) {
	ctx := context.Background()
	st := directory.New()

	memberRole := &model.Role{ID: "role-member", Name: "Member"}
	adminRole := &model.Role{ID: "role-admin", Name: "admin"}
	svcAdminRole := &model.Role{ID: "role-svc-admin", Name: "ServiceAdmin"}
	require.NoError(t, st.Roles.Create(ctx, memberRole))
	require.NoError(t, st.Roles.Create(ctx, adminRole))
	require.NoError(t, st.Roles.Create(ctx, svcAdminRole))

	core, err := identitycore.NewCore(ctx, st, identitycore.Options{
		AdminRoleName:        "admin",
		ServiceAdminRoleName: "ServiceAdmin",
	})
	require.NoError(t, err)

	tenant := &model.Tenant{ID: "t1", Name: "acme", Enabled: true}
	require.NoError(t, st.Tenants.Create(ctx, tenant))

	hasher := identitycore.NewPasswordHasher(64*1024, 3, 2, 16, 32)
	hashed, err := hasher.Hash("p")
	require.NoError(t, err)
	user := &model.User{ID: "u1", Name: "alice", Password: hashed, Enabled: true}
	require.NoError(t, st.Users.Create(ctx, user))
	require.NoError(t, st.Grants.Grant(ctx, &model.UserRoleAssociation{UserID: "u1", RoleID: "role-member", TenantID: "t1"}))

	auth, err := core.PasswordCredentials(ctx, "alice", "p", "", "acme")
	require.NoError(t, err)
	require.Equal(t, "t1", auth.Token.TenantID)

	mw := New(Config{Validator: NewEmbeddedValidator(core), AuthURI: "https://auth.example.com"})

	var captured http.Header
	handler := mw.Handler(capturingHandler(&captured))

	req := httptest.NewRequest(http.MethodGet, "/whatever", nil)
	req.Header.Set("X-Auth-Token", auth.Token.ID)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Confirmed", captured.Get("X-Identity-Status"))
	require.Equal(t, "t1", captured.Get("X-Tenant-Id"))
	require.Equal(t, "acme", captured.Get("X-Tenant-Name"))
	require.Equal(t, "u1", captured.Get("X-User-Id"))
	require.Equal(t, "alice", captured.Get("X-User-Name"))
	require.Equal(t, "Member", captured.Get("X-Roles"))
}
