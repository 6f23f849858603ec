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

package identitycore

import (
	"context"
	"testing"

	"github.com/opentrusty/keystone-id/internal/model"
	"github.com/opentrusty/keystone-id/internal/signer"
	"github.com/opentrusty/keystone-id/internal/store"
	"github.com/opentrusty/keystone-id/internal/store/directory"
	"github.com/stretchr/testify/require"
)

// newTestCore builds a Core over a fresh directory backend, seeded with
// the admin and service-admin roles every Core requires at construction,
// and returns the core plus the admin token a test can use as callerToken.
func newTestCore(t *testing.T) (*Core, *store.Store, string) {
	t.Helper()
	ctx := context.Background()
	st := directory.New()

	adminRole := &model.Role{ID: "role-admin", Name: "admin"}
	svcAdminRole := &model.Role{ID: "role-svc-admin", Name: "ServiceAdmin"}
	require.NoError(t, st.Roles.Create(ctx, adminRole))
	require.NoError(t, st.Roles.Create(ctx, svcAdminRole))

	core, err := NewCore(ctx, st, Options{
		AdminRoleName:        "admin",
		ServiceAdminRoleName: "ServiceAdmin",
	})
	require.NoError(t, err)

	hasher := NewPasswordHasher(64*1024, 3, 2, 16, 32)
	hashed, err := hasher.Hash("adminpw")
	require.NoError(t, err)
	admin := &model.User{ID: "admin-1", Name: "root", Password: hashed, Enabled: true}
	require.NoError(t, st.Users.Create(ctx, admin))
	require.NoError(t, st.Grants.Grant(ctx, &model.UserRoleAssociation{UserID: admin.ID, RoleID: adminRole.ID}))

	auth, err := core.PasswordCredentials(ctx, "root", "adminpw", "", "")
	require.NoError(t, err)

	return core, st, auth.Token.ID
}

// TestPurpose: S1 — password auth issues a fresh token scoped to the
// named tenant, and a second identical call within TTL reuses it.
// Scope: identitycore.PasswordCredentials / token reuse (invariant 7)
// Test Case ID: IC-S1
func TestPasswordCredentials_ScenarioS1(t *testing.T) {
	ctx := context.Background()
	core, st, _ := newTestCore(t)

	tenant := &model.Tenant{ID: "t1", Name: "acme", Enabled: true}
	require.NoError(t, st.Tenants.Create(ctx, tenant))

	hasher := NewPasswordHasher(64*1024, 3, 2, 16, 32)
	hashed, err := hasher.Hash("p")
	require.NoError(t, err)
	user := &model.User{ID: "u1", Name: "alice", Password: hashed, Enabled: true, TenantID: "t1"}
	require.NoError(t, st.Users.Create(ctx, user))

	auth, err := core.PasswordCredentials(ctx, "alice", "p", "", "acme")
	require.NoError(t, err)
	require.NotEmpty(t, auth.Token.ID)
	require.Equal(t, "t1", auth.Tenant.ID)
	require.Equal(t, "acme", auth.Tenant.Name)
	require.Equal(t, "u1", auth.User.ID)
	require.Equal(t, "alice", auth.User.Name)

	again, err := core.PasswordCredentials(ctx, "alice", "p", "", "acme")
	require.NoError(t, err)
	require.Equal(t, auth.Token.ID, again.Token.ID)
}

// TestPurpose: S2 — scoping to a tenant name that does not exist is
// reported as unauthorized, never leaking which part of the credential
// pair was wrong.
// Scope: identitycore.PasswordCredentials / resolveRequestedTenant
// Test Case ID: IC-S2
func TestPasswordCredentials_ScenarioS2(t *testing.T) {
	ctx := context.Background()
	core, st, _ := newTestCore(t)

	tenant := &model.Tenant{ID: "t1", Name: "acme", Enabled: true}
	require.NoError(t, st.Tenants.Create(ctx, tenant))

	hasher := NewPasswordHasher(64*1024, 3, 2, 16, 32)
	hashed, err := hasher.Hash("p")
	require.NoError(t, err)
	user := &model.User{ID: "u1", Name: "alice", Password: hashed, Enabled: true, TenantID: "t1"}
	require.NoError(t, st.Users.Create(ctx, user))

	_, err = core.PasswordCredentials(ctx, "alice", "p", "", "other")
	require.Error(t, err)
	f, ok := AsFault(err)
	require.True(t, ok)
	require.Equal(t, KindUnauthorized, f.Kind)
}

// TestPurpose: S4 — a Tenant with a user referencing it as its default
// tenant cannot be deleted.
// Scope: identitycore.DeleteTenant / invariant 4
// Test Case ID: IC-S4
func TestDeleteTenant_ScenarioS4(t *testing.T) {
	ctx := context.Background()
	core, st, adminToken := newTestCore(t)

	tenant := &model.Tenant{ID: "t1", Name: "acme", Enabled: true}
	require.NoError(t, st.Tenants.Create(ctx, tenant))
	user := &model.User{ID: "u1", Name: "alice", Enabled: true, TenantID: "t1"}
	require.NoError(t, st.Users.Create(ctx, user))

	err := core.DeleteTenant(ctx, adminToken, "t1")
	require.Error(t, err)
	f, ok := AsFault(err)
	require.True(t, ok)
	require.Equal(t, KindForbidden, f.Kind)

	_, getErr := core.GetTenant(ctx, "t1")
	require.NoError(t, getErr, "tenant must still exist after the refused delete")
}

// TestPurpose: S5 — deleting a Service cascades to its EndpointTemplates,
// their bound Endpoints, its Roles, and those roles' grants.
// Scope: identitycore.DeleteService / invariant 3
// Test Case ID: IC-S5
func TestDeleteService_ScenarioS5(t *testing.T) {
	ctx := context.Background()
	core, st, adminToken := newTestCore(t)

	tenant := &model.Tenant{ID: "t1", Name: "acme", Enabled: true}
	require.NoError(t, st.Tenants.Create(ctx, tenant))
	user := &model.User{ID: "u1", Name: "alice", Enabled: true}
	require.NoError(t, st.Users.Create(ctx, user))

	svc, err := core.CreateService(ctx, adminToken, &model.Service{Name: "compute", Type: "compute"})
	require.NoError(t, err)

	tmpl, err := core.CreateEndpointTemplate(ctx, adminToken, &model.EndpointTemplate{
		ServiceID: svc.ID, PublicURL: "https://compute.example.com",
	})
	require.NoError(t, err)

	ep, err := core.BindEndpoint(ctx, adminToken, "t1", tmpl.ID)
	require.NoError(t, err)

	role, err := core.CreateRole(ctx, adminToken, &model.Role{Name: svc.Name + ":Admin", ServiceID: svc.ID})
	require.NoError(t, err)
	require.NoError(t, core.GrantRole(ctx, adminToken, "u1", role.ID, ""))

	require.NoError(t, core.DeleteService(ctx, adminToken, svc.ID))

	_, err = core.GetService(ctx, svc.ID)
	requireNotFound(t, err)

	_, err = core.GetEndpointTemplate(ctx, tmpl.ID)
	requireNotFound(t, err)

	_, err = core.GetEndpoint(ctx, ep.ID)
	requireNotFound(t, err)

	_, err = st.Roles.GetByName(ctx, svc.Name+":Admin")
	require.Error(t, err)

	grants, err := core.RolesForUser(ctx, "u1", "", store.Page{Limit: 100})
	require.NoError(t, err)
	for _, g := range grants {
		require.NotEqual(t, role.ID, g.RoleID)
	}
}

// TestPurpose: S6 — EC2 authentication succeeds against a signature
// computed over the un-ported host when the caller transmits a host
// carrying a port (the port-strip fallback, spec §4.3).
// Scope: identitycore.EC2Credentials / signer.Verify integration
// Test Case ID: IC-S6
func TestEC2Credentials_ScenarioS6(t *testing.T) {
	ctx := context.Background()
	core, st, adminToken := newTestCore(t)

	tenant := &model.Tenant{ID: "t1", Name: "acme", Enabled: true}
	require.NoError(t, st.Tenants.Create(ctx, tenant))
	user := &model.User{ID: "u1", Name: "alice", Enabled: true}
	require.NoError(t, st.Users.Create(ctx, user))

	creds, err := core.CreateCredentials(ctx, adminToken, "u1", "t1", model.CredentialTypeEC2)
	require.NoError(t, err)

	req := signer.Request{Verb: "GET", Host: "api.example.com", Path: "/", Params: map[string]string{}}
	signature := signer.Sign(creds.Secret, req)

	transmitted := req
	transmitted.Host = "api.example.com:443"

	auth, err := core.EC2Credentials(ctx, creds.Key, signature, transmitted, true)
	require.NoError(t, err)
	require.Equal(t, "u1", auth.User.ID)
}

func requireNotFound(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	f, ok := AsFault(err)
	require.True(t, ok)
	require.Equal(t, KindNotFound, f.Kind)
}
