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
	"errors"

	"github.com/opentrusty/keystone-id/internal/audit"
	"github.com/opentrusty/keystone-id/internal/id"
	"github.com/opentrusty/keystone-id/internal/model"
	"github.com/opentrusty/keystone-id/internal/store"
)

// requireAdmin validates callerToken and confirms its user holds the
// admin role, returning the acting user for audit attribution.
func (c *Core) requireAdmin(ctx context.Context, callerToken string) (*model.User, error) {
	_, user, err := c.ValidateToken(ctx, callerToken, "")
	if err != nil {
		return nil, err
	}
	ok, err := c.HasRole(ctx, user.ID, c.adminRoleID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fault(KindForbidden, "admin role required")
	}
	return user, nil
}

// requireServiceAdmin validates callerToken and confirms its user holds
// the service-admin role or the admin role.
func (c *Core) requireServiceAdmin(ctx context.Context, callerToken string) (*model.User, error) {
	_, user, err := c.ValidateToken(ctx, callerToken, "")
	if err != nil {
		return nil, err
	}
	ok, err := c.HasServiceAdminRole(ctx, callerToken)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fault(KindForbidden, "service-admin role required")
	}
	return user, nil
}

// CreateTenant creates a Tenant. Admin-only; name must be non-empty and
// unique; id is a fresh UUID (spec §4.4.4).
func (c *Core) CreateTenant(ctx context.Context, callerToken string, in *model.Tenant) (*model.Tenant, error) {
	actor, err := c.requireAdmin(ctx, callerToken)
	if err != nil {
		return nil, err
	}
	if in.Name == "" {
		return nil, fault(KindBadRequest, "tenant name is required")
	}
	t := &model.Tenant{
		ID:          id.NewUUIDv7(),
		Name:        in.Name,
		Description: in.Description,
		Enabled:     in.Enabled,
		Extra:       in.Extra,
	}
	if err := c.store.Tenants.Create(ctx, t); err != nil {
		return nil, mapStoreErr(err, KindInternal, KindConflict, "create tenant")
	}
	c.audit.Log(ctx, audit.Event{Type: audit.TypeTenantCreated, TenantID: t.ID, ActorID: actor.ID, Resource: t.ID})
	return t, nil
}

// GetTenant returns a Tenant by id.
func (c *Core) GetTenant(ctx context.Context, id string) (*model.Tenant, error) {
	t, err := c.store.Tenants.GetByID(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err, KindNotFound, KindInternal, "get tenant")
	}
	return t, nil
}

// ListTenants returns a page of tenants.
func (c *Core) ListTenants(ctx context.Context, p store.Page) ([]*model.Tenant, string, string, error) {
	items, err := c.store.Tenants.GetPage(ctx, p)
	if err != nil {
		return nil, "", "", wrapFault(KindInternal, "list tenants", err)
	}
	prev, next, err := c.store.Tenants.GetPageMarkers(ctx, p)
	if err != nil {
		return nil, "", "", wrapFault(KindInternal, "list tenants", err)
	}
	return items, prev, next, nil
}

// UpdateTenant applies a patch to a Tenant. Admin-only; rename must
// preserve uniqueness (enforced by the repository adapter).
func (c *Core) UpdateTenant(ctx context.Context, callerToken, tenantID string, patch *model.Tenant) (*model.Tenant, error) {
	actor, err := c.requireAdmin(ctx, callerToken)
	if err != nil {
		return nil, err
	}
	t, err := c.store.Tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, mapStoreErr(err, KindNotFound, KindInternal, "get tenant")
	}
	if patch.Name != "" {
		t.Name = patch.Name
	}
	t.Description = patch.Description
	t.Enabled = patch.Enabled
	for k, v := range patch.Extra {
		if t.Extra == nil {
			t.Extra = map[string]any{}
		}
		t.Extra[k] = v
	}
	if err := c.store.Tenants.Update(ctx, t); err != nil {
		return nil, mapStoreErr(err, KindNotFound, KindConflict, "update tenant")
	}
	c.audit.Log(ctx, audit.Event{Type: audit.TypeTenantUpdated, TenantID: t.ID, ActorID: actor.ID, Resource: t.ID})
	return t, nil
}

// DeleteTenant deletes a Tenant. Admin-only; refuses if any user or
// user-role-association references it (spec invariant 3, scenario S4).
func (c *Core) DeleteTenant(ctx context.Context, callerToken, tenantID string) error {
	actor, err := c.requireAdmin(ctx, callerToken)
	if err != nil {
		return err
	}
	hasDefault, err := c.store.Users.ExistsWithDefaultTenant(ctx, tenantID)
	if err != nil {
		return wrapFault(KindInternal, "check tenant users", err)
	}
	if hasDefault {
		return fault(KindForbidden, "tenant is not empty: users reference it")
	}
	grantedUsers, err := c.store.Users.UsersByTenantPage(ctx, tenantID, store.Page{Limit: 1})
	if err != nil {
		return wrapFault(KindInternal, "check tenant grants", err)
	}
	if len(grantedUsers) > 0 {
		return fault(KindForbidden, "tenant is not empty: role grants reference it")
	}

	if err := c.store.Tenants.Delete(ctx, tenantID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fault(KindNotFound, "tenant not found")
		}
		return wrapFault(KindInternal, "delete tenant", err)
	}
	c.audit.Log(ctx, audit.Event{Type: audit.TypeTenantDeleted, TenantID: tenantID, ActorID: actor.ID, Resource: tenantID})
	return nil
}

// UsersByTenant lists the users holding any role grant within a tenant
// (GET /tenants/{id}/users).
func (c *Core) UsersByTenant(ctx context.Context, tenantID string, p store.Page) ([]*model.User, error) {
	items, err := c.store.Users.UsersByTenantPage(ctx, tenantID, p)
	if err != nil {
		return nil, wrapFault(KindInternal, "list tenant users", err)
	}
	return items, nil
}
