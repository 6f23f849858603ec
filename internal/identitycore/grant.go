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

	"github.com/opentrusty/keystone-id/internal/audit"
	"github.com/opentrusty/keystone-id/internal/model"
)

// GrantRole grants roleID to userID, globally or scoped to tenantID ("" for
// global). Service-admin; the (user, role, tenant) tuple must not already
// exist (spec §4.4.4; a repeat grant surfaces as a conflict).
func (c *Core) GrantRole(ctx context.Context, callerToken, userID, roleID, tenantID string) error {
	actor, err := c.requireServiceAdmin(ctx, callerToken)
	if err != nil {
		return err
	}
	if _, err := c.store.Users.GetByID(ctx, userID); err != nil {
		return mapStoreErr(err, KindNotFound, KindInternal, "get user")
	}
	if _, err := c.store.Roles.GetByID(ctx, roleID); err != nil {
		return mapStoreErr(err, KindNotFound, KindInternal, "get role")
	}
	if tenantID != "" {
		if _, err := c.store.Tenants.GetByID(ctx, tenantID); err != nil {
			return mapStoreErr(err, KindNotFound, KindInternal, "get tenant")
		}
	}
	a := &model.UserRoleAssociation{UserID: userID, RoleID: roleID, TenantID: tenantID}
	if err := c.store.Grants.Grant(ctx, a); err != nil {
		return mapStoreErr(err, KindInternal, KindConflict, "grant role")
	}
	c.audit.Log(ctx, audit.Event{Type: audit.TypeGrantCreated, TenantID: tenantID, ActorID: actor.ID, Resource: roleID})
	return nil
}

// RevokeRole revokes a previously-granted (userID, roleID, tenantID) tuple.
// Service-admin.
func (c *Core) RevokeRole(ctx context.Context, callerToken, userID, roleID, tenantID string) error {
	actor, err := c.requireServiceAdmin(ctx, callerToken)
	if err != nil {
		return err
	}
	if err := c.store.Grants.Revoke(ctx, userID, roleID, tenantID); err != nil {
		return mapStoreErr(err, KindNotFound, KindInternal, "revoke role")
	}
	c.audit.Log(ctx, audit.Event{Type: audit.TypeGrantRevoked, TenantID: tenantID, ActorID: actor.ID, Resource: roleID})
	return nil
}
