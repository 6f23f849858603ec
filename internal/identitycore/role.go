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
	"strings"

	"github.com/opentrusty/keystone-id/internal/audit"
	"github.com/opentrusty/keystone-id/internal/id"
	"github.com/opentrusty/keystone-id/internal/model"
	"github.com/opentrusty/keystone-id/internal/store"
)

// requireServiceOwnershipOrAdmin enforces "the caller must own serviceID or
// have admin" (spec §4.4.4), used by role and endpoint-template creation
// when a service_id is supplied.
func (c *Core) requireServiceOwnershipOrAdmin(ctx context.Context, actor *model.User, serviceID string) error {
	if serviceID == "" {
		return nil
	}
	isAdmin, err := c.HasRole(ctx, actor.ID, c.adminRoleID)
	if err != nil {
		return err
	}
	if isAdmin {
		return nil
	}
	svc, err := c.store.Services.GetByID(ctx, serviceID)
	if err != nil {
		return mapStoreErr(err, KindNotFound, KindInternal, "get service")
	}
	if !IsOwner(actor, svc) {
		return fault(KindForbidden, "caller does not own service")
	}
	return nil
}

// CreateRole creates a Role. Service-admin; name unique; if the name has a
// "svc:" prefix, svc must match an existing Service's name; if service_id
// is supplied, the caller must own that service or have admin (spec
// §4.4.4, invariant 2).
func (c *Core) CreateRole(ctx context.Context, callerToken string, in *model.Role) (*model.Role, error) {
	actor, err := c.requireServiceAdmin(ctx, callerToken)
	if err != nil {
		return nil, err
	}
	if in.Name == "" {
		return nil, fault(KindBadRequest, "role name is required")
	}
	if prefix, _, ok := strings.Cut(in.Name, ":"); ok {
		svc, err := c.store.Services.GetByName(ctx, prefix)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, fault(KindBadRequest, "role name prefix does not match an existing service")
			}
			return nil, wrapFault(KindInternal, "look up service prefix", err)
		}
		if in.ServiceID != "" && in.ServiceID != svc.ID {
			return nil, fault(KindBadRequest, "role name prefix does not match service_id")
		}
	}
	if err := c.requireServiceOwnershipOrAdmin(ctx, actor, in.ServiceID); err != nil {
		return nil, err
	}

	role := &model.Role{
		ID:          id.NewUUIDv7(),
		Name:        in.Name,
		Description: in.Description,
		ServiceID:   in.ServiceID,
	}
	if err := c.store.Roles.Create(ctx, role); err != nil {
		return nil, mapStoreErr(err, KindInternal, KindConflict, "create role")
	}
	c.audit.Log(ctx, audit.Event{Type: audit.TypeRoleCreated, ActorID: actor.ID, Resource: role.ID})
	return role, nil
}

// GetRole returns a Role by id.
func (c *Core) GetRole(ctx context.Context, roleID string) (*model.Role, error) {
	r, err := c.store.Roles.GetByID(ctx, roleID)
	if err != nil {
		return nil, mapStoreErr(err, KindNotFound, KindInternal, "get role")
	}
	return r, nil
}

// ListRoles returns a page of roles, or every role owned by serviceID if
// serviceID is non-empty (GET /OS-KSADM/roles?serviceId=).
func (c *Core) ListRoles(ctx context.Context, serviceID string, p store.Page) ([]*model.Role, string, string, error) {
	if serviceID != "" {
		roles, err := c.store.Roles.ListByService(ctx, serviceID)
		if err != nil {
			return nil, "", "", wrapFault(KindInternal, "list roles by service", err)
		}
		return roles, "", "", nil
	}
	items, err := c.store.Roles.GetPage(ctx, p)
	if err != nil {
		return nil, "", "", wrapFault(KindInternal, "list roles", err)
	}
	prev, next, err := c.store.Roles.GetPageMarkers(ctx, p)
	if err != nil {
		return nil, "", "", wrapFault(KindInternal, "list roles", err)
	}
	return items, prev, next, nil
}

// DeleteRole deletes a Role and cascades its UserRoleAssociations (spec
// §4.4.4, invariant 4's role-scoped analogue). Same ownership rule as
// create: the caller must own the role's service or have admin.
func (c *Core) DeleteRole(ctx context.Context, callerToken, roleID string) error {
	actor, err := c.requireServiceAdmin(ctx, callerToken)
	if err != nil {
		return err
	}
	role, err := c.store.Roles.GetByID(ctx, roleID)
	if err != nil {
		return mapStoreErr(err, KindNotFound, KindInternal, "get role")
	}
	if err := c.requireServiceOwnershipOrAdmin(ctx, actor, role.ServiceID); err != nil {
		return err
	}
	if err := c.store.Grants.RevokeAllForRole(ctx, roleID); err != nil {
		return wrapFault(KindInternal, "revoke role grants", err)
	}
	if err := c.store.Roles.Delete(ctx, roleID); err != nil {
		return mapStoreErr(err, KindNotFound, KindInternal, "delete role")
	}
	c.audit.Log(ctx, audit.Event{Type: audit.TypeRoleDeleted, ActorID: actor.ID, Resource: roleID})
	return nil
}
