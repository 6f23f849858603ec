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

	"github.com/opentrusty/keystone-id/internal/model"
)

// HasRole reports whether userID holds a global grant (tenant_id == "")
// for roleID (spec §4.4.3).
func (c *Core) HasRole(ctx context.Context, userID, roleID string) (bool, error) {
	grants, err := c.store.Grants.GlobalRolesForUser(ctx, userID)
	if err != nil {
		return false, wrapFault(KindInternal, "list global roles", err)
	}
	for _, g := range grants {
		if g.RoleID == roleID {
			return true, nil
		}
	}
	return false, nil
}

// HasAdminRole validates tokenID and reports whether its user holds the
// admin role.
func (c *Core) HasAdminRole(ctx context.Context, tokenID string) (bool, error) {
	_, user, err := c.ValidateToken(ctx, tokenID, "")
	if err != nil {
		return false, err
	}
	return c.HasRole(ctx, user.ID, c.adminRoleID)
}

// HasServiceAdminRole validates tokenID and reports whether its user holds
// the service-admin role or the admin role (admin implies service-admin).
func (c *Core) HasServiceAdminRole(ctx context.Context, tokenID string) (bool, error) {
	_, user, err := c.ValidateToken(ctx, tokenID, "")
	if err != nil {
		return false, err
	}
	ok, err := c.HasRole(ctx, user.ID, c.serviceAdminRoleID)
	if err != nil {
		return false, err
	}
	if ok {
		return true, nil
	}
	return c.HasRole(ctx, user.ID, c.adminRoleID)
}

// IsOwner reports whether user owns service.
func IsOwner(user *model.User, service *model.Service) bool {
	return service.OwnerID == user.ID
}
