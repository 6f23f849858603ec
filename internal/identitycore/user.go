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
	"github.com/opentrusty/keystone-id/internal/id"
	"github.com/opentrusty/keystone-id/internal/model"
	"github.com/opentrusty/keystone-id/internal/store"
)

// CreateUser creates a User. Admin-only; name unique; password is hashed
// before storage. Password may be empty (a user may be created before a
// password is assigned via AddPassword).
func (c *Core) CreateUser(ctx context.Context, callerToken string, in *model.User, password string) (*model.User, error) {
	actor, err := c.requireAdmin(ctx, callerToken)
	if err != nil {
		return nil, err
	}
	if in.Name == "" {
		return nil, fault(KindBadRequest, "user name is required")
	}
	u := &model.User{
		ID:       id.NewUUIDv7(),
		Name:     in.Name,
		Email:    in.Email,
		Enabled:  in.Enabled,
		TenantID: in.TenantID,
		Extra:    in.Extra,
	}
	if password != "" {
		hash, err := c.hasher.Hash(password)
		if err != nil {
			return nil, wrapFault(KindInternal, "hash password", err)
		}
		u.Password = hash
	}
	if err := c.store.Users.Create(ctx, u); err != nil {
		return nil, mapStoreErr(err, KindInternal, KindConflict, "create user")
	}
	c.audit.Log(ctx, audit.Event{Type: audit.TypeUserCreated, ActorID: actor.ID, Resource: u.ID})
	return redactedUser(u), nil
}

// GetUser returns a User by id, with Password cleared.
func (c *Core) GetUser(ctx context.Context, userID string) (*model.User, error) {
	u, err := c.store.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, mapStoreErr(err, KindNotFound, KindInternal, "get user")
	}
	return redactedUser(u), nil
}

// GetUserByName returns a User by name, with Password cleared.
func (c *Core) GetUserByName(ctx context.Context, name string) (*model.User, error) {
	u, err := c.store.Users.GetByName(ctx, name)
	if err != nil {
		return nil, mapStoreErr(err, KindNotFound, KindInternal, "get user")
	}
	return redactedUser(u), nil
}

// ListUsers returns a page of users, or every user granted a role within
// tenantID if tenantID is non-empty (GET /tenants/{id}/users).
func (c *Core) ListUsers(ctx context.Context, tenantID string, p store.Page) ([]*model.User, string, string, error) {
	if tenantID != "" {
		items, err := c.store.Users.UsersByTenantPage(ctx, tenantID, p)
		if err != nil {
			return nil, "", "", wrapFault(KindInternal, "list tenant users", err)
		}
		return redactedUsers(items), "", "", nil
	}
	items, err := c.store.Users.GetPage(ctx, p)
	if err != nil {
		return nil, "", "", wrapFault(KindInternal, "list users", err)
	}
	prev, next, err := c.store.Users.GetPageMarkers(ctx, p)
	if err != nil {
		return nil, "", "", wrapFault(KindInternal, "list users", err)
	}
	return redactedUsers(items), prev, next, nil
}

// UpdateUser applies a patch to a User. Admin-only; rename must preserve
// uniqueness (enforced by the repository adapter). Password is untouched —
// use AddPassword.
func (c *Core) UpdateUser(ctx context.Context, callerToken, userID string, patch *model.User) (*model.User, error) {
	actor, err := c.requireAdmin(ctx, callerToken)
	if err != nil {
		return nil, err
	}
	u, err := c.store.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, mapStoreErr(err, KindNotFound, KindInternal, "get user")
	}
	if patch.Name != "" {
		u.Name = patch.Name
	}
	u.Email = patch.Email
	for k, v := range patch.Extra {
		if u.Extra == nil {
			u.Extra = map[string]any{}
		}
		u.Extra[k] = v
	}
	if err := c.store.Users.Update(ctx, u); err != nil {
		return nil, mapStoreErr(err, KindNotFound, KindConflict, "update user")
	}
	c.audit.Log(ctx, audit.Event{Type: audit.TypeUserUpdated, ActorID: actor.ID, Resource: u.ID})
	return redactedUser(u), nil
}

// AddPassword sets a User's password (PUT /users/{id}/password). Admin-only;
// no pre-existing password is required.
func (c *Core) AddPassword(ctx context.Context, callerToken, userID, password string) (*model.User, error) {
	actor, err := c.requireAdmin(ctx, callerToken)
	if err != nil {
		return nil, err
	}
	if password == "" {
		return nil, fault(KindBadRequest, "password is required")
	}
	u, err := c.store.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, mapStoreErr(err, KindNotFound, KindInternal, "get user")
	}
	hash, err := c.hasher.Hash(password)
	if err != nil {
		return nil, wrapFault(KindInternal, "hash password", err)
	}
	u.Password = hash
	if err := c.store.Users.Update(ctx, u); err != nil {
		return nil, mapStoreErr(err, KindNotFound, KindConflict, "update user")
	}
	c.audit.Log(ctx, audit.Event{Type: audit.TypeUserUpdated, ActorID: actor.ID, Resource: u.ID})
	return redactedUser(u), nil
}

// SetEnabled sets a User's Enabled flag (PUT /users/{id}/enabled). When
// disabling, every outstanding token is revoked (spec §4.4.2: a disabled
// user's tokens must no longer validate).
func (c *Core) SetEnabled(ctx context.Context, callerToken, userID string, enabled bool) (*model.User, error) {
	actor, err := c.requireAdmin(ctx, callerToken)
	if err != nil {
		return nil, err
	}
	u, err := c.store.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, mapStoreErr(err, KindNotFound, KindInternal, "get user")
	}
	u.Enabled = enabled
	if err := c.store.Users.Update(ctx, u); err != nil {
		return nil, mapStoreErr(err, KindNotFound, KindConflict, "update user")
	}
	if !enabled {
		if err := c.store.Tokens.DeleteByUserID(ctx, userID); err != nil {
			return nil, wrapFault(KindInternal, "revoke user tokens", err)
		}
	}
	c.audit.Log(ctx, audit.Event{Type: audit.TypeUserUpdated, ActorID: actor.ID, Resource: u.ID})
	return redactedUser(u), nil
}

// SetDefaultTenant sets a User's default tenant (PUT /users/{id}/tenant).
func (c *Core) SetDefaultTenant(ctx context.Context, callerToken, userID, tenantID string) (*model.User, error) {
	actor, err := c.requireAdmin(ctx, callerToken)
	if err != nil {
		return nil, err
	}
	u, err := c.store.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, mapStoreErr(err, KindNotFound, KindInternal, "get user")
	}
	if tenantID != "" {
		if _, err := c.store.Tenants.GetByID(ctx, tenantID); err != nil {
			return nil, mapStoreErr(err, KindNotFound, KindInternal, "get tenant")
		}
	}
	u.TenantID = tenantID
	if err := c.store.Users.Update(ctx, u); err != nil {
		return nil, mapStoreErr(err, KindNotFound, KindConflict, "update user")
	}
	c.audit.Log(ctx, audit.Event{Type: audit.TypeUserUpdated, ActorID: actor.ID, Resource: u.ID})
	return redactedUser(u), nil
}

// DeleteUser deletes a User. Admin-only; revokes its outstanding tokens
// and credentials are left for the caller to remove explicitly (spec
// §4.4.4 scopes cascade to tokens only; credentials are a distinct
// resource with their own lifecycle).
func (c *Core) DeleteUser(ctx context.Context, callerToken, userID string) error {
	actor, err := c.requireAdmin(ctx, callerToken)
	if err != nil {
		return err
	}
	if err := c.store.Tokens.DeleteByUserID(ctx, userID); err != nil {
		return wrapFault(KindInternal, "revoke user tokens", err)
	}
	if err := c.store.Users.Delete(ctx, userID); err != nil {
		return mapStoreErr(err, KindNotFound, KindInternal, "delete user")
	}
	c.audit.Log(ctx, audit.Event{Type: audit.TypeUserDeleted, ActorID: actor.ID, Resource: userID})
	return nil
}

// RolesForUser lists a user's role grants (GET /users/{id}/roles): every
// grant the user holds, global and tenant-scoped alike. tenantID is passed
// to the store but neither adapter filters on it, so it does not narrow the
// result.
func (c *Core) RolesForUser(ctx context.Context, userID, tenantID string, p store.Page) ([]*model.UserRoleAssociation, error) {
	grants, err := c.store.Grants.RolesForUserPage(ctx, userID, tenantID, p)
	if err != nil {
		return nil, wrapFault(KindInternal, "list user roles", err)
	}
	return grants, nil
}

func redactedUser(u *model.User) *model.User {
	c := *u
	c.Password = ""
	return &c
}

func redactedUsers(users []*model.User) []*model.User {
	out := make([]*model.User, len(users))
	for i, u := range users {
		out[i] = redactedUser(u)
	}
	return out
}
