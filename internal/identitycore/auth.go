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
	"time"

	"github.com/opentrusty/keystone-id/internal/audit"
	"github.com/opentrusty/keystone-id/internal/id"
	"github.com/opentrusty/keystone-id/internal/model"
	"github.com/opentrusty/keystone-id/internal/signer"
	"github.com/opentrusty/keystone-id/internal/store"
)

// AuthData is returned by every authentication flow: the issued (or
// reused) token, the authenticated user, the scoped tenant (nil if
// unscoped), the user's effective roles in scope, and the endpoints
// catalog for that scope (spec §4.4.1).
type AuthData struct {
	Token   *model.Token
	User    *model.User
	Tenant  *model.Tenant
	Roles   []*model.Role
	Catalog []model.CatalogEntry
}

// PasswordCredentials authenticates by username/password, optionally
// scoped to a tenant by id or by name (spec §4.4.1 flow 1).
func (c *Core) PasswordCredentials(ctx context.Context, username, password, tenantID, tenantName string) (*AuthData, error) {
	user, err := c.store.Users.GetByName(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fault(KindUnauthorized, "invalid credentials")
		}
		return nil, wrapFault(KindInternal, "load user", err)
	}
	if !user.Enabled {
		return nil, fault(KindUserDisabled, "user disabled")
	}
	ok, err := c.hasher.Verify(password, user.Password)
	if err != nil || !ok {
		c.audit.Log(ctx, audit.Event{Type: audit.TypeLoginFailed, ActorID: user.ID, Resource: "login"})
		return nil, fault(KindUnauthorized, "invalid credentials")
	}

	return c.finishAuthentication(ctx, user, tenantID, tenantName)
}

// UnscopedToken re-authenticates by presenting an existing token and
// re-scopes it to the supplied tenant (spec §4.4.1 flow 2).
func (c *Core) UnscopedToken(ctx context.Context, existingTokenID, tenantID, tenantName string) (*AuthData, error) {
	_, user, err := c.ValidateToken(ctx, existingTokenID, "")
	if err != nil {
		return nil, err
	}
	return c.finishAuthentication(ctx, user, tenantID, tenantName)
}

// EC2Credentials authenticates an EC2-style signed request: look up
// Credentials by access key, recompute the signature via the signer, and
// require equality with the port-strip fallback (spec §4.4.1 flow 3).
func (c *Core) EC2Credentials(ctx context.Context, accessKey, signature string, req signer.Request, allowPortStrip bool) (*AuthData, error) {
	creds, err := c.store.Credentials.GetByKey(ctx, accessKey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fault(KindUnauthorized, "unknown access key")
		}
		return nil, wrapFault(KindInternal, "load credentials", err)
	}
	if creds.Type != model.CredentialTypeEC2 {
		return nil, fault(KindUnauthorized, "not an EC2 credential")
	}
	if !signer.Verify(creds.Secret, signature, req, allowPortStrip) {
		c.audit.Log(ctx, audit.Event{Type: audit.TypeEC2AuthFailed, ActorID: creds.UserID, Resource: "ec2"})
		return nil, fault(KindUnauthorized, "signature mismatch")
	}
	c.audit.Log(ctx, audit.Event{Type: audit.TypeEC2AuthSuccess, ActorID: creds.UserID, Resource: "ec2"})

	user, err := c.store.Users.GetByID(ctx, creds.UserID)
	if err != nil {
		return nil, wrapFault(KindInternal, "load user", err)
	}
	if !user.Enabled {
		return nil, fault(KindUserDisabled, "user disabled")
	}
	return c.finishAuthentication(ctx, user, creds.TenantID, "")
}

// finishAuthentication resolves the requested tenant scope (if any),
// confirms the user is associated with it, issues or reuses a token, and
// assembles the AuthData response common to every flow.
func (c *Core) finishAuthentication(ctx context.Context, user *model.User, tenantID, tenantName string) (*AuthData, error) {
	tenant, err := c.resolveRequestedTenant(ctx, tenantID, tenantName)
	if err != nil {
		return nil, err
	}
	if tenant == nil && user.TenantID != "" {
		tenant, err = c.store.Tenants.GetByID(ctx, user.TenantID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, wrapFault(KindInternal, "load default tenant", err)
		}
	}

	scopeTenantID := ""
	if tenant != nil {
		if !tenant.Enabled {
			return nil, fault(KindTenantDisabled, "tenant disabled")
		}
		if ok, err := c.userAssociatedWithTenant(ctx, user, tenant.ID); err != nil {
			return nil, err
		} else if !ok {
			return nil, fault(KindUnauthorized, "user has no role in tenant")
		}
		scopeTenantID = tenant.ID
	}

	tok, err := c.issueOrReuseToken(ctx, user.ID, scopeTenantID)
	if err != nil {
		return nil, err
	}

	roles, err := c.rolesInScope(ctx, user.ID, scopeTenantID)
	if err != nil {
		return nil, err
	}

	var catalog []model.CatalogEntry
	if tenant != nil {
		isAdmin, err := c.HasRole(ctx, user.ID, c.adminRoleID)
		if err != nil {
			return nil, err
		}
		isSvcAdmin := isAdmin
		if !isSvcAdmin {
			isSvcAdmin, err = c.HasRole(ctx, user.ID, c.serviceAdminRoleID)
			if err != nil {
				return nil, err
			}
		}
		catalog, err = c.catalogForTenant(ctx, tenant.ID, isSvcAdmin)
		if err != nil {
			return nil, err
		}
	}

	c.audit.Log(ctx, audit.Event{Type: audit.TypeTokenIssued, TenantID: scopeTenantID, ActorID: user.ID, Resource: tok.ID})

	return &AuthData{Token: tok, User: user, Tenant: tenant, Roles: roles, Catalog: catalog}, nil
}

// resolveRequestedTenant looks a requested tenant scope up by id or name.
// Both empty means "no scope requested". An unresolvable name/id is an
// unauthorized error (spec scenario S2: unknown tenant name -> unauthorized).
func (c *Core) resolveRequestedTenant(ctx context.Context, tenantID, tenantName string) (*model.Tenant, error) {
	switch {
	case tenantID != "":
		t, err := c.store.Tenants.GetByID(ctx, tenantID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, fault(KindUnauthorized, "unknown tenant")
			}
			return nil, wrapFault(KindInternal, "load tenant", err)
		}
		return t, nil
	case tenantName != "":
		t, err := c.store.Tenants.GetByName(ctx, tenantName)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, fault(KindUnauthorized, "unknown tenant")
			}
			return nil, wrapFault(KindInternal, "load tenant", err)
		}
		return t, nil
	default:
		return nil, nil
	}
}

// userAssociatedWithTenant reports whether user may authenticate scoped to
// tenantID: it's their default tenant, they hold a tenant-scoped grant
// there, or they hold any global role (global roles apply everywhere).
func (c *Core) userAssociatedWithTenant(ctx context.Context, user *model.User, tenantID string) (bool, error) {
	if user.TenantID == tenantID {
		return true, nil
	}
	grants, err := c.store.Grants.TenantRolesForUser(ctx, user.ID, tenantID)
	if err != nil {
		return false, wrapFault(KindInternal, "list tenant roles", err)
	}
	if len(grants) > 0 {
		return true, nil
	}
	global, err := c.store.Grants.GlobalRolesForUser(ctx, user.ID)
	if err != nil {
		return false, wrapFault(KindInternal, "list global roles", err)
	}
	return len(global) > 0, nil
}

// issueOrReuseToken implements the reuse rule from spec §4.4.1: if a
// non-expired token already exists for (userID, tenantID), reuse the one
// with the greatest expires; otherwise mint a fresh one.
func (c *Core) issueOrReuseToken(ctx context.Context, userID, tenantID string) (*model.Token, error) {
	existing, err := c.store.Tokens.ForUserAndTenant(ctx, userID, tenantID)
	if err != nil {
		return nil, wrapFault(KindInternal, "list tokens", err)
	}
	now := time.Now()
	var best *model.Token
	for _, t := range existing {
		if !t.Expires.After(now) {
			continue
		}
		if best == nil || t.Expires.After(best.Expires) {
			best = t
		}
	}
	if best != nil {
		return best, nil
	}

	tok := &model.Token{
		ID:       id.NewUUIDv7(),
		UserID:   userID,
		TenantID: tenantID,
		Created:  now,
		Expires:  now.Add(c.tokenTTL),
	}
	if err := c.store.Tokens.Create(ctx, tok); err != nil {
		return nil, wrapFault(KindInternal, "create token", err)
	}
	return tok, nil
}

// rolesInScope returns the union of the user's global roles and, if
// tenantID is set, their tenant-scoped roles there.
func (c *Core) rolesInScope(ctx context.Context, userID, tenantID string) ([]*model.Role, error) {
	seen := make(map[string]bool)
	var roles []*model.Role

	add := func(grants []*model.UserRoleAssociation) error {
		for _, g := range grants {
			if seen[g.RoleID] {
				continue
			}
			seen[g.RoleID] = true
			role, err := c.store.Roles.GetByID(ctx, g.RoleID)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					continue
				}
				return wrapFault(KindInternal, "load role", err)
			}
			roles = append(roles, role)
		}
		return nil
	}

	global, err := c.store.Grants.GlobalRolesForUser(ctx, userID)
	if err != nil {
		return nil, wrapFault(KindInternal, "list global roles", err)
	}
	if err := add(global); err != nil {
		return nil, err
	}

	if tenantID != "" {
		scoped, err := c.store.Grants.TenantRolesForUser(ctx, userID, tenantID)
		if err != nil {
			return nil, wrapFault(KindInternal, "list tenant roles", err)
		}
		if err := add(scoped); err != nil {
			return nil, err
		}
	}

	return roles, nil
}
