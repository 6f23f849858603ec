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
	"github.com/opentrusty/keystone-id/internal/model"
	"github.com/opentrusty/keystone-id/internal/store"
)

// ValidateToken is the normal-flow validation path (used by the
// auth-token middleware and by re-scoping/authorization calls): a missing
// or unknown token is unauthorized, an expired token is forbidden (spec
// §4.4.2).
func (c *Core) ValidateToken(ctx context.Context, tokenID, belongsTo string) (*model.Token, *model.User, error) {
	return c.validateToken(ctx, tokenID, belongsTo, false)
}

// RolesInScope returns the roles userID holds in tenantID ("" for
// unscoped), combining global grants with tenant-scoped ones. Exported for
// the auth-token middleware, which needs a token's effective roles without
// re-running a full authentication flow.
func (c *Core) RolesInScope(ctx context.Context, userID, tenantID string) ([]*model.Role, error) {
	return c.rolesInScope(ctx, userID, tenantID)
}

// CheckToken is the explicit check-token-by-id flow (GET /tokens/{id}): a
// missing or expired token is reported as not-found rather than
// unauthorized/forbidden, so as not to leak whether a token ever existed
// (spec §4.4.2, §7).
func (c *Core) CheckToken(ctx context.Context, tokenID, belongsTo string) (*model.Token, *model.User, error) {
	return c.validateToken(ctx, tokenID, belongsTo, true)
}

// RevokeToken deletes a token outright (DELETE /tokens/{id}). Admin-only.
func (c *Core) RevokeToken(ctx context.Context, callerToken, tokenID string) error {
	actor, err := c.requireAdmin(ctx, callerToken)
	if err != nil {
		return err
	}
	if err := c.store.Tokens.Delete(ctx, tokenID); err != nil {
		return mapStoreErr(err, KindNotFound, KindInternal, "delete token")
	}
	c.audit.Log(ctx, audit.Event{Type: audit.TypeTokenRevoked, ActorID: actor.ID, Resource: tokenID})
	return nil
}

func (c *Core) validateToken(ctx context.Context, tokenID, belongsTo string, checkFlow bool) (*model.Token, *model.User, error) {
	if tokenID == "" {
		return nil, nil, fault(KindUnauthorized, "missing token id")
	}

	tok, err := c.store.Tokens.GetByID(ctx, tokenID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			if checkFlow {
				return nil, nil, fault(KindNotFound, "token not found")
			}
			return nil, nil, fault(KindUnauthorized, "token not found")
		}
		return nil, nil, wrapFault(KindInternal, "load token", err)
	}

	if !tok.Expires.After(time.Now()) {
		if checkFlow {
			return nil, nil, fault(KindNotFound, "token not found")
		}
		return nil, nil, fault(KindForbidden, "token expired")
	}

	user, err := c.store.Users.GetByID(ctx, tok.UserID)
	if err != nil {
		return nil, nil, wrapFault(KindInternal, "load token user", err)
	}
	if !user.Enabled {
		return nil, nil, fault(KindUserDisabled, "user disabled")
	}

	if user.TenantID != "" {
		defaultTenant, err := c.store.Tenants.GetByID(ctx, user.TenantID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, nil, fault(KindTenantDisabled, "default tenant missing")
			}
			return nil, nil, wrapFault(KindInternal, "load default tenant", err)
		}
		if !defaultTenant.Enabled {
			return nil, nil, fault(KindTenantDisabled, "default tenant disabled")
		}
	}

	if tok.TenantID != "" {
		scopedTenant, err := c.store.Tenants.GetByID(ctx, tok.TenantID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, nil, fault(KindTenantDisabled, "token tenant missing")
			}
			return nil, nil, wrapFault(KindInternal, "load token tenant", err)
		}
		if !scopedTenant.Enabled {
			return nil, nil, fault(KindTenantDisabled, "token tenant disabled")
		}
	}

	if belongsTo != "" && tok.TenantID != belongsTo {
		return nil, nil, fault(KindUnauthorized, "token does not belong to requested tenant")
	}

	return tok, user, nil
}
