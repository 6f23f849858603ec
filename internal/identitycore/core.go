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

// Package identitycore is the identity core (C4): authentication, token
// lifecycle, authorization predicates, and CRUD orchestration over the C1
// repository contracts.
package identitycore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/opentrusty/keystone-id/internal/audit"
	"github.com/opentrusty/keystone-id/internal/store"
)

// DefaultTokenTTL is used when the caller does not configure
// token_ttl_seconds (spec §6: default 86400).
const DefaultTokenTTL = 24 * time.Hour

// Core is the identity core. It holds a typed repository handle fixed at
// construction (never reassigned — spec.md's redesign note replaces the
// source's mutable backend pointer with this) and the admin/service-admin
// role ids resolved once, fail-fast, at construction (spec §4.4.3/§5 and
// spec.md's redesign note on eliminating the lazy-and-racy global cache).
type Core struct {
	store  *store.Store
	hasher *PasswordHasher
	audit  audit.Logger

	adminRoleID        string
	serviceAdminRoleID string
	tokenTTL           time.Duration
}

// Options configures a Core at construction time.
type Options struct {
	AdminRoleName        string
	ServiceAdminRoleName string
	TokenTTL             time.Duration
	Hasher               *PasswordHasher
	Audit                audit.Logger
}

// NewCore builds a Core, resolving the admin and service-admin role names
// to ids immediately. It fails fast if either role does not exist — the
// repository must be seeded with both well-known roles before the core can
// start (spec.md design note: "fail fast if the configured role name does
// not resolve").
func NewCore(ctx context.Context, st *store.Store, opts Options) (*Core, error) {
	if opts.AdminRoleName == "" || opts.ServiceAdminRoleName == "" {
		return nil, errors.New("identitycore: admin_role and service_admin_role are required")
	}
	admin, err := st.Roles.GetByName(ctx, opts.AdminRoleName)
	if err != nil {
		return nil, fmt.Errorf("identitycore: resolve admin role %q: %w", opts.AdminRoleName, err)
	}
	svcAdmin, err := st.Roles.GetByName(ctx, opts.ServiceAdminRoleName)
	if err != nil {
		return nil, fmt.Errorf("identitycore: resolve service admin role %q: %w", opts.ServiceAdminRoleName, err)
	}

	ttl := opts.TokenTTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	hasher := opts.Hasher
	if hasher == nil {
		hasher = NewPasswordHasher(64*1024, 3, 2, 16, 32)
	}
	auditLogger := opts.Audit
	if auditLogger == nil {
		auditLogger = audit.NewSlogLogger()
	}

	return &Core{
		store:              st,
		hasher:             hasher,
		audit:              auditLogger,
		adminRoleID:        admin.ID,
		serviceAdminRoleID: svcAdmin.ID,
		tokenTTL:           ttl,
	}, nil
}

// AdminRoleID returns the role id resolved at construction for the
// well-known admin role name.
func (c *Core) AdminRoleID() string { return c.adminRoleID }

// ServiceAdminRoleID returns the role id resolved at construction for the
// well-known service-admin role name.
func (c *Core) ServiceAdminRoleID() string { return c.serviceAdminRoleID }

func mapStoreErr(err error, notFoundKind, conflictKind Kind, msg string) *Fault {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fault(notFoundKind, msg)
	case errors.Is(err, store.ErrConflict):
		return fault(conflictKind, msg)
	default:
		return wrapFault(KindInternal, msg, err)
	}
}
