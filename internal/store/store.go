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

// Package store declares the repository contracts (C1): a uniform
// create/get/get_by_name/update/delete/page surface per entity, plus the
// relationship queries the identity core needs (users by tenant, tenants
// for a user, roles for a user, endpoints for a tenant, endpoint templates
// by service). Two adapters satisfy these interfaces: store/postgres
// (SQL-like) and store/directory (directory-like, in-process).
package store

import (
	"context"
	"errors"

	"github.com/opentrusty/keystone-id/internal/model"
)

// Domain-level sentinel errors. Adapters must map their native not-found/
// conflict signals (pgx.ErrNoRows, a unique-constraint violation code, a
// map-miss) onto these so internal/identitycore never branches on
// adapter-specific error types.
var (
	ErrNotFound = errors.New("store: not found")
	ErrConflict = errors.New("store: conflict")
)

// Page bounds a single page request. Limit is a positive integer bounded by
// a server-configured maximum; Marker is the opaque id of the last item of
// the previous page, or "" for the first page.
type Page struct {
	Marker string
	Limit  int
}

// TenantRepository stores Tenant records.
type TenantRepository interface {
	Create(ctx context.Context, t *model.Tenant) error
	GetByID(ctx context.Context, id string) (*model.Tenant, error)
	GetByName(ctx context.Context, name string) (*model.Tenant, error)
	Update(ctx context.Context, t *model.Tenant) error
	Delete(ctx context.Context, id string) error

	GetPage(ctx context.Context, p Page) ([]*model.Tenant, error)
	GetPageMarkers(ctx context.Context, p Page) (prev, next string, err error)

	// TenantsForUserPage lists the tenants a user holds any role grant in,
	// in stable descending-id order.
	TenantsForUserPage(ctx context.Context, userID string, p Page) ([]*model.Tenant, error)
}

// UserRepository stores User records.
type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByName(ctx context.Context, name string) (*model.User, error)
	Update(ctx context.Context, u *model.User) error
	Delete(ctx context.Context, id string) error

	GetPage(ctx context.Context, p Page) ([]*model.User, error)
	GetPageMarkers(ctx context.Context, p Page) (prev, next string, err error)

	// UsersByTenantPage lists the users who hold any role grant within a
	// given tenant.
	UsersByTenantPage(ctx context.Context, tenantID string, p Page) ([]*model.User, error)

	// ExistsWithDefaultTenant reports whether any user's default tenant_id
	// is tenantID, used by the tenant-delete non-empty check (invariant 3).
	ExistsWithDefaultTenant(ctx context.Context, tenantID string) (bool, error)
}

// RoleRepository stores Role records.
type RoleRepository interface {
	Create(ctx context.Context, r *model.Role) error
	GetByID(ctx context.Context, id string) (*model.Role, error)
	GetByName(ctx context.Context, name string) (*model.Role, error)
	Update(ctx context.Context, r *model.Role) error
	Delete(ctx context.Context, id string) error

	GetPage(ctx context.Context, p Page) ([]*model.Role, error)
	GetPageMarkers(ctx context.Context, p Page) (prev, next string, err error)

	// ListByService returns every role owned by the given service, used by
	// GET /OS-KSADM/roles?serviceId=.
	ListByService(ctx context.Context, serviceID string) ([]*model.Role, error)
}

// ServiceRepository stores Service records.
type ServiceRepository interface {
	Create(ctx context.Context, s *model.Service) error
	GetByID(ctx context.Context, id string) (*model.Service, error)
	GetByName(ctx context.Context, name string) (*model.Service, error)
	Update(ctx context.Context, s *model.Service) error
	Delete(ctx context.Context, id string) error

	GetPage(ctx context.Context, p Page) ([]*model.Service, error)
	GetPageMarkers(ctx context.Context, p Page) (prev, next string, err error)
}

// EndpointTemplateRepository stores EndpointTemplate records.
type EndpointTemplateRepository interface {
	Create(ctx context.Context, e *model.EndpointTemplate) error
	GetByID(ctx context.Context, id string) (*model.EndpointTemplate, error)
	Update(ctx context.Context, e *model.EndpointTemplate) error
	Delete(ctx context.Context, id string) error

	GetPage(ctx context.Context, p Page) ([]*model.EndpointTemplate, error)
	GetPageMarkers(ctx context.Context, p Page) (prev, next string, err error)

	// EndpointTemplatesByServicePage lists the templates belonging to a
	// service.
	EndpointTemplatesByServicePage(ctx context.Context, serviceID string, p Page) ([]*model.EndpointTemplate, error)

	// GlobalPage lists templates flagged global (auto-attached to every
	// new tenant).
	GlobalPage(ctx context.Context, p Page) ([]*model.EndpointTemplate, error)
}

// EndpointRepository stores Endpoint records (a template bound to a tenant).
type EndpointRepository interface {
	Create(ctx context.Context, e *model.Endpoint) error
	GetByID(ctx context.Context, id string) (*model.Endpoint, error)
	Delete(ctx context.Context, id string) error

	GetPage(ctx context.Context, p Page) ([]*model.Endpoint, error)
	GetPageMarkers(ctx context.Context, p Page) (prev, next string, err error)

	// EndpointsForTenantPage lists the endpoints bound to a tenant.
	EndpointsForTenantPage(ctx context.Context, tenantID string, p Page) ([]*model.Endpoint, error)

	// DeleteByTemplate removes every Endpoint bound to templateID, used by
	// the service-delete cascade (spec invariant 4).
	DeleteByTemplate(ctx context.Context, templateID string) error
}

// GrantRepository stores UserRoleAssociation records (role grants).
//
// A grant is keyed by (UserID, RoleID, TenantID) with TenantID == "" meaning
// a global grant; at most one association may exist per tuple (spec
// invariant: "a (user, role, tenant) tuple is granted at most once").
type GrantRepository interface {
	Grant(ctx context.Context, a *model.UserRoleAssociation) error
	Revoke(ctx context.Context, userID, roleID, tenantID string) error

	// RolesForUserPage lists every grant a user holds, global and
	// tenant-scoped across all tenants, paged by role id. Both adapters
	// ignore tenantID: it does not narrow the result.
	RolesForUserPage(ctx context.Context, userID, tenantID string, p Page) ([]*model.UserRoleAssociation, error)

	// GlobalRolesForUser lists only global (TenantID == "") grants.
	GlobalRolesForUser(ctx context.Context, userID string) ([]*model.UserRoleAssociation, error)

	// TenantRolesForUser lists only the grants scoped to the given tenant.
	TenantRolesForUser(ctx context.Context, userID, tenantID string) ([]*model.UserRoleAssociation, error)

	// RevokeAllForRole removes every grant referencing roleID, used by the
	// role-delete and service-delete cascades (spec invariants 4).
	RevokeAllForRole(ctx context.Context, roleID string) error
}

// TokenRepository stores Token records.
type TokenRepository interface {
	Create(ctx context.Context, t *model.Token) error
	GetByID(ctx context.Context, id string) (*model.Token, error)
	// ForUserAndTenant lists every token issued to userID scoped to
	// tenantID ("" selects unscoped tokens), used by authenticate's
	// token-reuse rule (spec §4.4.1: reuse the token with the greatest
	// expires if one exists and hasn't expired).
	ForUserAndTenant(ctx context.Context, userID, tenantID string) ([]*model.Token, error)
	// DeleteByUserID revokes every token issued to a user, used when a
	// user is disabled or deleted.
	DeleteByUserID(ctx context.Context, userID string) error
	Delete(ctx context.Context, id string) error
}

// CredentialsRepository stores Credentials records (EC2-style access keys).
type CredentialsRepository interface {
	Create(ctx context.Context, c *model.Credentials) error
	GetByID(ctx context.Context, id string) (*model.Credentials, error)
	// GetByKey looks a credential up by its public access key, the lookup
	// the EC2 signature verifier performs.
	GetByKey(ctx context.Context, key string) (*model.Credentials, error)
	Delete(ctx context.Context, id string) error

	GetPageForUser(ctx context.Context, userID string, p Page) ([]*model.Credentials, error)
}

// Store bundles every repository the identity core depends on. Each
// adapter package (postgres, directory) exposes a constructor returning a
// Store built from its own repositories.
type Store struct {
	Tenants           TenantRepository
	Users             UserRepository
	Roles             RoleRepository
	Services          ServiceRepository
	EndpointTemplates EndpointTemplateRepository
	Endpoints         EndpointRepository
	Grants            GrantRepository
	Tokens            TokenRepository
	Credentials       CredentialsRepository
}
