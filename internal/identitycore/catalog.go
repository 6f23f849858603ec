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

	"github.com/opentrusty/keystone-id/internal/model"
	"github.com/opentrusty/keystone-id/internal/store"
)

// EndpointsForToken returns the denormalized endpoints catalog for a
// scoped token (GET /tokens/{id}/endpoints), honoring the admin-url
// visibility rule from catalogForTenant.
func (c *Core) EndpointsForToken(ctx context.Context, tokenID string) ([]model.CatalogEntry, error) {
	tok, user, err := c.ValidateToken(ctx, tokenID, "")
	if err != nil {
		return nil, err
	}
	if tok.TenantID == "" {
		return nil, fault(KindBadRequest, "token is unscoped")
	}
	isAdmin, err := c.HasRole(ctx, user.ID, c.adminRoleID)
	if err != nil {
		return nil, err
	}
	isSvcAdmin := isAdmin
	if !isSvcAdmin {
		if isSvcAdmin, err = c.HasRole(ctx, user.ID, c.serviceAdminRoleID); err != nil {
			return nil, err
		}
	}
	return c.catalogForTenant(ctx, tok.TenantID, isSvcAdmin)
}

// catalogForTenant unions every global EndpointTemplate with every template
// bound to tenantID via an Endpoint, denormalized with the owning
// service's name and type (spec §4.4.5). showAdminURL controls whether
// AdminURL is included in each rendered entry (service-admins/admins only).
func (c *Core) catalogForTenant(ctx context.Context, tenantID string, showAdminURL bool) ([]model.CatalogEntry, error) {
	seen := make(map[string]bool)
	var entries []model.CatalogEntry

	addTemplate := func(tmplID string) error {
		if seen[tmplID] {
			return nil
		}
		seen[tmplID] = true
		tmpl, err := c.store.EndpointTemplates.GetByID(ctx, tmplID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			return wrapFault(KindInternal, "load endpoint template", err)
		}
		svc, err := c.store.Services.GetByID(ctx, tmpl.ServiceID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			return wrapFault(KindInternal, "load service", err)
		}
		entries = append(entries, model.CatalogEntry{
			ServiceName:  svc.Name,
			ServiceType:  svc.Type,
			Template:     tmpl,
			ShowAdminURL: showAdminURL,
		})
		return nil
	}

	globals, err := c.store.EndpointTemplates.GlobalPage(ctx, store.Page{Limit: 0})
	if err != nil {
		return nil, wrapFault(KindInternal, "list global endpoint templates", err)
	}
	for _, t := range globals {
		if err := addTemplate(t.ID); err != nil {
			return nil, err
		}
	}

	bound, err := c.store.Endpoints.EndpointsForTenantPage(ctx, tenantID, store.Page{Limit: 0})
	if err != nil {
		return nil, wrapFault(KindInternal, "list tenant endpoints", err)
	}
	for _, ep := range bound {
		if err := addTemplate(ep.EndpointTemplateID); err != nil {
			return nil, err
		}
	}

	return entries, nil
}
