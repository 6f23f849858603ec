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

// CreateService creates a Service. Service-admin; (name, type) must be
// unique; the caller is recorded as the owner (spec §4.4.4).
func (c *Core) CreateService(ctx context.Context, callerToken string, in *model.Service) (*model.Service, error) {
	actor, err := c.requireServiceAdmin(ctx, callerToken)
	if err != nil {
		return nil, err
	}
	if in.Name == "" || in.Type == "" {
		return nil, fault(KindBadRequest, "service name and type are required")
	}
	svc := &model.Service{
		ID:          id.NewUUIDv7(),
		Name:        in.Name,
		Type:        in.Type,
		Description: in.Description,
		OwnerID:     actor.ID,
	}
	if err := c.store.Services.Create(ctx, svc); err != nil {
		return nil, mapStoreErr(err, KindInternal, KindConflict, "create service")
	}
	c.audit.Log(ctx, audit.Event{Type: audit.TypeServiceCreated, ActorID: actor.ID, Resource: svc.ID})
	return svc, nil
}

// GetService returns a Service by id.
func (c *Core) GetService(ctx context.Context, serviceID string) (*model.Service, error) {
	s, err := c.store.Services.GetByID(ctx, serviceID)
	if err != nil {
		return nil, mapStoreErr(err, KindNotFound, KindInternal, "get service")
	}
	return s, nil
}

// ListServices returns a page of services.
func (c *Core) ListServices(ctx context.Context, p store.Page) ([]*model.Service, string, string, error) {
	items, err := c.store.Services.GetPage(ctx, p)
	if err != nil {
		return nil, "", "", wrapFault(KindInternal, "list services", err)
	}
	prev, next, err := c.store.Services.GetPageMarkers(ctx, p)
	if err != nil {
		return nil, "", "", wrapFault(KindInternal, "list services", err)
	}
	return items, prev, next, nil
}

// DeleteService deletes a Service, cascading its EndpointTemplates (and
// their Endpoints) and its Roles (and their UserRoleAssociations) — spec
// §4.4.4 invariant 4. Same ownership rule as create/delete-role: the
// caller must own the service or have admin.
func (c *Core) DeleteService(ctx context.Context, callerToken, serviceID string) error {
	actor, err := c.requireServiceAdmin(ctx, callerToken)
	if err != nil {
		return err
	}
	svc, err := c.store.Services.GetByID(ctx, serviceID)
	if err != nil {
		return mapStoreErr(err, KindNotFound, KindInternal, "get service")
	}
	if err := c.requireServiceOwnershipOrAdmin(ctx, actor, svc.ID); err != nil {
		return err
	}

	templates, err := c.store.EndpointTemplates.EndpointTemplatesByServicePage(ctx, svc.ID, store.Page{Limit: 0})
	if err != nil {
		return wrapFault(KindInternal, "list service endpoint templates", err)
	}
	for _, tmpl := range templates {
		if err := c.store.Endpoints.DeleteByTemplate(ctx, tmpl.ID); err != nil {
			return wrapFault(KindInternal, "delete template endpoints", err)
		}
		if err := c.store.EndpointTemplates.Delete(ctx, tmpl.ID); err != nil {
			return wrapFault(KindInternal, "delete endpoint template", err)
		}
	}

	roles, err := c.store.Roles.ListByService(ctx, svc.ID)
	if err != nil {
		return wrapFault(KindInternal, "list service roles", err)
	}
	for _, role := range roles {
		if err := c.store.Grants.RevokeAllForRole(ctx, role.ID); err != nil {
			return wrapFault(KindInternal, "revoke role grants", err)
		}
		if err := c.store.Roles.Delete(ctx, role.ID); err != nil {
			return wrapFault(KindInternal, "delete role", err)
		}
	}

	if err := c.store.Services.Delete(ctx, svc.ID); err != nil {
		return mapStoreErr(err, KindNotFound, KindInternal, "delete service")
	}
	c.audit.Log(ctx, audit.Event{Type: audit.TypeServiceDeleted, ActorID: actor.ID, Resource: svc.ID})
	return nil
}
