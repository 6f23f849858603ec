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

// CreateEndpointTemplate adds a regional URL set for a Service. Service-
// admin; the caller must own the service or have admin.
func (c *Core) CreateEndpointTemplate(ctx context.Context, callerToken string, in *model.EndpointTemplate) (*model.EndpointTemplate, error) {
	actor, err := c.requireServiceAdmin(ctx, callerToken)
	if err != nil {
		return nil, err
	}
	if in.ServiceID == "" || in.PublicURL == "" {
		return nil, fault(KindBadRequest, "service_id and publicURL are required")
	}
	if err := c.requireServiceOwnershipOrAdmin(ctx, actor, in.ServiceID); err != nil {
		return nil, err
	}
	tmpl := &model.EndpointTemplate{
		ID:          id.NewUUIDv7(),
		Region:      in.Region,
		ServiceID:   in.ServiceID,
		PublicURL:   in.PublicURL,
		AdminURL:    in.AdminURL,
		InternalURL: in.InternalURL,
		Enabled:     in.Enabled,
		IsGlobal:    in.IsGlobal,
		VersionID:   in.VersionID,
		VersionList: in.VersionList,
		VersionInfo: in.VersionInfo,
	}
	if err := c.store.EndpointTemplates.Create(ctx, tmpl); err != nil {
		return nil, mapStoreErr(err, KindInternal, KindConflict, "create endpoint template")
	}
	c.audit.Log(ctx, audit.Event{Type: audit.TypeEndpointTemplateAdded, ActorID: actor.ID, Resource: tmpl.ID})
	return tmpl, nil
}

// GetEndpointTemplate returns an EndpointTemplate by id.
func (c *Core) GetEndpointTemplate(ctx context.Context, templateID string) (*model.EndpointTemplate, error) {
	t, err := c.store.EndpointTemplates.GetByID(ctx, templateID)
	if err != nil {
		return nil, mapStoreErr(err, KindNotFound, KindInternal, "get endpoint template")
	}
	return t, nil
}

// ListEndpointTemplates returns a page of templates, or every template
// belonging to serviceID if non-empty.
func (c *Core) ListEndpointTemplates(ctx context.Context, serviceID string, p store.Page) ([]*model.EndpointTemplate, string, string, error) {
	if serviceID != "" {
		items, err := c.store.EndpointTemplates.EndpointTemplatesByServicePage(ctx, serviceID, p)
		if err != nil {
			return nil, "", "", wrapFault(KindInternal, "list service endpoint templates", err)
		}
		return items, "", "", nil
	}
	items, err := c.store.EndpointTemplates.GetPage(ctx, p)
	if err != nil {
		return nil, "", "", wrapFault(KindInternal, "list endpoint templates", err)
	}
	prev, next, err := c.store.EndpointTemplates.GetPageMarkers(ctx, p)
	if err != nil {
		return nil, "", "", wrapFault(KindInternal, "list endpoint templates", err)
	}
	return items, prev, next, nil
}

// UpdateEndpointTemplate patches the URL set and version metadata of an
// existing EndpointTemplate. Same ownership rule as create; ServiceID and
// IsGlobal are immutable once set.
func (c *Core) UpdateEndpointTemplate(ctx context.Context, callerToken, templateID string, patch *model.EndpointTemplate) (*model.EndpointTemplate, error) {
	actor, err := c.requireServiceAdmin(ctx, callerToken)
	if err != nil {
		return nil, err
	}
	tmpl, err := c.store.EndpointTemplates.GetByID(ctx, templateID)
	if err != nil {
		return nil, mapStoreErr(err, KindNotFound, KindInternal, "get endpoint template")
	}
	if err := c.requireServiceOwnershipOrAdmin(ctx, actor, tmpl.ServiceID); err != nil {
		return nil, err
	}
	if patch.Region != "" {
		tmpl.Region = patch.Region
	}
	if patch.PublicURL != "" {
		tmpl.PublicURL = patch.PublicURL
	}
	if patch.AdminURL != "" {
		tmpl.AdminURL = patch.AdminURL
	}
	if patch.InternalURL != "" {
		tmpl.InternalURL = patch.InternalURL
	}
	if patch.VersionID != "" {
		tmpl.VersionID = patch.VersionID
	}
	if patch.VersionList != "" {
		tmpl.VersionList = patch.VersionList
	}
	if patch.VersionInfo != "" {
		tmpl.VersionInfo = patch.VersionInfo
	}
	tmpl.Enabled = patch.Enabled
	if err := c.store.EndpointTemplates.Update(ctx, tmpl); err != nil {
		return nil, mapStoreErr(err, KindNotFound, KindInternal, "update endpoint template")
	}
	c.audit.Log(ctx, audit.Event{Type: audit.TypeEndpointTemplateAdded, ActorID: actor.ID, Resource: tmpl.ID})
	return tmpl, nil
}

// DeleteEndpointTemplate deletes an EndpointTemplate and cascades its
// tenant-bound Endpoints (spec §4.4.4 invariant 4). Same ownership rule as
// create.
func (c *Core) DeleteEndpointTemplate(ctx context.Context, callerToken, templateID string) error {
	actor, err := c.requireServiceAdmin(ctx, callerToken)
	if err != nil {
		return err
	}
	tmpl, err := c.store.EndpointTemplates.GetByID(ctx, templateID)
	if err != nil {
		return mapStoreErr(err, KindNotFound, KindInternal, "get endpoint template")
	}
	if err := c.requireServiceOwnershipOrAdmin(ctx, actor, tmpl.ServiceID); err != nil {
		return err
	}
	if err := c.store.Endpoints.DeleteByTemplate(ctx, templateID); err != nil {
		return wrapFault(KindInternal, "delete template endpoints", err)
	}
	if err := c.store.EndpointTemplates.Delete(ctx, templateID); err != nil {
		return mapStoreErr(err, KindNotFound, KindInternal, "delete endpoint template")
	}
	return nil
}

// BindEndpoint binds an EndpointTemplate to a Tenant (POST
// /tenants/{id}/OS-KSCATALOG/endpoints). Admin-only: endpoint visibility is a tenant-
// scoped concern separate from service ownership.
func (c *Core) BindEndpoint(ctx context.Context, callerToken, tenantID, templateID string) (*model.Endpoint, error) {
	actor, err := c.requireAdmin(ctx, callerToken)
	if err != nil {
		return nil, err
	}
	if _, err := c.store.Tenants.GetByID(ctx, tenantID); err != nil {
		return nil, mapStoreErr(err, KindNotFound, KindInternal, "get tenant")
	}
	if _, err := c.store.EndpointTemplates.GetByID(ctx, templateID); err != nil {
		return nil, mapStoreErr(err, KindNotFound, KindInternal, "get endpoint template")
	}
	ep := &model.Endpoint{ID: id.NewUUIDv7(), TenantID: tenantID, EndpointTemplateID: templateID}
	if err := c.store.Endpoints.Create(ctx, ep); err != nil {
		return nil, mapStoreErr(err, KindInternal, KindConflict, "bind endpoint")
	}
	c.audit.Log(ctx, audit.Event{Type: audit.TypeEndpointAdded, TenantID: tenantID, ActorID: actor.ID, Resource: ep.ID})
	return ep, nil
}

// GetEndpoint returns an Endpoint binding by id.
func (c *Core) GetEndpoint(ctx context.Context, endpointID string) (*model.Endpoint, error) {
	e, err := c.store.Endpoints.GetByID(ctx, endpointID)
	if err != nil {
		return nil, mapStoreErr(err, KindNotFound, KindInternal, "get endpoint")
	}
	return e, nil
}

// EndpointsForTenant lists a tenant's bound Endpoints.
func (c *Core) EndpointsForTenant(ctx context.Context, tenantID string, p store.Page) ([]*model.Endpoint, error) {
	items, err := c.store.Endpoints.EndpointsForTenantPage(ctx, tenantID, p)
	if err != nil {
		return nil, wrapFault(KindInternal, "list tenant endpoints", err)
	}
	return items, nil
}

// UnbindEndpoint removes a Tenant/EndpointTemplate binding. Admin-only.
func (c *Core) UnbindEndpoint(ctx context.Context, callerToken, endpointID string) error {
	if _, err := c.requireAdmin(ctx, callerToken); err != nil {
		return err
	}
	if err := c.store.Endpoints.Delete(ctx, endpointID); err != nil {
		return mapStoreErr(err, KindNotFound, KindInternal, "delete endpoint")
	}
	return nil
}
