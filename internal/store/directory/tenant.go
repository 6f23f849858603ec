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

package directory

import (
	"context"
	"sync"

	"github.com/opentrusty/keystone-id/internal/model"
	"github.com/opentrusty/keystone-id/internal/store"
)

// Tenants is the in-memory TenantRepository.
type Tenants struct {
	idIndex
	mu   sync.RWMutex
	data map[string]*model.Tenant
	// grants lets TenantsForUserPage answer without reaching into the
	// Grants repository; it's kept in sync by Store.Grants.Grant/Revoke.
	grants *Grants
}

func newTenants(grants *Grants) *Tenants {
	return &Tenants{data: make(map[string]*model.Tenant), grants: grants}
}

func cloneTenant(t *model.Tenant) *model.Tenant {
	c := *t
	c.Extra = make(map[string]any, len(t.Extra))
	for k, v := range t.Extra {
		c.Extra[k] = v
	}
	return &c
}

func (r *Tenants) Create(_ context.Context, t *model.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.data[t.ID]; exists {
		return store.ErrConflict
	}
	for _, v := range r.data {
		if v.Name == t.Name {
			return store.ErrConflict
		}
	}
	r.data[t.ID] = cloneTenant(t)
	r.insert(t.ID)
	return nil
}

func (r *Tenants) GetByID(_ context.Context, id string) (*model.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.data[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneTenant(t), nil
}

func (r *Tenants) GetByName(_ context.Context, name string) (*model.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.data {
		if t.Name == name {
			return cloneTenant(t), nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *Tenants) Update(_ context.Context, t *model.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[t.ID]; !ok {
		return store.ErrNotFound
	}
	for id, v := range r.data {
		if id != t.ID && v.Name == t.Name {
			return store.ErrConflict
		}
	}
	r.data[t.ID] = cloneTenant(t)
	return nil
}

func (r *Tenants) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.data, id)
	r.remove(id)
	return nil
}

func (r *Tenants) GetPage(_ context.Context, p store.Page) ([]*model.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := page(r.snapshot(), p.Marker, p.Limit)
	out := make([]*model.Tenant, 0, len(ids))
	for _, id := range ids {
		out = append(out, cloneTenant(r.data[id]))
	}
	return out, nil
}

func (r *Tenants) GetPageMarkers(_ context.Context, p store.Page) (string, string, error) {
	prev, next := pageMarkers(r.snapshot(), p.Marker, p.Limit)
	return prev, next, nil
}

func (r *Tenants) TenantsForUserPage(_ context.Context, userID string, p store.Page) ([]*model.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tenantIDs := r.grants.tenantsForUser(userID)
	ids := page(tenantIDs, p.Marker, p.Limit)
	out := make([]*model.Tenant, 0, len(ids))
	for _, id := range ids {
		if t, ok := r.data[id]; ok {
			out = append(out, cloneTenant(t))
		}
	}
	return out, nil
}
