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
	"sort"
	"sync"

	"github.com/opentrusty/keystone-id/internal/model"
	"github.com/opentrusty/keystone-id/internal/store"
)

// EndpointTemplates is the in-memory EndpointTemplateRepository.
type EndpointTemplates struct {
	idIndex
	mu   sync.RWMutex
	data map[string]*model.EndpointTemplate
}

func newEndpointTemplates() *EndpointTemplates {
	return &EndpointTemplates{data: make(map[string]*model.EndpointTemplate)}
}

func cloneEndpointTemplate(e *model.EndpointTemplate) *model.EndpointTemplate {
	c := *e
	return &c
}

func (r *EndpointTemplates) Create(_ context.Context, e *model.EndpointTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.data[e.ID]; exists {
		return store.ErrConflict
	}
	r.data[e.ID] = cloneEndpointTemplate(e)
	r.insert(e.ID)
	return nil
}

func (r *EndpointTemplates) GetByID(_ context.Context, id string) (*model.EndpointTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.data[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneEndpointTemplate(e), nil
}

func (r *EndpointTemplates) Update(_ context.Context, e *model.EndpointTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[e.ID]; !ok {
		return store.ErrNotFound
	}
	r.data[e.ID] = cloneEndpointTemplate(e)
	return nil
}

func (r *EndpointTemplates) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.data, id)
	r.remove(id)
	return nil
}

func (r *EndpointTemplates) GetPage(_ context.Context, p store.Page) ([]*model.EndpointTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := page(r.snapshot(), p.Marker, p.Limit)
	out := make([]*model.EndpointTemplate, 0, len(ids))
	for _, id := range ids {
		out = append(out, cloneEndpointTemplate(r.data[id]))
	}
	return out, nil
}

func (r *EndpointTemplates) GetPageMarkers(_ context.Context, p store.Page) (string, string, error) {
	prev, next := pageMarkers(r.snapshot(), p.Marker, p.Limit)
	return prev, next, nil
}

func (r *EndpointTemplates) EndpointTemplatesByServicePage(_ context.Context, serviceID string, p store.Page) ([]*model.EndpointTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ids []string
	for _, id := range r.snapshot() {
		if r.data[id].ServiceID == serviceID {
			ids = append(ids, id)
		}
	}
	paged := page(ids, p.Marker, p.Limit)
	out := make([]*model.EndpointTemplate, 0, len(paged))
	for _, id := range paged {
		out = append(out, cloneEndpointTemplate(r.data[id]))
	}
	return out, nil
}

func (r *EndpointTemplates) GlobalPage(_ context.Context, p store.Page) ([]*model.EndpointTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ids []string
	for _, id := range r.snapshot() {
		if r.data[id].IsGlobal {
			ids = append(ids, id)
		}
	}
	paged := page(ids, p.Marker, p.Limit)
	out := make([]*model.EndpointTemplate, 0, len(paged))
	for _, id := range paged {
		out = append(out, cloneEndpointTemplate(r.data[id]))
	}
	return out, nil
}

// Endpoints is the in-memory EndpointRepository.
type Endpoints struct {
	idIndex
	mu   sync.RWMutex
	data map[string]*model.Endpoint
}

func newEndpoints() *Endpoints {
	return &Endpoints{data: make(map[string]*model.Endpoint)}
}

func cloneEndpoint(e *model.Endpoint) *model.Endpoint {
	c := *e
	return &c
}

func (r *Endpoints) Create(_ context.Context, e *model.Endpoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.data[e.ID]; exists {
		return store.ErrConflict
	}
	r.data[e.ID] = cloneEndpoint(e)
	r.insert(e.ID)
	return nil
}

func (r *Endpoints) GetByID(_ context.Context, id string) (*model.Endpoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.data[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneEndpoint(e), nil
}

func (r *Endpoints) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.data, id)
	r.remove(id)
	return nil
}

func (r *Endpoints) GetPage(_ context.Context, p store.Page) ([]*model.Endpoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := page(r.snapshot(), p.Marker, p.Limit)
	out := make([]*model.Endpoint, 0, len(ids))
	for _, id := range ids {
		out = append(out, cloneEndpoint(r.data[id]))
	}
	return out, nil
}

func (r *Endpoints) GetPageMarkers(_ context.Context, p store.Page) (string, string, error) {
	prev, next := pageMarkers(r.snapshot(), p.Marker, p.Limit)
	return prev, next, nil
}

func (r *Endpoints) DeleteByTemplate(_ context.Context, templateID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, e := range r.data {
		if e.EndpointTemplateID == templateID {
			delete(r.data, id)
			r.remove(id)
		}
	}
	return nil
}

func (r *Endpoints) EndpointsForTenantPage(_ context.Context, tenantID string, p store.Page) ([]*model.Endpoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ids []string
	for _, id := range r.snapshot() {
		if r.data[id].TenantID == tenantID {
			ids = append(ids, id)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))
	paged := page(ids, p.Marker, p.Limit)
	out := make([]*model.Endpoint, 0, len(paged))
	for _, id := range paged {
		out = append(out, cloneEndpoint(r.data[id]))
	}
	return out, nil
}
