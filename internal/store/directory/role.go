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

// Roles is the in-memory RoleRepository.
type Roles struct {
	idIndex
	mu   sync.RWMutex
	data map[string]*model.Role
}

func newRoles() *Roles {
	return &Roles{data: make(map[string]*model.Role)}
}

func cloneRole(r *model.Role) *model.Role {
	c := *r
	return &c
}

func (r *Roles) Create(_ context.Context, role *model.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.data[role.ID]; exists {
		return store.ErrConflict
	}
	for _, v := range r.data {
		if v.Name == role.Name {
			return store.ErrConflict
		}
	}
	r.data[role.ID] = cloneRole(role)
	r.insert(role.ID)
	return nil
}

func (r *Roles) GetByID(_ context.Context, id string) (*model.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	role, ok := r.data[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneRole(role), nil
}

func (r *Roles) GetByName(_ context.Context, name string) (*model.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, role := range r.data {
		if role.Name == name {
			return cloneRole(role), nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *Roles) Update(_ context.Context, role *model.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[role.ID]; !ok {
		return store.ErrNotFound
	}
	for id, v := range r.data {
		if id != role.ID && v.Name == role.Name {
			return store.ErrConflict
		}
	}
	r.data[role.ID] = cloneRole(role)
	return nil
}

func (r *Roles) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.data, id)
	r.remove(id)
	return nil
}

func (r *Roles) GetPage(_ context.Context, p store.Page) ([]*model.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := page(r.snapshot(), p.Marker, p.Limit)
	out := make([]*model.Role, 0, len(ids))
	for _, id := range ids {
		out = append(out, cloneRole(r.data[id]))
	}
	return out, nil
}

func (r *Roles) GetPageMarkers(_ context.Context, p store.Page) (string, string, error) {
	prev, next := pageMarkers(r.snapshot(), p.Marker, p.Limit)
	return prev, next, nil
}

func (r *Roles) ListByService(_ context.Context, serviceID string) ([]*model.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.Role
	for _, id := range r.snapshot() {
		if role := r.data[id]; role.ServiceID == serviceID {
			out = append(out, cloneRole(role))
		}
	}
	return out, nil
}
