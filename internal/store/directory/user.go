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

// Users is the in-memory UserRepository.
type Users struct {
	idIndex
	mu     sync.RWMutex
	data   map[string]*model.User
	grants *Grants
}

func newUsers(grants *Grants) *Users {
	return &Users{data: make(map[string]*model.User), grants: grants}
}

func cloneUser(u *model.User) *model.User {
	c := *u
	c.Extra = make(map[string]any, len(u.Extra))
	for k, v := range u.Extra {
		c.Extra[k] = v
	}
	return &c
}

func (r *Users) Create(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.data[u.ID]; exists {
		return store.ErrConflict
	}
	for _, v := range r.data {
		if v.Name == u.Name {
			return store.ErrConflict
		}
	}
	r.data[u.ID] = cloneUser(u)
	r.insert(u.ID)
	return nil
}

func (r *Users) GetByID(_ context.Context, id string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.data[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *Users) GetByName(_ context.Context, name string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.data {
		if u.Name == name {
			return cloneUser(u), nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *Users) Update(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[u.ID]; !ok {
		return store.ErrNotFound
	}
	for id, v := range r.data {
		if id != u.ID && v.Name == u.Name {
			return store.ErrConflict
		}
	}
	r.data[u.ID] = cloneUser(u)
	return nil
}

func (r *Users) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.data, id)
	r.remove(id)
	return nil
}

func (r *Users) GetPage(_ context.Context, p store.Page) ([]*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := page(r.snapshot(), p.Marker, p.Limit)
	out := make([]*model.User, 0, len(ids))
	for _, id := range ids {
		out = append(out, cloneUser(r.data[id]))
	}
	return out, nil
}

func (r *Users) GetPageMarkers(_ context.Context, p store.Page) (string, string, error) {
	prev, next := pageMarkers(r.snapshot(), p.Marker, p.Limit)
	return prev, next, nil
}

func (r *Users) ExistsWithDefaultTenant(_ context.Context, tenantID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.data {
		if u.TenantID == tenantID {
			return true, nil
		}
	}
	return false, nil
}

func (r *Users) UsersByTenantPage(_ context.Context, tenantID string, p store.Page) ([]*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	userIDs := r.grants.usersForTenant(tenantID)
	ids := page(userIDs, p.Marker, p.Limit)
	out := make([]*model.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := r.data[id]; ok {
			out = append(out, cloneUser(u))
		}
	}
	return out, nil
}
