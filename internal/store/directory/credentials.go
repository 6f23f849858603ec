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

// Credentials is the in-memory CredentialsRepository.
type Credentials struct {
	idIndex
	mu   sync.RWMutex
	data map[string]*model.Credentials
}

func newCredentials() *Credentials {
	return &Credentials{data: make(map[string]*model.Credentials)}
}

func cloneCredentials(c *model.Credentials) *model.Credentials {
	cp := *c
	return &cp
}

func (r *Credentials) Create(_ context.Context, c *model.Credentials) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.data[c.ID]; exists {
		return store.ErrConflict
	}
	for _, v := range r.data {
		if v.Key == c.Key {
			return store.ErrConflict
		}
	}
	r.data[c.ID] = cloneCredentials(c)
	r.insert(c.ID)
	return nil
}

func (r *Credentials) GetByID(_ context.Context, id string) (*model.Credentials, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.data[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneCredentials(c), nil
}

func (r *Credentials) GetByKey(_ context.Context, key string) (*model.Credentials, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.data {
		if c.Key == key {
			return cloneCredentials(c), nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *Credentials) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.data, id)
	r.remove(id)
	return nil
}

func (r *Credentials) GetPageForUser(_ context.Context, userID string, p store.Page) ([]*model.Credentials, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ids []string
	for _, id := range r.snapshot() {
		if r.data[id].UserID == userID {
			ids = append(ids, id)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))
	paged := page(ids, p.Marker, p.Limit)
	out := make([]*model.Credentials, 0, len(paged))
	for _, id := range paged {
		out = append(out, cloneCredentials(r.data[id]))
	}
	return out, nil
}
