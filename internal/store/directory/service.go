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

// Services is the in-memory ServiceRepository.
type Services struct {
	idIndex
	mu   sync.RWMutex
	data map[string]*model.Service
}

func newServices() *Services {
	return &Services{data: make(map[string]*model.Service)}
}

func cloneService(s *model.Service) *model.Service {
	c := *s
	return &c
}

func (r *Services) Create(_ context.Context, s *model.Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.data[s.ID]; exists {
		return store.ErrConflict
	}
	for _, v := range r.data {
		if v.Name == s.Name {
			return store.ErrConflict
		}
	}
	r.data[s.ID] = cloneService(s)
	r.insert(s.ID)
	return nil
}

func (r *Services) GetByID(_ context.Context, id string) (*model.Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.data[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneService(s), nil
}

func (r *Services) GetByName(_ context.Context, name string) (*model.Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.data {
		if s.Name == name {
			return cloneService(s), nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *Services) Update(_ context.Context, s *model.Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[s.ID]; !ok {
		return store.ErrNotFound
	}
	for id, v := range r.data {
		if id != s.ID && v.Name == s.Name {
			return store.ErrConflict
		}
	}
	r.data[s.ID] = cloneService(s)
	return nil
}

func (r *Services) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.data, id)
	r.remove(id)
	return nil
}

func (r *Services) GetPage(_ context.Context, p store.Page) ([]*model.Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := page(r.snapshot(), p.Marker, p.Limit)
	out := make([]*model.Service, 0, len(ids))
	for _, id := range ids {
		out = append(out, cloneService(r.data[id]))
	}
	return out, nil
}

func (r *Services) GetPageMarkers(_ context.Context, p store.Page) (string, string, error) {
	prev, next := pageMarkers(r.snapshot(), p.Marker, p.Limit)
	return prev, next, nil
}
