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

// Tokens is the in-memory TokenRepository.
type Tokens struct {
	mu   sync.RWMutex
	data map[string]*model.Token
}

func newTokens() *Tokens {
	return &Tokens{data: make(map[string]*model.Token)}
}

func (r *Tokens) Create(_ context.Context, t *model.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *t
	r.data[t.ID] = &c
	return nil
}

func (r *Tokens) GetByID(_ context.Context, id string) (*model.Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.data[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := *t
	return &c, nil
}

func (r *Tokens) ForUserAndTenant(_ context.Context, userID, tenantID string) ([]*model.Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.Token
	for _, t := range r.data {
		if t.UserID == userID && t.TenantID == tenantID {
			c := *t
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *Tokens) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.data, id)
	return nil
}

func (r *Tokens) DeleteByUserID(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, t := range r.data {
		if t.UserID == userID {
			delete(r.data, id)
		}
	}
	return nil
}
