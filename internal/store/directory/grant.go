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

// grantKey uniquely identifies a (user, role, tenant) grant tuple; ""
// TenantID means a global grant.
type grantKey struct {
	UserID, RoleID, TenantID string
}

// Grants is the in-memory GrantRepository. At most one association exists
// per (UserID, RoleID, TenantID) tuple, enforced by using the tuple as the
// map key.
type Grants struct {
	mu   sync.RWMutex
	data map[grantKey]*model.UserRoleAssociation
}

func newGrants() *Grants {
	return &Grants{data: make(map[grantKey]*model.UserRoleAssociation)}
}

func (r *Grants) Grant(_ context.Context, a *model.UserRoleAssociation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := grantKey{a.UserID, a.RoleID, a.TenantID}
	if _, exists := r.data[k]; exists {
		return store.ErrConflict
	}
	c := *a
	r.data[k] = &c
	return nil
}

func (r *Grants) Revoke(_ context.Context, userID, roleID, tenantID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := grantKey{userID, roleID, tenantID}
	if _, exists := r.data[k]; !exists {
		return store.ErrNotFound
	}
	delete(r.data, k)
	return nil
}

func (r *Grants) RolesForUserPage(_ context.Context, userID, tenantID string, p store.Page) ([]*model.UserRoleAssociation, error) {
	r.mu.RLock()
	all := r.forUserLocked(userID, tenantID, true)
	r.mu.RUnlock()
	ids := make([]string, len(all))
	byID := make(map[string]*model.UserRoleAssociation, len(all))
	for i, a := range all {
		ids[i] = a.RoleID
		byID[a.RoleID] = a
	}
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))
	paged := page(ids, p.Marker, p.Limit)
	out := make([]*model.UserRoleAssociation, 0, len(paged))
	for _, id := range paged {
		out = append(out, byID[id])
	}
	return out, nil
}

func (r *Grants) GlobalRolesForUser(_ context.Context, userID string) ([]*model.UserRoleAssociation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.forUserLocked(userID, "", false), nil
}

func (r *Grants) TenantRolesForUser(_ context.Context, userID, tenantID string) ([]*model.UserRoleAssociation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.forUserLocked(userID, tenantID, false), nil
}

// forUserLocked must be called with r.mu held. scopeAny, when true, returns
// every grant for the user regardless of tenant (used by RolesForUserPage);
// otherwise it returns grants exactly matching tenantID ("" for global).
func (r *Grants) forUserLocked(userID, tenantID string, scopeAny bool) []*model.UserRoleAssociation {
	var out []*model.UserRoleAssociation
	for k, a := range r.data {
		if k.UserID != userID {
			continue
		}
		if !scopeAny && k.TenantID != tenantID {
			continue
		}
		c := *a
		out = append(out, &c)
	}
	return out
}

func (r *Grants) RevokeAllForRole(_ context.Context, roleID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k := range r.data {
		if k.RoleID == roleID {
			delete(r.data, k)
		}
	}
	return nil
}

// tenantsForUser returns the distinct tenant ids a user holds any grant in,
// sorted descending, for TenantsForUserPage.
func (r *Grants) tenantsForUser(userID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]bool)
	var out []string
	for k := range r.data {
		if k.UserID == userID && k.TenantID != "" && !seen[k.TenantID] {
			seen[k.TenantID] = true
			out = append(out, k.TenantID)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	return out
}

// usersForTenant returns the distinct user ids holding any grant scoped to
// a tenant, sorted descending, for UsersByTenantPage.
func (r *Grants) usersForTenant(tenantID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]bool)
	var out []string
	for k := range r.data {
		if k.TenantID == tenantID && !seen[k.UserID] {
			seen[k.UserID] = true
			out = append(out, k.UserID)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	return out
}
