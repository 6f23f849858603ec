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

package postgres

import "github.com/opentrusty/keystone-id/internal/store"

// New builds a store.Store backed by a PostgreSQL database reachable
// through db. Callers are expected to have run Migrate beforehand.
func New(db *DB) *store.Store {
	return &store.Store{
		Tenants:           NewTenantRepository(db),
		Users:             NewUserRepository(db),
		Roles:             NewRoleRepository(db),
		Services:          NewServiceRepository(db),
		EndpointTemplates: NewEndpointTemplateRepository(db),
		Endpoints:         NewEndpointRepository(db),
		Grants:            NewGrantRepository(db),
		Tokens:            NewTokenRepository(db),
		Credentials:       NewCredentialsRepository(db),
	}
}
