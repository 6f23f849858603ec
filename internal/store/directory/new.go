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

import "github.com/opentrusty/keystone-id/internal/store"

// New builds a store.Store backed entirely by in-process maps. It never
// returns an error; there is no external resource to fail to reach.
func New() *store.Store {
	grants := newGrants()
	return &store.Store{
		Tenants:           newTenants(grants),
		Users:             newUsers(grants),
		Roles:             newRoles(),
		Services:          newServices(),
		EndpointTemplates: newEndpointTemplates(),
		Endpoints:         newEndpoints(),
		Grants:            grants,
		Tokens:            newTokens(),
		Credentials:       newCredentials(),
	}
}
