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

package authtoken

import (
	"context"
	"strings"

	"github.com/opentrusty/keystone-id/internal/identitycore"
	"github.com/opentrusty/keystone-id/internal/model"
)

// EmbeddedValidator validates tokens with an in-process call into the
// identity core, used when the middleware and the identity service share
// a process (spec §4.5 step 3, embedded mode).
type EmbeddedValidator struct {
	Core *identitycore.Core
}

// NewEmbeddedValidator builds a validator backed by an in-process core.
func NewEmbeddedValidator(core *identitycore.Core) *EmbeddedValidator {
	return &EmbeddedValidator{Core: core}
}

func (v *EmbeddedValidator) Validate(ctx context.Context, claim string) (*Identity, error) {
	tok, user, err := v.Core.ValidateToken(ctx, claim, "")
	if err != nil {
		return nil, err
	}

	roles, err := v.Core.RolesInScope(ctx, user.ID, tok.TenantID)
	if err != nil {
		return nil, err
	}
	roleNames := make([]string, len(roles))
	for i, r := range roles {
		roleNames[i] = r.Name
	}

	id := &Identity{
		UserID:   user.ID,
		UserName: user.Name,
		Roles:    roleNames,
	}

	if tok.TenantID == "" {
		return id, nil
	}

	tenant, err := v.Core.GetTenant(ctx, tok.TenantID)
	if err != nil {
		return nil, err
	}
	id.TenantID = tenant.ID
	id.TenantName = tenant.Name

	entries, err := v.Core.EndpointsForToken(ctx, tok.ID)
	if err != nil {
		return nil, err
	}
	id.Capabilities = capabilitiesOf(entries)

	return id, nil
}

// capabilitiesOf narrows the tenant's endpoints catalog to the "compute"
// service type only (spec Open Question resolution §4.4, middleware
// capabilities override) and renders each matching template's advertised
// API versions as the capability list; there is no separate capabilities
// field on EndpointTemplate to copy verbatim.
func capabilitiesOf(entries []model.CatalogEntry) []string {
	var caps []string
	for _, e := range entries {
		if e.ServiceType != "compute" || e.Template.VersionList == "" {
			continue
		}
		caps = append(caps, strings.Split(e.Template.VersionList, ",")...)
	}
	return caps
}
