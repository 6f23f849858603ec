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
	"net/http"
	"strings"
)

// Inbound claim headers (spec §4.5 step 1: X-Auth-Token, fallback
// X-Storage-Token).
const (
	headerAuthToken    = "X-Auth-Token"
	headerStorageToken = "X-Storage-Token"
)

// Outbound identity headers the middleware stamps on success (spec §4.5
// step 4), plus their deprecated aliases.
const (
	headerIdentityStatus = "X-Identity-Status"
	headerAuthorization  = "X-Authorization"
	headerTenantID       = "X-Tenant-Id"
	headerTenantName     = "X-Tenant-Name"
	headerUserID         = "X-User-Id"
	headerUserName       = "X-User-Name"
	headerRoles          = "X-Roles"
	headerCapabilities   = "X-Capabilities"

	headerTenantAlias = "X-Tenant"
	headerUserAlias   = "X-User"
	headerRoleAlias   = "X-Role"
)

// identityHeaders the middleware owns end to end: every one of these is
// stripped from the inbound request before decoration, so a caller cannot
// spoof identity by presenting its own copy (header hygiene, spec §4.5).
var identityHeaders = []string{
	headerIdentityStatus, headerAuthorization,
	headerTenantID, headerTenantName, headerUserID, headerUserName, headerRoles,
	headerCapabilities,
	headerTenantAlias, headerUserAlias, headerRoleAlias,
}

// stripInboundHeaders removes every identity header and the HTTP_-prefixed
// CGI-convention variants from r before the middleware stamps its own
// values, preventing a caller from injecting a forged identity ("header
// hygiene": spec §4.5).
func stripInboundHeaders(r *http.Request) {
	for _, h := range identityHeaders {
		r.Header.Del(h)
		r.Header.Del("HTTP_" + strings.ReplaceAll(strings.ToUpper(h), "-", "_"))
	}
}

// extractClaim reads the bearer claim from the primary header, falling
// back to the deprecated storage-token header.
func extractClaim(r *http.Request) string {
	if v := r.Header.Get(headerAuthToken); v != "" {
		return v
	}
	return r.Header.Get(headerStorageToken)
}

// decorate stamps the confirmed identity headers onto r, including the
// deprecated aliases (spec §4.5 step 4).
func decorate(r *http.Request, id *Identity) {
	r.Header.Set(headerIdentityStatus, "Confirmed")
	r.Header.Set(headerAuthorization, "Proxy "+id.UserName)
	r.Header.Set(headerUserID, id.UserID)
	r.Header.Set(headerUserName, id.UserName)
	r.Header.Set(headerUserAlias, id.UserName)
	if id.TenantID != "" {
		r.Header.Set(headerTenantID, id.TenantID)
		r.Header.Set(headerTenantName, id.TenantName)
		r.Header.Set(headerTenantAlias, id.TenantName)
	}
	if len(id.Roles) > 0 {
		joined := strings.Join(id.Roles, ",")
		r.Header.Set(headerRoles, joined)
		r.Header.Set(headerRoleAlias, joined)
	}
	if len(id.Capabilities) > 0 {
		r.Header.Set(headerCapabilities, strings.Join(id.Capabilities, ","))
	}
}

// markUnconfirmed stamps the delay-auth-decision header set: the request
// is forwarded downstream without an identity, and the downstream service
// decides whether to reject it (spec §4.5 step 2).
func markUnconfirmed(r *http.Request) {
	r.Header.Set(headerIdentityStatus, "Invalid")
}
