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

// Package authtoken is the auth-token middleware (C5): it extracts a
// claim from an inbound request, validates it against the identity core
// (in-process or over HTTPS), and decorates the downstream request with
// identity headers (spec §4.5).
package authtoken

import "context"

// Identity is what a TokenValidator resolves a claim to: the principal,
// its scope, and the roles/capabilities the middleware renders into
// headers for the downstream service.
type Identity struct {
	UserID       string
	UserName     string
	TenantID     string
	TenantName   string
	Roles        []string
	Capabilities []string // only populated when the scoped service type is "compute"
}

// TokenValidator resolves a bearer claim to an Identity. The middleware is
// built once with one of two implementations — EmbeddedValidator (in-
// process core call) or RemoteValidator (HTTPS calls to a remote identity
// service) — selected at construction time, so the middleware itself
// never branches between the two (spec §4.5, design note in spec §9).
type TokenValidator interface {
	Validate(ctx context.Context, claim string) (*Identity, error)
}
