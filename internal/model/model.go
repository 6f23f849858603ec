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

// Package model holds the entity records of the identity core (C2) and their
// dual JSON/XML wire representations.
//
// Purpose: static, statically-declared replacement for a dict-as-model
// source: every entity is a plain record with a small Extra map for
// passthrough attributes the whitelist doesn't know about.
// Domain: Identity
package model

import "time"

// Tenant is an isolated project/account namespace.
type Tenant struct {
	ID          string
	Name        string
	Description string
	Enabled     bool
	Extra       map[string]any
}

// User is a principal that authenticates against the identity core.
type User struct {
	ID       string
	Name     string
	Password string // never rendered
	Email    string
	Enabled  bool
	TenantID string // optional default tenant; "" means none
	Extra    map[string]any
}

// Role is a named grant, optionally owned by a Service.
type Role struct {
	ID          string
	Name        string
	Description string
	ServiceID   string // optional
}

// Service is a named, typed collaborator whose endpoints are cataloged.
type Service struct {
	ID          string
	Name        string
	Type        string
	Description string
	OwnerID     string
}

// EndpointTemplate is a regional URL set for a Service.
type EndpointTemplate struct {
	ID          string
	Region      string
	ServiceID   string
	PublicURL   string
	AdminURL    string
	InternalURL string
	Enabled     bool
	IsGlobal    bool
	VersionID   string
	VersionList string
	VersionInfo string
}

// Endpoint binds an EndpointTemplate to a Tenant.
type Endpoint struct {
	ID                 string
	TenantID           string
	EndpointTemplateID string
}

// UserRoleAssociation grants a Role to a User, globally or within a Tenant.
type UserRoleAssociation struct {
	UserID   string
	RoleID   string
	TenantID string // "" means global grant
}

// Token is an opaque bearer credential issued by authentication.
type Token struct {
	ID       string
	UserID   string
	TenantID string // "" means unscoped
	Expires  time.Time
	Created  time.Time
}

// IsExpired reports whether the token has expired as of now.
func (t *Token) IsExpired() bool {
	return !t.Expires.After(time.Now())
}

// Credentials carries a secondary authentication credential for a User
// (e.g. EC2-style access key/secret).
type Credentials struct {
	ID       string
	UserID   string
	TenantID string
	Type     string
	Key      string
	Secret   string
}

// CredentialTypeEC2 is the well-known Credentials.Type for EC2-style signed
// requests (C3).
const CredentialTypeEC2 = "EC2"

// Link is a paged-collection navigation link (C6).
type Link struct {
	Rel  string
	Href string
}
