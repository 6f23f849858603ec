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

package model

import (
	"encoding/json"
	"fmt"
)

// linksJSON renders a []Link as the wire link array: {rel, href} objects.
func linksJSON(links []Link) []map[string]string {
	out := make([]map[string]string, 0, len(links))
	for _, l := range links {
		out = append(out, map[string]string{"rel": l.Rel, "href": l.Href})
	}
	return out
}

// --- Tenant -----------------------------------------------------------

func tenantToMap(t *Tenant) map[string]any {
	m := map[string]any{
		"id":      t.ID,
		"enabled": t.Enabled,
	}
	putIfSet(m, "name", t.Name)
	putIfSet(m, "description", t.Description)
	for k, v := range t.Extra {
		if _, known := m[k]; !known {
			m[k] = v
		}
	}
	return m
}

// EncodeTenantJSON renders the singleton envelope {"tenant": {...}}.
func EncodeTenantJSON(t *Tenant) ([]byte, error) {
	return json.Marshal(map[string]any{"tenant": tenantToMap(t)})
}

// EncodeTenantsJSON renders the collection envelope with paging links.
func EncodeTenantsJSON(list []*Tenant, links []Link) ([]byte, error) {
	out := make([]map[string]any, 0, len(list))
	for _, t := range list {
		out = append(out, tenantToMap(t))
	}
	return json.Marshal(map[string]any{
		"tenants":       out,
		"tenants_links": linksJSON(links),
	})
}

func tenantFromMap(m map[string]any) (*Tenant, error) {
	t := &Tenant{Extra: map[string]any{}}
	if id, ok := getString(m, "id"); ok {
		t.ID = id
	}
	if name, ok := getString(m, "name"); ok {
		t.Name = name
	}
	if desc, ok := getString(m, "description"); ok {
		t.Description = desc
	}
	if raw, ok := m["enabled"]; ok {
		b, err := coerceBool("enabled", raw)
		if err != nil {
			return nil, err
		}
		t.Enabled = b
	}
	known := map[string]bool{"id": true, "name": true, "description": true, "enabled": true}
	for k, v := range m {
		if !known[k] {
			t.Extra[k] = v
		}
	}
	return t, nil
}

// DecodeTenantJSON parses a {"tenant": {...}} envelope. Unknown attributes
// are accepted and passed through via Extra (Tenant is not whitelisted).
func DecodeTenantJSON(data []byte) (*Tenant, error) {
	var env struct {
		Tenant map[string]any `json:"tenant"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode tenant: %w", err)
	}
	return tenantFromMap(env.Tenant)
}

// --- User ---------------------------------------------------------------

func userToMap(u *User) map[string]any {
	m := map[string]any{
		"id":      u.ID,
		"name":    u.Name,
		"enabled": u.Enabled,
	}
	putIfSet(m, "email", u.Email)
	putIfSet(m, "tenantId", u.TenantID)
	// Password is a secret and is never rendered (spec §3).
	for k, v := range u.Extra {
		if _, known := m[k]; !known {
			m[k] = v
		}
	}
	return m
}

// EncodeUserJSON renders the singleton envelope {"user": {...}}.
func EncodeUserJSON(u *User) ([]byte, error) {
	return json.Marshal(map[string]any{"user": userToMap(u)})
}

// EncodeUsersJSON renders the collection envelope with paging links.
func EncodeUsersJSON(list []*User, links []Link) ([]byte, error) {
	out := make([]map[string]any, 0, len(list))
	for _, u := range list {
		out = append(out, userToMap(u))
	}
	return json.Marshal(map[string]any{
		"users":       out,
		"users_links": linksJSON(links),
	})
}

func userFromMap(m map[string]any) (*User, error) {
	u := &User{Extra: map[string]any{}}
	if v, ok := getString(m, "id"); ok {
		u.ID = v
	}
	if v, ok := getString(m, "name"); ok {
		u.Name = v
	}
	if v, ok := getString(m, "password"); ok {
		u.Password = v
	}
	if v, ok := getString(m, "email"); ok {
		u.Email = v
	}
	// External "tenantId" maps to internal TenantID (spec §4.2).
	if v, ok := getString(m, "tenantId"); ok {
		u.TenantID = v
	} else if v, ok := getString(m, "tenant_id"); ok {
		u.TenantID = v
	}
	if raw, ok := m["enabled"]; ok {
		b, err := coerceBool("enabled", raw)
		if err != nil {
			return nil, err
		}
		u.Enabled = b
	}
	known := map[string]bool{
		"id": true, "name": true, "password": true, "email": true,
		"tenantId": true, "tenant_id": true, "enabled": true,
	}
	for k, v := range m {
		if !known[k] {
			u.Extra[k] = v
		}
	}
	return u, nil
}

// DecodeUserJSON parses a {"user": {...}} envelope. Unknown attributes are
// accepted and passed through (User is not whitelisted).
func DecodeUserJSON(data []byte) (*User, error) {
	var env struct {
		User map[string]any `json:"user"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return userFromMap(env.User)
}

// --- Role (whitelist-validated) -----------------------------------------

var roleKnownKeys = map[string]bool{
	"id": true, "name": true, "description": true, "serviceId": true,
}

func roleToMap(r *Role) map[string]any {
	m := map[string]any{
		"id":   r.ID,
		"name": r.Name,
	}
	putIfSet(m, "description", r.Description)
	putIfSet(m, "serviceId", r.ServiceID)
	return m
}

// EncodeRoleJSON renders the singleton envelope {"role": {...}}.
func EncodeRoleJSON(r *Role) ([]byte, error) {
	return json.Marshal(map[string]any{"role": roleToMap(r)})
}

// EncodeRolesJSON renders the collection envelope with paging links.
func EncodeRolesJSON(list []*Role, links []Link) ([]byte, error) {
	out := make([]map[string]any, 0, len(list))
	for _, r := range list {
		out = append(out, roleToMap(r))
	}
	return json.Marshal(map[string]any{
		"roles":       out,
		"roles_links": linksJSON(links),
	})
}

func roleFromMap(m map[string]any) (*Role, error) {
	for k := range m {
		if !roleKnownKeys[k] {
			return nil, &ErrUnknownAttribute{Entity: "Role", Key: k}
		}
	}
	r := &Role{}
	if v, ok := getString(m, "id"); ok {
		r.ID = v
	}
	if v, ok := getString(m, "name"); ok {
		r.Name = v
	}
	if v, ok := getString(m, "description"); ok {
		r.Description = v
	}
	if v, ok := getString(m, "serviceId"); ok {
		r.ServiceID = v
	}
	return r, nil
}

// DecodeRoleJSON parses a {"role": {...}} envelope, rejecting unknown
// attributes (spec §4.2: Role is whitelist-validated).
func DecodeRoleJSON(data []byte) (*Role, error) {
	var env struct {
		Role map[string]any `json:"role"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode role: %w", err)
	}
	return roleFromMap(env.Role)
}

// --- Service (OS-KSADM prefix, whitelist-validated) ----------------------

var serviceKnownKeys = map[string]bool{
	"id": true, "name": true, "type": true, "description": true, "ownerId": true,
}

func serviceToMap(s *Service) map[string]any {
	m := map[string]any{
		"id":   s.ID,
		"name": s.Name,
		"type": s.Type,
	}
	putIfSet(m, "description", s.Description)
	putIfSet(m, "ownerId", s.OwnerID)
	return m
}

// EncodeServiceJSON renders {"OS-KSADM:service": {...}} (spec §4.2).
func EncodeServiceJSON(s *Service) ([]byte, error) {
	return json.Marshal(map[string]any{"OS-KSADM:service": serviceToMap(s)})
}

// EncodeServicesJSON renders {"OS-KSADM:services": [...], ..._links: [...]}.
func EncodeServicesJSON(list []*Service, links []Link) ([]byte, error) {
	out := make([]map[string]any, 0, len(list))
	for _, s := range list {
		out = append(out, serviceToMap(s))
	}
	return json.Marshal(map[string]any{
		"OS-KSADM:services":       out,
		"OS-KSADM:services_links": linksJSON(links),
	})
}

func serviceFromMap(m map[string]any) (*Service, error) {
	for k := range m {
		if !serviceKnownKeys[k] {
			return nil, &ErrUnknownAttribute{Entity: "Service", Key: k}
		}
	}
	s := &Service{}
	if v, ok := getString(m, "id"); ok {
		s.ID = v
	}
	if v, ok := getString(m, "name"); ok {
		s.Name = v
	}
	if v, ok := getString(m, "type"); ok {
		s.Type = v
	}
	if v, ok := getString(m, "description"); ok {
		s.Description = v
	}
	if v, ok := getString(m, "ownerId"); ok {
		s.OwnerID = v
	}
	return s, nil
}

// DecodeServiceJSON parses a {"OS-KSADM:service": {...}} envelope, rejecting
// unknown attributes.
func DecodeServiceJSON(data []byte) (*Service, error) {
	var env struct {
		Service map[string]any `json:"OS-KSADM:service"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode service: %w", err)
	}
	return serviceFromMap(env.Service)
}

// --- EndpointTemplate -----------------------------------------------------

func endpointTemplateToMap(e *EndpointTemplate) map[string]any {
	m := map[string]any{
		"id":       e.ID,
		"enabled":  e.Enabled,
		"global":   e.IsGlobal,
	}
	putIfSet(m, "region", e.Region)
	putIfSet(m, "serviceId", e.ServiceID)
	putIfSet(m, "publicURL", e.PublicURL)
	putIfSet(m, "adminURL", e.AdminURL)
	putIfSet(m, "internalURL", e.InternalURL)
	putIfSet(m, "versionId", e.VersionID)
	putIfSet(m, "versionList", e.VersionList)
	putIfSet(m, "versionInfo", e.VersionInfo)
	return m
}

// EncodeEndpointTemplateJSON renders {"endpointTemplate": {...}}.
func EncodeEndpointTemplateJSON(e *EndpointTemplate) ([]byte, error) {
	return json.Marshal(map[string]any{"endpointTemplate": endpointTemplateToMap(e)})
}

// EncodeEndpointTemplatesJSON renders the collection envelope.
func EncodeEndpointTemplatesJSON(list []*EndpointTemplate, links []Link) ([]byte, error) {
	out := make([]map[string]any, 0, len(list))
	for _, e := range list {
		out = append(out, endpointTemplateToMap(e))
	}
	return json.Marshal(map[string]any{
		"endpointTemplates":       out,
		"endpointTemplates_links": linksJSON(links),
	})
}

func endpointTemplateFromMap(m map[string]any) (*EndpointTemplate, error) {
	e := &EndpointTemplate{}
	if v, ok := getString(m, "id"); ok {
		e.ID = v
	}
	if v, ok := getString(m, "region"); ok {
		e.Region = v
	}
	if v, ok := getString(m, "serviceId"); ok {
		e.ServiceID = v
	}
	if v, ok := getString(m, "publicURL"); ok {
		e.PublicURL = v
	}
	if v, ok := getString(m, "adminURL"); ok {
		e.AdminURL = v
	}
	if v, ok := getString(m, "internalURL"); ok {
		e.InternalURL = v
	}
	if v, ok := getString(m, "versionId"); ok {
		e.VersionID = v
	}
	if v, ok := getString(m, "versionList"); ok {
		e.VersionList = v
	}
	if v, ok := getString(m, "versionInfo"); ok {
		e.VersionInfo = v
	}
	if raw, ok := m["enabled"]; ok {
		b, err := coerceBool("enabled", raw)
		if err != nil {
			return nil, err
		}
		e.Enabled = b
	}
	if raw, ok := m["global"]; ok {
		b, err := coerceBool("global", raw)
		if err != nil {
			return nil, err
		}
		e.IsGlobal = b
	}
	return e, nil
}

// DecodeEndpointTemplateJSON parses a {"endpointTemplate": {...}} envelope.
func DecodeEndpointTemplateJSON(data []byte) (*EndpointTemplate, error) {
	var env struct {
		EndpointTemplate map[string]any `json:"endpointTemplate"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode endpoint template: %w", err)
	}
	return endpointTemplateFromMap(env.EndpointTemplate)
}

// --- Endpoint -------------------------------------------------------------

func endpointToMap(e *Endpoint) map[string]any {
	m := map[string]any{"id": e.ID}
	putIfSet(m, "tenantId", e.TenantID)
	putIfSet(m, "endpointTemplateId", e.EndpointTemplateID)
	return m
}

// EncodeEndpointJSON renders {"endpoint": {...}}.
func EncodeEndpointJSON(e *Endpoint) ([]byte, error) {
	return json.Marshal(map[string]any{"endpoint": endpointToMap(e)})
}

// EncodeEndpointsJSON renders the collection envelope.
func EncodeEndpointsJSON(list []*Endpoint, links []Link) ([]byte, error) {
	out := make([]map[string]any, 0, len(list))
	for _, e := range list {
		out = append(out, endpointToMap(e))
	}
	return json.Marshal(map[string]any{
		"endpoints":       out,
		"endpoints_links": linksJSON(links),
	})
}

func endpointFromMap(m map[string]any) (*Endpoint, error) {
	e := &Endpoint{}
	e.ID, _ = getString(m, "id")
	e.TenantID, _ = getString(m, "tenantId")
	if e.TenantID == "" {
		e.TenantID, _ = getString(m, "tenant_id")
	}
	e.EndpointTemplateID, _ = getString(m, "endpointTemplateId")
	if e.EndpointTemplateID == "" {
		e.EndpointTemplateID, _ = getString(m, "endpointTemplate_id")
	}
	return e, nil
}

// DecodeEndpointJSON parses a {"endpoint": {...}} envelope.
func DecodeEndpointJSON(data []byte) (*Endpoint, error) {
	var env struct {
		Endpoint map[string]any `json:"endpoint"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode endpoint json: %w", err)
	}
	return endpointFromMap(env.Endpoint)
}

// --- UserRoleAssociation ---------------------------------------------------

func roleRefToMap(a *UserRoleAssociation, roleName string) map[string]any {
	m := map[string]any{
		"id":   a.RoleID,
		"name": roleName,
	}
	putIfSet(m, "tenantId", a.TenantID)
	return m
}

// EncodeUserRoleJSON renders {"role": {...}} for a single grant, denormalized
// with the role's name (used by GET /users/{id}/roles).
func EncodeUserRoleJSON(a *UserRoleAssociation, roleName string) ([]byte, error) {
	return json.Marshal(map[string]any{"role": roleRefToMap(a, roleName)})
}

// EncodeUserRolesJSON renders the collection envelope for a user's grants.
func EncodeUserRolesJSON(assocs []*UserRoleAssociation, names map[string]string, links []Link) ([]byte, error) {
	out := make([]map[string]any, 0, len(assocs))
	for _, a := range assocs {
		out = append(out, roleRefToMap(a, names[a.RoleID]))
	}
	return json.Marshal(map[string]any{
		"roles":       out,
		"roles_links": linksJSON(links),
	})
}

// --- Token ------------------------------------------------------------

// AuthResponse is the rendered shape of an authenticate() result (spec
// §4.4.1 AuthData): the token plus the scoping tenant, user, roles and
// catalog.
type AuthResponse struct {
	Token    *Token
	Tenant   *Tenant // nil if unscoped
	User     *User
	Roles    []string
	Catalog  []CatalogEntry
}

// CatalogEntry is one denormalized entry of the endpoints catalog (§4.4.5).
type CatalogEntry struct {
	ServiceName string
	ServiceType string
	Template    *EndpointTemplate
	// ShowAdminURL is set by the caller (service-admin/admin) to include
	// AdminURL in the rendered entry.
	ShowAdminURL bool
}

func tokenToMap(t *Token) map[string]any {
	m := map[string]any{"id": t.ID}
	m["expires"] = t.Expires.UTC().Format(timeLayout)
	putIfSet(m, "tenantId", t.TenantID)
	return m
}

func catalogEntryToMap(c CatalogEntry) map[string]any {
	ep := map[string]any{
		"id":          c.Template.ID,
		"type":        c.ServiceType,
		"name":        c.ServiceName,
		"region":      c.Template.Region,
		"publicURL":   c.Template.PublicURL,
		"internalURL": c.Template.InternalURL,
	}
	if c.ShowAdminURL {
		ep["adminURL"] = c.Template.AdminURL
	}
	return ep
}

// EncodeAuthResponseJSON renders the "access" envelope returned by
// authenticate()/validate_token().
func EncodeAuthResponseJSON(a *AuthResponse) ([]byte, error) {
	access := map[string]any{
		"token": tokenToMap(a.Token),
		"user":  userToMap(a.User),
	}
	if a.Tenant != nil {
		access["token"].(map[string]any)["tenant"] = tenantToMap(a.Tenant)
	}
	if len(a.Roles) > 0 {
		roles := make([]map[string]any, 0, len(a.Roles))
		for _, r := range a.Roles {
			roles = append(roles, map[string]any{"name": r})
		}
		access["user"].(map[string]any)["roles"] = roles
	}
	if len(a.Catalog) > 0 {
		catalog := make([]map[string]any, 0, len(a.Catalog))
		for _, c := range a.Catalog {
			catalog = append(catalog, catalogEntryToMap(c))
		}
		access["serviceCatalog"] = catalog
	}
	return json.Marshal(map[string]any{"access": access})
}

// EncodeCatalogJSON renders the bare "endpoints" document for GET
// /tokens/{id}/endpoints (spec §4.4.5), independent of the "access"
// envelope EncodeAuthResponseJSON produces for authenticate()/validate().
func EncodeCatalogJSON(entries []CatalogEntry) ([]byte, error) {
	out := make([]map[string]any, 0, len(entries))
	for _, c := range entries {
		out = append(out, catalogEntryToMap(c))
	}
	return json.Marshal(map[string]any{"endpoints": out})
}

const timeLayout = "2006-01-02T15:04:05Z"

// --- Credentials ------------------------------------------------------

func credentialsToMap(c *Credentials) map[string]any {
	m := map[string]any{
		"id":   c.ID,
		"type": c.Type,
		"key":  c.Key,
	}
	putIfSet(m, "tenantId", c.TenantID)
	// Secret is rendered exactly once, at creation time; callers that don't
	// want it echoed back should clear it before calling this on a fetched
	// record.
	putIfSet(m, "secret", c.Secret)
	return m
}

// EncodeCredentialsJSON renders {"credentials": {...}}.
func EncodeCredentialsJSON(c *Credentials) ([]byte, error) {
	return json.Marshal(map[string]any{"credentials": credentialsToMap(c)})
}

// EncodeCredentialsListJSON renders the collection envelope.
func EncodeCredentialsListJSON(list []*Credentials, links []Link) ([]byte, error) {
	out := make([]map[string]any, 0, len(list))
	for _, c := range list {
		stripped := *c
		stripped.Secret = ""
		out = append(out, credentialsToMap(&stripped))
	}
	return json.Marshal(map[string]any{
		"credentials":       out,
		"credentials_links": linksJSON(links),
	})
}

func credentialsFromMap(m map[string]any) (*Credentials, error) {
	c := &Credentials{}
	if v, ok := getString(m, "id"); ok {
		c.ID = v
	}
	if v, ok := getString(m, "tenantId"); ok {
		c.TenantID = v
	}
	if v, ok := getString(m, "type"); ok {
		c.Type = v
	}
	if v, ok := getString(m, "key"); ok {
		c.Key = v
	}
	if v, ok := getString(m, "secret"); ok {
		c.Secret = v
	}
	return c, nil
}

// DecodeCredentialsJSON parses a {"credentials": {...}} envelope.
func DecodeCredentialsJSON(data []byte) (*Credentials, error) {
	var env struct {
		Credentials map[string]any `json:"credentials"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode credentials: %w", err)
	}
	return credentialsFromMap(env.Credentials)
}
