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
	"bytes"
	"encoding/xml"
	"fmt"
)

// XML namespaces (spec §4.2). No library in the retrieval pack does XML
// serialization with namespaced, attribute-renaming semantics like this, so
// this stays on encoding/xml rather than fabricating a third-party binding.
const (
	NSIdentity = "http://docs.openstack.org/identity/api/v2.0"
	NSKSADM    = "http://docs.openstack.org/identity/api/ext/OS-KSADM/v1.0"
)

// --- Tenant ---------------------------------------------------------------

type xmlTenant struct {
	XMLName     xml.Name `xml:"tenant"`
	Xmlns       string   `xml:"xmlns,attr"`
	ID          string   `xml:"id,attr"`
	Name        string   `xml:"name,attr"`
	Enabled     bool     `xml:"enabled,attr"`
	Description string   `xml:"description"`
}

// EncodeTenantXML renders a Tenant in the identity namespace.
func EncodeTenantXML(t *Tenant) ([]byte, error) {
	return xml.Marshal(&xmlTenant{
		Xmlns: NSIdentity, ID: t.ID, Name: t.Name, Enabled: t.Enabled, Description: t.Description,
	})
}

// DecodeTenantXML parses a <tenant> document.
func DecodeTenantXML(data []byte) (*Tenant, error) {
	var x xmlTenant
	if err := xml.Unmarshal(data, &x); err != nil {
		return nil, fmt.Errorf("decode tenant xml: %w", err)
	}
	return &Tenant{ID: x.ID, Name: x.Name, Enabled: x.Enabled, Description: x.Description, Extra: map[string]any{}}, nil
}

// xmlLink renders one paging navigation link (mirrors linksJSON).
type xmlLink struct {
	XMLName xml.Name `xml:"link"`
	Rel     string   `xml:"rel,attr"`
	Href    string   `xml:"href,attr"`
}

func linksXML(links []Link) []xmlLink {
	out := make([]xmlLink, 0, len(links))
	for _, l := range links {
		out = append(out, xmlLink{Rel: l.Rel, Href: l.Href})
	}
	return out
}

type xmlTenants struct {
	XMLName xml.Name    `xml:"tenants"`
	Xmlns   string      `xml:"xmlns,attr"`
	Tenants []xmlTenant `xml:"tenant"`
	Links   []xmlLink   `xml:"link"`
}

// EncodeTenantsXML renders the collection with paging links.
func EncodeTenantsXML(list []*Tenant, links []Link) ([]byte, error) {
	out := xmlTenants{Xmlns: NSIdentity, Links: linksXML(links)}
	for _, t := range list {
		out.Tenants = append(out.Tenants, xmlTenant{ID: t.ID, Name: t.Name, Enabled: t.Enabled, Description: t.Description})
	}
	return xml.Marshal(&out)
}

// --- User -------------------------------------------------------------

type xmlUser struct {
	XMLName  xml.Name `xml:"user"`
	Xmlns    string   `xml:"xmlns,attr"`
	ID       string   `xml:"id,attr"`
	Name     string   `xml:"name,attr"`
	Password string   `xml:"password,attr,omitempty"`
	Email    string   `xml:"email,attr,omitempty"`
	Enabled  bool     `xml:"enabled,attr"`
	TenantID string   `xml:"tenantId,attr,omitempty"`
}

// EncodeUserXML renders a User; Password is never emitted (the struct
// field is left zero).
func EncodeUserXML(u *User) ([]byte, error) {
	return xml.Marshal(&xmlUser{
		Xmlns: NSIdentity, ID: u.ID, Name: u.Name, Email: u.Email, Enabled: u.Enabled, TenantID: u.TenantID,
	})
}

// DecodeUserXML parses a <user> document. password, if present, is
// carried through on the returned User for CreateUser to consume and
// discard; every other path ignores it.
func DecodeUserXML(data []byte) (*User, error) {
	var x xmlUser
	if err := xml.Unmarshal(data, &x); err != nil {
		return nil, fmt.Errorf("decode user xml: %w", err)
	}
	return &User{ID: x.ID, Name: x.Name, Password: x.Password, Email: x.Email, Enabled: x.Enabled, TenantID: x.TenantID, Extra: map[string]any{}}, nil
}

type xmlUsers struct {
	XMLName xml.Name  `xml:"users"`
	Xmlns   string    `xml:"xmlns,attr"`
	Users   []xmlUser `xml:"user"`
	Links   []xmlLink `xml:"link"`
}

// EncodeUsersXML renders the collection with paging links.
func EncodeUsersXML(list []*User, links []Link) ([]byte, error) {
	out := xmlUsers{Xmlns: NSIdentity, Links: linksXML(links)}
	for _, u := range list {
		out.Users = append(out.Users, xmlUser{ID: u.ID, Name: u.Name, Email: u.Email, Enabled: u.Enabled, TenantID: u.TenantID})
	}
	return xml.Marshal(&out)
}

// --- Role (whitelist-validated) ---------------------------------------

type xmlRole struct {
	XMLName     xml.Name `xml:"role"`
	Xmlns       string   `xml:"xmlns,attr"`
	ID          string   `xml:"id,attr"`
	Name        string   `xml:"name,attr"`
	ServiceID   string   `xml:"serviceId,attr,omitempty"`
	Description string   `xml:"description"`
}

// rawXMLAttrs captures every attribute present on the root element, used to
// whitelist-validate Role/Service XML input the same way the JSON codec
// does for maps.
func rawXMLAttrs(data []byte) (map[string]bool, error) {
	d := xml.NewDecoder(bytes.NewReader(data))
	tok, err := d.Token()
	for err == nil {
		if start, ok := tok.(xml.StartElement); ok {
			attrs := make(map[string]bool, len(start.Attr))
			for _, a := range start.Attr {
				if a.Name.Local == "xmlns" {
					continue
				}
				attrs[a.Name.Local] = true
			}
			return attrs, nil
		}
		tok, err = d.Token()
	}
	return nil, err
}

var roleXMLKnownAttrs = map[string]bool{"id": true, "name": true, "serviceId": true}
var serviceXMLKnownAttrs = map[string]bool{"id": true, "name": true, "type": true, "ownerId": true}

// EncodeRoleXML renders a Role in the identity namespace.
func EncodeRoleXML(r *Role) ([]byte, error) {
	return xml.Marshal(&xmlRole{Xmlns: NSIdentity, ID: r.ID, Name: r.Name, ServiceID: r.ServiceID, Description: r.Description})
}

// DecodeRoleXML parses a <role> document, rejecting unknown attributes.
func DecodeRoleXML(data []byte) (*Role, error) {
	attrs, err := rawXMLAttrs(data)
	if err != nil {
		return nil, fmt.Errorf("decode role xml: %w", err)
	}
	for a := range attrs {
		if !roleXMLKnownAttrs[a] {
			return nil, &ErrUnknownAttribute{Entity: "Role", Key: a}
		}
	}
	var x xmlRole
	if err := xml.Unmarshal(data, &x); err != nil {
		return nil, fmt.Errorf("decode role xml: %w", err)
	}
	return &Role{ID: x.ID, Name: x.Name, ServiceID: x.ServiceID, Description: x.Description}, nil
}

type xmlRoles struct {
	XMLName xml.Name  `xml:"roles"`
	Xmlns   string    `xml:"xmlns,attr"`
	Roles   []xmlRole `xml:"role"`
	Links   []xmlLink `xml:"link"`
}

// EncodeRolesXML renders the collection with paging links.
func EncodeRolesXML(list []*Role, links []Link) ([]byte, error) {
	out := xmlRoles{Xmlns: NSIdentity, Links: linksXML(links)}
	for _, r := range list {
		out.Roles = append(out.Roles, xmlRole{ID: r.ID, Name: r.Name, ServiceID: r.ServiceID, Description: r.Description})
	}
	return xml.Marshal(&out)
}

// --- Service (admin-extension namespace, whitelist-validated) ---------

type xmlService struct {
	XMLName     xml.Name `xml:"service"`
	Xmlns       string   `xml:"xmlns,attr"`
	ID          string   `xml:"id,attr"`
	Name        string   `xml:"name,attr"`
	Type        string   `xml:"type,attr"`
	OwnerID     string   `xml:"ownerId,attr,omitempty"`
	Description string   `xml:"description"`
}

// EncodeServiceXML renders a Service in the OS-KSADM admin-extension
// namespace.
func EncodeServiceXML(s *Service) ([]byte, error) {
	return xml.Marshal(&xmlService{
		Xmlns: NSKSADM, ID: s.ID, Name: s.Name, Type: s.Type, OwnerID: s.OwnerID, Description: s.Description,
	})
}

// DecodeServiceXML parses a <service> document, rejecting unknown attributes.
func DecodeServiceXML(data []byte) (*Service, error) {
	attrs, err := rawXMLAttrs(data)
	if err != nil {
		return nil, fmt.Errorf("decode service xml: %w", err)
	}
	for a := range attrs {
		if !serviceXMLKnownAttrs[a] {
			return nil, &ErrUnknownAttribute{Entity: "Service", Key: a}
		}
	}
	var x xmlService
	if err := xml.Unmarshal(data, &x); err != nil {
		return nil, fmt.Errorf("decode service xml: %w", err)
	}
	return &Service{ID: x.ID, Name: x.Name, Type: x.Type, OwnerID: x.OwnerID, Description: x.Description}, nil
}

type xmlServices struct {
	XMLName  xml.Name     `xml:"services"`
	Xmlns    string       `xml:"xmlns,attr"`
	Services []xmlService `xml:"service"`
	Links    []xmlLink    `xml:"link"`
}

// EncodeServicesXML renders the collection with paging links.
func EncodeServicesXML(list []*Service, links []Link) ([]byte, error) {
	out := xmlServices{Xmlns: NSKSADM, Links: linksXML(links)}
	for _, s := range list {
		out.Services = append(out.Services, xmlService{ID: s.ID, Name: s.Name, Type: s.Type, OwnerID: s.OwnerID, Description: s.Description})
	}
	return xml.Marshal(&out)
}

// --- EndpointTemplate (admin-extension namespace) ----------------------

type xmlEndpointTemplate struct {
	XMLName     xml.Name `xml:"endpointTemplate"`
	Xmlns       string   `xml:"xmlns,attr"`
	ID          string   `xml:"id,attr"`
	Region      string   `xml:"region,attr,omitempty"`
	ServiceID   string   `xml:"service,attr,omitempty"`
	PublicURL   string   `xml:"publicURL,attr,omitempty"`
	AdminURL    string   `xml:"adminURL,attr,omitempty"`
	InternalURL string   `xml:"internalURL,attr,omitempty"`
	Enabled     bool     `xml:"enabled,attr"`
	Global      bool     `xml:"global,attr"`
	VersionID   string   `xml:"versionId,attr,omitempty"`
	VersionList string   `xml:"versionList,attr,omitempty"`
	VersionInfo string   `xml:"versionInfo,attr,omitempty"`
}

// EncodeEndpointTemplateXML renders an EndpointTemplate in the OS-KSADM
// admin-extension namespace.
func EncodeEndpointTemplateXML(e *EndpointTemplate) ([]byte, error) {
	return xml.Marshal(&xmlEndpointTemplate{
		Xmlns: NSKSADM, ID: e.ID, Region: e.Region, ServiceID: e.ServiceID,
		PublicURL: e.PublicURL, AdminURL: e.AdminURL, InternalURL: e.InternalURL,
		Enabled: e.Enabled, Global: e.IsGlobal,
		VersionID: e.VersionID, VersionList: e.VersionList, VersionInfo: e.VersionInfo,
	})
}

// DecodeEndpointTemplateXML parses an <endpointTemplate> document.
func DecodeEndpointTemplateXML(data []byte) (*EndpointTemplate, error) {
	var x xmlEndpointTemplate
	if err := xml.Unmarshal(data, &x); err != nil {
		return nil, fmt.Errorf("decode endpoint template xml: %w", err)
	}
	return &EndpointTemplate{
		ID: x.ID, Region: x.Region, ServiceID: x.ServiceID,
		PublicURL: x.PublicURL, AdminURL: x.AdminURL, InternalURL: x.InternalURL,
		Enabled: x.Enabled, IsGlobal: x.Global,
		VersionID: x.VersionID, VersionList: x.VersionList, VersionInfo: x.VersionInfo,
	}, nil
}

type xmlEndpointTemplates struct {
	XMLName           xml.Name              `xml:"endpointTemplates"`
	Xmlns             string                `xml:"xmlns,attr"`
	EndpointTemplates []xmlEndpointTemplate `xml:"endpointTemplate"`
	Links             []xmlLink             `xml:"link"`
}

// EncodeEndpointTemplatesXML renders the collection with paging links.
func EncodeEndpointTemplatesXML(list []*EndpointTemplate, links []Link) ([]byte, error) {
	out := xmlEndpointTemplates{Xmlns: NSKSADM, Links: linksXML(links)}
	for _, e := range list {
		out.EndpointTemplates = append(out.EndpointTemplates, xmlEndpointTemplate{
			ID: e.ID, Region: e.Region, ServiceID: e.ServiceID,
			PublicURL: e.PublicURL, AdminURL: e.AdminURL, InternalURL: e.InternalURL,
			Enabled: e.Enabled, Global: e.IsGlobal,
			VersionID: e.VersionID, VersionList: e.VersionList, VersionInfo: e.VersionInfo,
		})
	}
	return xml.Marshal(&out)
}

// --- Endpoint -----------------------------------------------------------

type xmlEndpoint struct {
	XMLName    xml.Name `xml:"endpoint"`
	Xmlns      string   `xml:"xmlns,attr"`
	ID         string   `xml:"id,attr"`
	TenantID   string   `xml:"tenantId,attr,omitempty"`
	TemplateID string   `xml:"templateId,attr,omitempty"`
}

// EncodeEndpointXML renders an Endpoint in the identity namespace.
func EncodeEndpointXML(e *Endpoint) ([]byte, error) {
	return xml.Marshal(&xmlEndpoint{Xmlns: NSIdentity, ID: e.ID, TenantID: e.TenantID, TemplateID: e.EndpointTemplateID})
}

// DecodeEndpointXML parses an <endpoint> document.
func DecodeEndpointXML(data []byte) (*Endpoint, error) {
	var x xmlEndpoint
	if err := xml.Unmarshal(data, &x); err != nil {
		return nil, fmt.Errorf("decode endpoint xml: %w", err)
	}
	return &Endpoint{ID: x.ID, TenantID: x.TenantID, EndpointTemplateID: x.TemplateID}, nil
}

type xmlEndpoints struct {
	XMLName   xml.Name      `xml:"endpoints"`
	Xmlns     string        `xml:"xmlns,attr"`
	Endpoints []xmlEndpoint `xml:"endpoint"`
	Links     []xmlLink     `xml:"link"`
}

// EncodeEndpointsXML renders the collection with paging links.
func EncodeEndpointsXML(list []*Endpoint, links []Link) ([]byte, error) {
	out := xmlEndpoints{Xmlns: NSIdentity, Links: linksXML(links)}
	for _, e := range list {
		out.Endpoints = append(out.Endpoints, xmlEndpoint{ID: e.ID, TenantID: e.TenantID, TemplateID: e.EndpointTemplateID})
	}
	return xml.Marshal(&out)
}

// --- UserRoleAssociation --------------------------------------------------

type xmlRoleRef struct {
	XMLName  xml.Name `xml:"role"`
	Xmlns    string   `xml:"xmlns,attr"`
	ID       string   `xml:"id,attr"`
	Name     string   `xml:"name,attr,omitempty"`
	TenantID string   `xml:"tenantId,attr,omitempty"`
}

// EncodeUserRoleXML renders a single role grant, denormalizing the role
// name the same way EncodeUserRoleJSON does.
func EncodeUserRoleXML(a *UserRoleAssociation, roleName string) ([]byte, error) {
	return xml.Marshal(&xmlRoleRef{Xmlns: NSIdentity, ID: a.RoleID, Name: roleName, TenantID: a.TenantID})
}

type xmlUserRoles struct {
	XMLName xml.Name     `xml:"roles"`
	Xmlns   string       `xml:"xmlns,attr"`
	Roles   []xmlRoleRef `xml:"role"`
	Links   []xmlLink    `xml:"link"`
}

// EncodeUserRolesXML renders the collection envelope for a user's grants.
func EncodeUserRolesXML(assocs []*UserRoleAssociation, names map[string]string, links []Link) ([]byte, error) {
	out := xmlUserRoles{Xmlns: NSIdentity, Links: linksXML(links)}
	for _, a := range assocs {
		out.Roles = append(out.Roles, xmlRoleRef{ID: a.RoleID, Name: names[a.RoleID], TenantID: a.TenantID})
	}
	return xml.Marshal(&out)
}

// --- Credentials -----------------------------------------------------

type xmlCredentials struct {
	XMLName  xml.Name `xml:"credentials"`
	Xmlns    string   `xml:"xmlns,attr"`
	Type     string   `xml:"xsi:type,attr,omitempty"`
	Key      string   `xml:"key,attr"`
	Secret   string   `xml:"secret,attr,omitempty"`
	TenantID string   `xml:"tenantId,attr,omitempty"`
}

// EncodeCredentialsXML renders a Credentials record; callers doing a list
// view should clear Secret before calling, mirroring EncodeCredentialsListJSON.
func EncodeCredentialsXML(c *Credentials) ([]byte, error) {
	return xml.Marshal(&xmlCredentials{Xmlns: NSIdentity, Type: c.Type, Key: c.Key, Secret: c.Secret, TenantID: c.TenantID})
}

// DecodeCredentialsXML parses a <credentials> document.
func DecodeCredentialsXML(data []byte) (*Credentials, error) {
	var x xmlCredentials
	if err := xml.Unmarshal(data, &x); err != nil {
		return nil, fmt.Errorf("decode credentials xml: %w", err)
	}
	return &Credentials{Type: x.Type, Key: x.Key, Secret: x.Secret, TenantID: x.TenantID}, nil
}

type xmlCredentialsList struct {
	XMLName     xml.Name         `xml:"credentials"`
	Xmlns       string           `xml:"xmlns,attr"`
	Credentials []xmlCredentials `xml:"credentials"`
	Links       []xmlLink        `xml:"link"`
}

// EncodeCredentialsListXML renders the collection envelope; list entries
// carry no Secret: only type, key and tenantId are written.
func EncodeCredentialsListXML(list []*Credentials, links []Link) ([]byte, error) {
	out := xmlCredentialsList{Xmlns: NSIdentity, Links: linksXML(links)}
	for _, c := range list {
		out.Credentials = append(out.Credentials, xmlCredentials{Type: c.Type, Key: c.Key, TenantID: c.TenantID})
	}
	return xml.Marshal(&out)
}

// --- Token / AuthResponse ------------------------------------------------

type xmlAuthRole struct {
	Name string `xml:"name,attr"`
}

type xmlAuthUser struct {
	ID       string        `xml:"id,attr"`
	Name     string        `xml:"name,attr"`
	Roles    []xmlAuthRole `xml:"roles>role,omitempty"`
}

type xmlAuthTenant struct {
	ID      string `xml:"id,attr"`
	Name    string `xml:"name,attr"`
	Enabled bool   `xml:"enabled,attr"`
}

type xmlAuthToken struct {
	ID      string         `xml:"id,attr"`
	Expires string         `xml:"expires,attr"`
	Tenant  *xmlAuthTenant `xml:"tenant,omitempty"`
}

type xmlCatalogEndpoint struct {
	XMLName     xml.Name `xml:"endpoint"`
	ID          string   `xml:"id,attr"`
	Type        string   `xml:"type,attr"`
	Name        string   `xml:"name,attr"`
	Region      string   `xml:"region,attr,omitempty"`
	PublicURL   string   `xml:"publicURL,attr,omitempty"`
	InternalURL string   `xml:"internalURL,attr,omitempty"`
	AdminURL    string   `xml:"adminURL,attr,omitempty"`
}

type xmlAccess struct {
	XMLName xml.Name             `xml:"access"`
	Xmlns   string               `xml:"xmlns,attr"`
	Token   xmlAuthToken         `xml:"token"`
	User    xmlAuthUser          `xml:"user"`
	Catalog []xmlCatalogEndpoint `xml:"serviceCatalog>endpoint,omitempty"`
}

// EncodeAuthResponseXML renders the <access> document mirroring
// EncodeAuthResponseJSON's envelope.
func EncodeAuthResponseXML(a *AuthResponse) ([]byte, error) {
	access := xmlAccess{
		Xmlns: NSIdentity,
		Token: xmlAuthToken{ID: a.Token.ID, Expires: a.Token.Expires.UTC().Format(timeLayout)},
		User:  xmlAuthUser{ID: a.User.ID, Name: a.User.Name},
	}
	if a.Tenant != nil {
		access.Token.Tenant = &xmlAuthTenant{ID: a.Tenant.ID, Name: a.Tenant.Name, Enabled: a.Tenant.Enabled}
	}
	for _, r := range a.Roles {
		access.User.Roles = append(access.User.Roles, xmlAuthRole{Name: r})
	}
	for _, c := range a.Catalog {
		ep := xmlCatalogEndpoint{
			ID: c.Template.ID, Type: c.ServiceType, Name: c.ServiceName, Region: c.Template.Region,
			PublicURL: c.Template.PublicURL, InternalURL: c.Template.InternalURL,
		}
		if c.ShowAdminURL {
			ep.AdminURL = c.Template.AdminURL
		}
		access.Catalog = append(access.Catalog, ep)
	}
	return xml.Marshal(&access)
}

type xmlEndpointsCatalog struct {
	XMLName   xml.Name             `xml:"endpoints"`
	Endpoints []xmlCatalogEndpoint `xml:"endpoint"`
}

// EncodeCatalogXML renders the bare <endpoints> document for GET
// /tokens/{id}/endpoints (spec §4.4.5), independent of the <access>
// envelope EncodeAuthResponseXML produces for authenticate()/validate().
func EncodeCatalogXML(entries []CatalogEntry) ([]byte, error) {
	doc := xmlEndpointsCatalog{}
	for _, c := range entries {
		ep := xmlCatalogEndpoint{
			ID: c.Template.ID, Type: c.ServiceType, Name: c.ServiceName, Region: c.Template.Region,
			PublicURL: c.Template.PublicURL, InternalURL: c.Template.InternalURL,
		}
		if c.ShowAdminURL {
			ep.AdminURL = c.Template.AdminURL
		}
		doc.Endpoints = append(doc.Endpoints, ep)
	}
	return xml.Marshal(&doc)
}
