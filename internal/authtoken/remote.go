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
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// RemoteConfig configures a RemoteValidator (spec §6: auth_host, auth_port,
// auth_protocol, admin_token, certfile, keyfile). auth_uri is not part of
// it: the challenge target lives in the middleware's Config.AuthURI.
type RemoteConfig struct {
	Host       string
	Port       string
	Protocol   string // "http" or "https"
	AdminToken string // bearer the middleware presents to the identity service
	CertFile   string // optional client certificate for mutual TLS
	KeyFile    string
	Timeout    time.Duration
}

// RemoteValidator validates tokens against a remote identity service over
// HTTP(S): GET /v2.0/tokens/<claim> for the principal and scope, and GET
// /v2.0/tokens/<claim>/endpoints for the capabilities list (spec §4.5
// step 3, remote mode).
type RemoteValidator struct {
	cfg    RemoteConfig
	client *http.Client
	base   string
}

// NewRemoteValidator builds a validator with a long-lived HTTP client
// (spec §5: "a long-lived HTTP client pool for remote-validation mode").
// It returns an error only if client certificate material is configured
// and cannot be loaded.
func NewRemoteValidator(cfg RemoteConfig) (*RemoteValidator, error) {
	transport := &http.Transport{}
	if cfg.CertFile != "" && cfg.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("authtoken: load client certificate: %w", err)
		}
		transport.TLSClientConfig = &tls.Config{Certificates: []tls.Certificate{cert}}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	protocol := cfg.Protocol
	if protocol == "" {
		protocol = "https"
	}

	return &RemoteValidator{
		cfg:    cfg,
		client: &http.Client{Transport: transport, Timeout: timeout},
		base:   fmt.Sprintf("%s://%s:%s", protocol, cfg.Host, cfg.Port),
	}, nil
}

type remoteAccessEnvelope struct {
	Access struct {
		Token struct {
			ID     string `json:"id"`
			Tenant *struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"tenant"`
		} `json:"token"`
		User struct {
			ID    string `json:"id"`
			Name  string `json:"name"`
			Roles []struct {
				Name string `json:"name"`
			} `json:"roles"`
		} `json:"user"`
	} `json:"access"`
}

type remoteEndpointsEnvelope struct {
	Endpoints []struct {
		Type string `json:"type"`
	} `json:"endpoints"`
}

func (v *RemoteValidator) Validate(ctx context.Context, claim string) (*Identity, error) {
	envelope, err := v.getTokenInfo(ctx, claim)
	if err != nil {
		return nil, err
	}

	id := &Identity{
		UserID:   envelope.Access.User.ID,
		UserName: envelope.Access.User.Name,
	}
	for _, r := range envelope.Access.User.Roles {
		id.Roles = append(id.Roles, r.Name)
	}
	if envelope.Access.Token.Tenant != nil {
		id.TenantID = envelope.Access.Token.Tenant.ID
		id.TenantName = envelope.Access.Token.Tenant.Name

		caps, err := v.getCapabilities(ctx, claim)
		if err != nil {
			return nil, err
		}
		id.Capabilities = caps
	}

	return id, nil
}

func (v *RemoteValidator) getTokenInfo(ctx context.Context, claim string) (*remoteAccessEnvelope, error) {
	req, err := v.newAdminRequest(ctx, "/v2.0/tokens/"+url.PathEscape(claim))
	if err != nil {
		return nil, err
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("authtoken: validate token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusUnauthorized {
		return nil, errInvalidToken
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("authtoken: validate token: unexpected status %d", resp.StatusCode)
	}

	var envelope remoteAccessEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("authtoken: decode token response: %w", err)
	}
	return &envelope, nil
}

// getCapabilities fetches the token's endpoints and keeps only those of
// type "compute", adding the type string "compute" once per such endpoint.
// Only each endpoint's type is decoded: unlike embedded.go's
// capabilitiesOf, it does not read the templates' version lists. A non-200
// answer yields no capabilities and no error.
func (v *RemoteValidator) getCapabilities(ctx context.Context, claim string) ([]string, error) {
	req, err := v.newAdminRequest(ctx, "/v2.0/tokens/"+url.PathEscape(claim)+"/endpoints")
	if err != nil {
		return nil, err
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("authtoken: fetch endpoints: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}

	var envelope remoteEndpointsEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("authtoken: decode endpoints response: %w", err)
	}

	var caps []string
	for _, e := range envelope.Endpoints {
		if e.Type == "compute" {
			caps = append(caps, e.Type)
		}
	}
	return caps, nil
}

func (v *RemoteValidator) newAdminRequest(ctx context.Context, path string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.base+path, nil)
	if err != nil {
		return nil, fmt.Errorf("authtoken: build request: %w", err)
	}
	req.Header.Set("X-Auth-Token", v.cfg.AdminToken)
	return req, nil
}
