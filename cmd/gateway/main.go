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

// Command gateway is a minimal stand-in for a downstream OpenStack-style
// service (nova, glance, ...) sitting behind the auth-token middleware
// (C5): it never talks to the identity core directly, only to the
// identity service's /v2.0/tokens endpoints via RemoteValidator, and
// trusts the X-User-Id/X-Roles/... headers the middleware stamps on the
// request once a token validates (spec §4.5).
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/opentrusty/keystone-id/internal/authtoken"
	"github.com/opentrusty/keystone-id/internal/config"
	"github.com/opentrusty/keystone-id/internal/observability/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.InitLogger(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: "gateway",
	})

	validator, err := authtoken.NewRemoteValidator(authtoken.RemoteConfig{
		Host:       cfg.AuthToken.AuthHost,
		Port:       cfg.AuthToken.AuthPort,
		Protocol:   cfg.AuthToken.AuthProtocol,
		AdminToken: cfg.AuthToken.AdminToken,
		CertFile:   cfg.AuthToken.CertFile,
		KeyFile:    cfg.AuthToken.KeyFile,
	})
	if err != nil {
		slog.Error("failed to initialize remote token validator", logger.Error(err))
		os.Exit(1)
	}

	mw := authtoken.New(authtoken.Config{
		Validator:         validator,
		AuthURI:           cfg.AuthToken.AuthURI,
		DelayAuthDecision: cfg.AuthToken.DelayAuthDecision,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/whoami", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"user":%q,"tenant":%q,"roles":%q}`,
			r.Header.Get("X-User-Name"), r.Header.Get("X-Tenant-Name"), r.Header.Get("X-Roles"))
	})

	addr := fmt.Sprintf("%s:%s", cfg.AuthToken.ServiceHost, cfg.AuthToken.ServicePort)
	slog.Info("starting gateway", logger.Component("gateway"), logger.Operation("listen"))
	slog.Info(fmt.Sprintf("listening on %s, validating tokens against %s", addr, cfg.AuthToken.AuthURI))
	if err := http.ListenAndServe(addr, mw.Handler(mux)); err != nil {
		slog.Error("gateway server error", logger.Error(err))
		os.Exit(1)
	}
}
