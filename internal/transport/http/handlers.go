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

// @title Keystone Identity API
// @version 2.0.0
// @description OpenStack Keystone-style identity, token and service
// catalog provider.
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /v2.0

// @securityDefinitions.apikey AuthToken
// @in header
// @name X-Auth-Token

// Package http wires the identity core (C4) onto an HTTP transport that
// speaks the OS-KSADM/OS-KSCATALOG/OS-KSEC2 wire protocol (spec §6):
// /tokens, /tenants, /users, /OS-KSADM/roles, /OS-KSADM/services,
// /OS-KSCATALOG/endpointTemplates, and their nested sub-resources, under
// JSON/XML content negotiation with a uniform fault envelope (spec §7).
package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/opentrusty/keystone-id/internal/identitycore"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Handler bundles the identity core behind the transport layer. Every
// handler method reads its caller's bearer token straight off the request
// (authToken) and passes it to the core, which performs its own
// authorization — the handler layer carries no session or identity state
// of its own.
type Handler struct {
	core *identitycore.Core
}

// NewHandler builds a Handler over core.
func NewHandler(core *identitycore.Core) *Handler {
	return &Handler{core: core}
}

// NewRouter builds the chi router for the identity service: request-id,
// rate limiting, tracing and logging middleware wrap every route, matching
// the layering order the rest of the corpus uses for its HTTP services.
func NewRouter(h *Handler, rateLimiter *RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RateLimitMiddleware(rateLimiter))
	r.Use(func(handler http.Handler) http.Handler {
		return otelhttp.NewHandler(handler, "http_request",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	r.Use(LoggingMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", h.HealthCheck)

	r.Route("/v2.0", func(r chi.Router) {
		r.Post("/tokens", h.Authenticate)
		r.Route("/tokens/{tokenID}", func(r chi.Router) {
			r.Get("/", h.ValidateToken)
			r.Head("/", h.CheckToken)
			r.Delete("/", h.RevokeToken)
			r.Get("/endpoints", h.TokenEndpoints)
		})

		r.Route("/tenants", func(r chi.Router) {
			r.Get("/", h.ListTenants)
			r.Post("/", h.CreateTenant)
			r.Route("/{tenantID}", func(r chi.Router) {
				r.Get("/", h.GetTenant)
				r.Put("/", h.UpdateTenant)
				r.Delete("/", h.DeleteTenant)
				r.Get("/users", h.TenantUsers)

				r.Route("/OS-KSCATALOG/endpoints", func(r chi.Router) {
					r.Get("/", h.TenantEndpoints)
					r.Post("/", h.BindEndpoint)
					r.Delete("/{endpointID}", h.UnbindEndpoint)
				})
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.ListUsers)
			r.Post("/", h.CreateUser)
			r.Route("/{userID}", func(r chi.Router) {
				r.Get("/", h.GetUser)
				r.Put("/", h.UpdateUser)
				r.Delete("/", h.DeleteUser)
				r.Put("/password", h.SetPassword)
				r.Put("/enabled", h.SetEnabled)
				r.Put("/tenant", h.SetDefaultTenant)
				r.Get("/roles", h.UserRoles)

				r.Route("/roles/OS-KSADM/{roleID}", func(r chi.Router) {
					r.Put("/", h.GrantRole)
					r.Delete("/", h.RevokeRole)
					r.Put("/tenant/{tenantID}", h.GrantRole)
					r.Delete("/tenant/{tenantID}", h.RevokeRole)
				})

				r.Route("/OS-KSADM/credentials", func(r chi.Router) {
					r.Get("/", h.ListCredentials)
					r.Post("/", h.CreateCredentials)
					r.Route("/{credentialsID}", func(r chi.Router) {
						r.Get("/", h.GetCredentials)
						r.Delete("/", h.DeleteCredentials)
					})
				})
			})
		})

		r.Route("/OS-KSADM/roles", func(r chi.Router) {
			r.Get("/", h.ListRoles)
			r.Post("/", h.CreateRole)
			r.Route("/{roleID}", func(r chi.Router) {
				r.Get("/", h.GetRole)
				r.Delete("/", h.DeleteRole)
			})
		})

		r.Route("/OS-KSADM/services", func(r chi.Router) {
			r.Get("/", h.ListServices)
			r.Post("/", h.CreateService)
			r.Route("/{serviceID}", func(r chi.Router) {
				r.Get("/", h.GetService)
				r.Delete("/", h.DeleteService)
			})
		})

		r.Route("/OS-KSCATALOG/endpointTemplates", func(r chi.Router) {
			r.Get("/", h.ListEndpointTemplates)
			r.Post("/", h.CreateEndpointTemplate)
			r.Route("/{templateID}", func(r chi.Router) {
				r.Get("/", h.GetEndpointTemplate)
				r.Put("/", h.UpdateEndpointTemplate)
				r.Delete("/", h.DeleteEndpointTemplate)
			})
		})
	})

	return r
}

// HealthCheck reports liveness; it does not probe the store, matching the
// teacher's cheap, dependency-free readiness gate.
// @Summary Health check
// @Description Reports liveness of the identity service
// @Tags System
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond(w, r, http.StatusOK,
		func() ([]byte, error) { return []byte(`{"status":"healthy","service":"keystone-id"}`), nil },
		func() ([]byte, error) { return []byte(`<status>healthy</status>`), nil },
	)
}
