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
	"errors"
	"fmt"
	"net/http"

	"github.com/opentrusty/keystone-id/internal/identitycore"
)

// Config selects and tunes a Middleware (spec §6 option set consumed by
// C5).
type Config struct {
	Validator         TokenValidator
	AuthURI           string // WWW-Authenticate challenge target
	DelayAuthDecision bool
}

// Middleware is the auth-token middleware (C5): thin on purpose — it
// extracts the claim, delegates to whichever TokenValidator it was built
// with, and decorates or rejects (spec §9: "the middleware itself becomes
// thin").
type Middleware struct {
	validator         TokenValidator
	authURI           string
	delayAuthDecision bool
}

// New builds a Middleware from Config.
func New(cfg Config) *Middleware {
	return &Middleware{
		validator:         cfg.Validator,
		authURI:           cfg.AuthURI,
		delayAuthDecision: cfg.DelayAuthDecision,
	}
}

// Handler wraps next, validating the inbound claim before forwarding
// (spec §4.5). On success the downstream request carries the confirmed
// identity headers; in delay-auth-decision mode a missing or invalid claim
// is forwarded anyway, stamped Invalid, and next decides what to do with
// it.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stripInboundHeaders(r)

		claim := extractClaim(r)
		if claim == "" {
			if m.delayAuthDecision {
				markUnconfirmed(r)
				m.forward(w, r, next)
				return
			}
			m.challenge(w)
			return
		}

		id, err := m.validator.Validate(r.Context(), claim)
		if err != nil {
			if !isInvalidToken(err) {
				http.Error(w, "identity validation failed", http.StatusInternalServerError)
				return
			}
			if m.delayAuthDecision {
				markUnconfirmed(r)
				m.forward(w, r, next)
				return
			}
			m.challenge(w)
			return
		}

		decorate(r, id)
		m.forward(w, r, next)
	})
}

// forward invokes next, rewriting a 401/305 downstream response to carry
// the WWW-Authenticate challenge (spec §4.5 step 5).
func (m *Middleware) forward(w http.ResponseWriter, r *http.Request, next http.Handler) {
	rw := &challengeRewriter{ResponseWriter: w, challenge: m.challengeValue()}
	next.ServeHTTP(rw, r)
}

func (m *Middleware) challenge(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", m.challengeValue())
	w.WriteHeader(http.StatusUnauthorized)
}

func (m *Middleware) challengeValue() string {
	return fmt.Sprintf("Keystone uri='%s'", m.authURI)
}

// isInvalidToken reports whether err represents "claim is missing, unknown,
// or expired" as opposed to an infrastructure failure — the two validator
// implementations surface this differently (identitycore.Fault kinds vs.
// errInvalidToken), so the middleware normalizes here rather than forcing
// a shared error type on both (spec §7: "maps remote validation failures
// uniformly to unauthorized").
func isInvalidToken(err error) bool {
	if errors.Is(err, errInvalidToken) {
		return true
	}
	if f, ok := identitycore.AsFault(err); ok {
		switch f.Kind {
		case identitycore.KindUnauthorized, identitycore.KindForbidden,
			identitycore.KindNotFound, identitycore.KindUserDisabled,
			identitycore.KindTenantDisabled:
			return true
		}
	}
	return false
}

// challengeRewriter intercepts a downstream 401/305 and adds the
// WWW-Authenticate challenge header before the status line is written
// (spec §4.5 step 5).
type challengeRewriter struct {
	http.ResponseWriter
	challenge   string
	wroteHeader bool
}

func (c *challengeRewriter) WriteHeader(status int) {
	if !c.wroteHeader {
		c.wroteHeader = true
		if status == http.StatusUnauthorized || status == http.StatusUseProxy {
			c.Header().Set("WWW-Authenticate", c.challenge)
		}
	}
	c.ResponseWriter.WriteHeader(status)
}

func (c *challengeRewriter) Write(b []byte) (int, error) {
	if !c.wroteHeader {
		c.WriteHeader(http.StatusOK)
	}
	return c.ResponseWriter.Write(b)
}
