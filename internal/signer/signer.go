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

// Package signer computes and verifies EC2-style canonical-request
// signatures (C3). It is a pure function library: no I/O, no repository
// access — internal/identitycore owns the Credentials lookup and calls
// into this package only to recompute and compare a signature.
package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"net"
	"sort"
	"strings"
)

// Request is the canonical form a signature is computed over: an HTTP
// verb, a host (optionally carrying a port), a path, and the query
// parameters excluding the signature itself.
type Request struct {
	Verb   string
	Host   string
	Path   string
	Params map[string]string
}

// canonicalString builds the deterministic string-to-sign: verb, host,
// path, then params sorted by key and joined as "key=value" pairs, each on
// its own line. Stable key ordering is what makes this reproducible across
// the signer and any caller.
func canonicalString(r Request) string {
	keys := make([]string, 0, len(r.Params))
	for k := range r.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(r.Verb)
	b.WriteByte('\n')
	b.WriteString(r.Host)
	b.WriteByte('\n')
	b.WriteString(r.Path)
	b.WriteByte('\n')
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(r.Params[k])
		b.WriteByte('\n')
	}
	return b.String()
}

// Sign computes the base64-encoded HMAC-SHA256 signature of the canonical
// form of r under secret.
func Sign(secret string, r Request) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(canonicalString(r)))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// stripPort removes a trailing ":<port>" from a host, if present. Returns
// host unchanged if it carries no port or isn't a valid host:port pair.
func stripPort(host string) string {
	h, _, err := net.SplitHostPort(host)
	if err != nil {
		return host
	}
	return h
}

// Verify reports whether signature matches the signature computed over r.
// If the first comparison fails and allowPortStrip is true, it retries
// once with the port stripped from r.Host before declaring a mismatch
// (spec §4.3: "If the caller-supplied host carries a port and the
// signature does not match, retry once with the port stripped"). The
// comparison itself is constant-time; only the retry decision is not.
func Verify(secret, signature string, r Request, allowPortStrip bool) bool {
	if constantTimeEqual(signature, Sign(secret, r)) {
		return true
	}
	if !allowPortStrip {
		return false
	}
	stripped := r
	stripped.Host = stripPort(r.Host)
	if stripped.Host == r.Host {
		return false
	}
	return constantTimeEqual(signature, Sign(secret, stripped))
}

func constantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
