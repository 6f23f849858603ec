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

package http

import (
	"encoding/json"
	"encoding/xml"
	"net/http"
	"strconv"
	"strings"

	"github.com/opentrusty/keystone-id/internal/identitycore"
)

// contentType is the negotiated wire format for a request: chosen from
// Accept on responses, from Content-Type on request bodies (spec §6:
// "application/json and application/xml; content negotiation by Accept /
// Content-Type").
type contentType int

const (
	contentJSON contentType = iota
	contentXML
)

// negotiate picks the response format from the Accept header. XML is used
// only when the client asks for it explicitly; JSON is the default,
// matching the teacher's JSON-first handlers.
func negotiate(r *http.Request) contentType {
	accept := r.Header.Get("Accept")
	if strings.Contains(accept, "application/xml") && !strings.Contains(accept, "application/json") {
		return contentXML
	}
	return contentJSON
}

// requestFormat picks the request-body format from Content-Type.
func requestFormat(r *http.Request) contentType {
	if strings.Contains(r.Header.Get("Content-Type"), "application/xml") {
		return contentXML
	}
	return contentJSON
}

// encodeFunc renders a value into the negotiated format, given a pair of
// Encode*JSON/Encode*XML functions with matching signatures.
type encodeFunc func() ([]byte, error)

func respond(w http.ResponseWriter, r *http.Request, status int, jsonBody, xmlBody encodeFunc) {
	ct := negotiate(r)
	var body []byte
	var err error
	switch ct {
	case contentXML:
		w.Header().Set("Content-Type", "application/xml")
		body, err = xmlBody()
	default:
		w.Header().Set("Content-Type", "application/json")
		body, err = jsonBody()
	}
	if err != nil {
		respondFault(w, r, &identitycore.Fault{Kind: identitycore.KindInternal, Message: "encode response"})
		return
	}
	w.WriteHeader(status)
	w.Write(body)
}

// respondNoContent writes a bare status with no body (DELETE responses).
func respondNoContent(w http.ResponseWriter, status int) {
	w.WriteHeader(status)
}

// faultKindStatus maps a Fault.Kind to its HTTP status (spec §7).
func faultKindStatus(k identitycore.Kind) int {
	switch k {
	case identitycore.KindBadRequest:
		return http.StatusBadRequest
	case identitycore.KindUnauthorized:
		return http.StatusUnauthorized
	case identitycore.KindForbidden, identitycore.KindUserDisabled, identitycore.KindTenantDisabled:
		return http.StatusForbidden
	case identitycore.KindNotFound:
		return http.StatusNotFound
	case identitycore.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

type jsonFault struct {
	Error faultBody `json:"error"`
}

type faultBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type xmlFault struct {
	XMLName xml.Name `xml:"error"`
	Code    int      `xml:"code,attr"`
	Message string   `xml:"message"`
}

// respondFault renders err as a JSON/XML fault document (spec §7). Any
// error that isn't already a *Fault is treated as internal: the core is
// the only layer expected to classify failures, so an unclassified error
// reaching the transport layer is itself a bug, not a client mistake.
func respondFault(w http.ResponseWriter, r *http.Request, err error) {
	f, ok := identitycore.AsFault(err)
	if !ok {
		f = &identitycore.Fault{Kind: identitycore.KindInternal, Message: err.Error()}
	}
	status := faultKindStatus(f.Kind)
	respond(w, r, status,
		func() ([]byte, error) { return json.Marshal(jsonFault{Error: faultBody{Code: status, Message: f.Message}}) },
		func() ([]byte, error) { return xml.Marshal(xmlFault{Code: status, Message: f.Message}) },
	)
}

func readAll(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	buf := make([]byte, 0, 4096)
	tmp := make([]byte, 4096)
	for {
		n, err := r.Body.Read(tmp)
		if n > 0 {
			buf = append(buf, tmp[:n]...)
		}
		if err != nil {
			break
		}
	}
	return buf, nil
}

// pageFromQuery parses the "marker"/"limit" query parameters into a
// store.Page-shaped pair (limit defaults to 20, per the teacher's
// pagination convention elsewhere in the corpus).
func pageFromQuery(r *http.Request) (marker string, limit int) {
	marker = r.URL.Query().Get("marker")
	limit = 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	return marker, limit
}

// baseURL reconstructs the collection URL (no query string) for paging
// links, honoring a reverse proxy's X-Forwarded-Proto/Host when present.
func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if v := r.Header.Get("X-Forwarded-Proto"); v != "" {
		scheme = v
	}
	host := r.Host
	if v := r.Header.Get("X-Forwarded-Host"); v != "" {
		host = v
	}
	return scheme + "://" + host + r.URL.Path
}

// authToken extracts the bearer claim admin endpoints authorize against.
func authToken(r *http.Request) string {
	return r.Header.Get("X-Auth-Token")
}

// badRequest builds a bad-request fault for request-parsing failures the
// core never sees (malformed body, unparseable path/query parameter).
func badRequest(msg string) *identitycore.Fault {
	return &identitycore.Fault{Kind: identitycore.KindBadRequest, Message: msg}
}

// forbidden builds a forbidden fault for transport-layer authorization
// gates performed ahead of a core call (e.g. HasAdminRole pre-checks).
func forbidden(msg string) *identitycore.Fault {
	return &identitycore.Fault{Kind: identitycore.KindForbidden, Message: msg}
}
