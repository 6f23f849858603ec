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

// Package paging builds the prev/next navigation links for a paged
// collection response (C6). The marker/limit semantics themselves live in
// each repository's GetPageMarkers; this package only renders the link
// objects spec §4.1/§4.1's link format describes.
package paging

import (
	"fmt"
	"net/url"

	"github.com/opentrusty/keystone-id/internal/model"
)

// Links builds zero, one, or two navigation links in the stable order
// prev, next. baseURL is the collection's own URL with no query string;
// href is rendered as "<baseURL>?marker=<m>&limit=<l>" with no other query
// parameters preserved (spec §4.1).
func Links(baseURL string, prev, next string, limit int) []model.Link {
	var links []model.Link
	if prev != "" {
		links = append(links, model.Link{Rel: "prev", Href: href(baseURL, prev, limit)})
	}
	if next != "" {
		links = append(links, model.Link{Rel: "next", Href: href(baseURL, next, limit)})
	}
	return links
}

func href(baseURL, marker string, limit int) string {
	return baseURL + "?marker=" + url.QueryEscape(marker) + "&limit=" + fmt.Sprintf("%d", limit)
}
