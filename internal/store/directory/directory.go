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

// Package directory implements the C1 repository contracts (internal/store)
// as an in-process, mutex-guarded adapter. It is the "directory-like"
// backend named in spec.md §4.1/§9: a small, dependency-free store used as
// both the fast unit-test fixture and a runnable single-process backend,
// not an LDAP client (no pack example imports one).
package directory

import (
	"sort"
	"sync"
)

// idIndex keeps a stable descending-id ordering of a collection alongside
// its backing map, the shape every per-entity repository in this package
// embeds.
type idIndex struct {
	mu  sync.RWMutex
	ids []string // kept sorted descending
}

func (x *idIndex) insert(id string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	i := sort.Search(len(x.ids), func(i int) bool { return x.ids[i] <= id })
	x.ids = append(x.ids, "")
	copy(x.ids[i+1:], x.ids[i:])
	x.ids[i] = id
}

func (x *idIndex) remove(id string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	for i, v := range x.ids {
		if v == id {
			x.ids = append(x.ids[:i], x.ids[i+1:]...)
			return
		}
	}
}

func (x *idIndex) snapshot() []string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	out := make([]string, len(x.ids))
	copy(out, x.ids)
	return out
}

// page returns the ids belonging to the page starting right after marker
// ("" selects the first page), bounded by limit.
func page(ids []string, marker string, limit int) []string {
	start := 0
	if marker != "" {
		for i, id := range ids {
			if id == marker {
				start = i + 1
				break
			}
		}
	}
	end := start + limit
	if end > len(ids) || limit <= 0 {
		end = len(ids)
	}
	if start > end {
		start = end
	}
	return ids[start:end]
}

// pageMarkers implements the get_page_markers contract (spec §4.1): empty
// collection -> (nil, nil); marker == "" -> prev is nil; last page -> next
// is nil; otherwise prev/next are the boundary ids of the adjacent pages.
func pageMarkers(ids []string, marker string, limit int) (prev, next string) {
	if len(ids) == 0 {
		return "", ""
	}
	start := 0
	if marker != "" {
		for i, id := range ids {
			if id == marker {
				start = i + 1
				break
			}
		}
	}
	end := start + limit
	if end > len(ids) || limit <= 0 {
		end = len(ids)
	}
	if marker != "" && start > 0 {
		prev = ids[start-1]
	}
	if end < len(ids) {
		next = ids[end-1]
	}
	return prev, next
}
