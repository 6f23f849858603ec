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

import "fmt"

// ErrUnknownAttribute is returned by Decode* for Service and Role when the
// input carries a key outside the whitelist (spec §4.2: "Unknown attributes
// on input are rejected with a bad-request error for Service and Role").
type ErrUnknownAttribute struct {
	Entity string
	Key    string
}

func (e *ErrUnknownAttribute) Error() string {
	return fmt.Sprintf("unknown attribute %q for %s", e.Key, e.Entity)
}

// ErrInvalidValue is returned when a known attribute carries a value that
// can't be coerced to its declared type (e.g. a non-boolean "enabled").
type ErrInvalidValue struct {
	Field string
	Value any
}

func (e *ErrInvalidValue) Error() string {
	return fmt.Sprintf("invalid value for %q: %v", e.Field, e.Value)
}
