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

import "errors"

// errInvalidToken is returned by the RemoteValidator when the identity
// service answers 401 or 404 for the claim. The EmbeddedValidator does not
// use it: it returns the core's *identitycore.Fault unchanged. The
// middleware's isInvalidToken treats this sentinel and the core's
// unauthorized/forbidden/not-found/disabled fault kinds alike (spec §7:
// "maps remote validation failures uniformly to unauthorized unless
// delay_auth_decision is set").
var errInvalidToken = errors.New("authtoken: invalid token")
