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

package identitycore

// Kind classifies a Fault into the taxonomy the transport layer renders as
// a JSON/XML fault document (spec §7). Kinds are not error types: the core
// always returns *Fault, and callers switch on Kind.
type Kind string

const (
	KindBadRequest     Kind = "bad-request"
	KindUnauthorized   Kind = "unauthorized"
	KindForbidden      Kind = "forbidden"
	KindNotFound       Kind = "not-found"
	KindConflict       Kind = "conflict"
	KindUserDisabled   Kind = "user-disabled"
	KindTenantDisabled Kind = "tenant-disabled"
	KindInternal       Kind = "internal"
)

// Fault is the one error type the identity core returns. The transport
// layer maps Kind to an HTTP status and renders a fault document; it never
// needs to inspect anything but Kind and Message.
type Fault struct {
	Kind    Kind
	Message string
	Err     error // wrapped cause, if any; never part of Message
}

func (f *Fault) Error() string {
	if f.Err != nil {
		return f.Message + ": " + f.Err.Error()
	}
	return f.Message
}

func (f *Fault) Unwrap() error { return f.Err }

func fault(k Kind, msg string) *Fault {
	return &Fault{Kind: k, Message: msg}
}

func wrapFault(k Kind, msg string, err error) *Fault {
	return &Fault{Kind: k, Message: msg, Err: err}
}

// AsFault reports whether err is a *Fault and returns it.
func AsFault(err error) (*Fault, bool) {
	f, ok := err.(*Fault)
	return f, ok
}
