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

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"github.com/opentrusty/keystone-id/internal/audit"
	"github.com/opentrusty/keystone-id/internal/id"
	"github.com/opentrusty/keystone-id/internal/model"
	"github.com/opentrusty/keystone-id/internal/store"
)

// CreateCredentials issues a new Credentials record for a User (POST
// /users/{id}/OS-KSADM/credentials). Admin-only; key/secret are generated
// server-side for every credential type.
func (c *Core) CreateCredentials(ctx context.Context, callerToken, userID, tenantID, credType string) (*model.Credentials, error) {
	actor, err := c.requireAdmin(ctx, callerToken)
	if err != nil {
		return nil, err
	}
	if _, err := c.store.Users.GetByID(ctx, userID); err != nil {
		return nil, mapStoreErr(err, KindNotFound, KindInternal, "get user")
	}
	key, err := randomHex(20)
	if err != nil {
		return nil, wrapFault(KindInternal, "generate access key", err)
	}
	secret, err := randomHex(40)
	if err != nil {
		return nil, wrapFault(KindInternal, "generate secret key", err)
	}
	cr := &model.Credentials{
		ID:       id.NewUUIDv7(),
		UserID:   userID,
		TenantID: tenantID,
		Type:     credType,
		Key:      key,
		Secret:   secret,
	}
	if err := c.store.Credentials.Create(ctx, cr); err != nil {
		return nil, mapStoreErr(err, KindInternal, KindConflict, "create credentials")
	}
	c.audit.Log(ctx, audit.Event{Type: audit.TypeCredentialsCreated, TenantID: tenantID, ActorID: actor.ID, Resource: cr.ID})
	return cr, nil
}

// GetCredentials returns a Credentials record by id. Admin-only.
func (c *Core) GetCredentials(ctx context.Context, callerToken, credentialsID string) (*model.Credentials, error) {
	if _, err := c.requireAdmin(ctx, callerToken); err != nil {
		return nil, err
	}
	cr, err := c.store.Credentials.GetByID(ctx, credentialsID)
	if err != nil {
		return nil, mapStoreErr(err, KindNotFound, KindInternal, "get credentials")
	}
	return cr, nil
}

// ListCredentialsForUser lists a user's Credentials records. Admin-only.
func (c *Core) ListCredentialsForUser(ctx context.Context, callerToken, userID string, p store.Page) ([]*model.Credentials, error) {
	if _, err := c.requireAdmin(ctx, callerToken); err != nil {
		return nil, err
	}
	items, err := c.store.Credentials.GetPageForUser(ctx, userID, p)
	if err != nil {
		return nil, wrapFault(KindInternal, "list credentials", err)
	}
	return items, nil
}

// DeleteCredentials removes a Credentials record. Admin-only.
func (c *Core) DeleteCredentials(ctx context.Context, callerToken, credentialsID string) error {
	actor, err := c.requireAdmin(ctx, callerToken)
	if err != nil {
		return err
	}
	if err := c.store.Credentials.Delete(ctx, credentialsID); err != nil {
		return mapStoreErr(err, KindNotFound, KindInternal, "delete credentials")
	}
	c.audit.Log(ctx, audit.Event{Type: audit.TypeCredentialsDeleted, ActorID: actor.ID, Resource: credentialsID})
	return nil
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
