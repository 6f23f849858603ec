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

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/opentrusty/keystone-id/internal/model"
	"github.com/opentrusty/keystone-id/internal/store"
)

// CredentialsRepository implements store.CredentialsRepository.
type CredentialsRepository struct {
	db *DB
}

// NewCredentialsRepository creates a new credentials repository.
func NewCredentialsRepository(db *DB) *CredentialsRepository {
	return &CredentialsRepository{db: db}
}

func (r *CredentialsRepository) Create(ctx context.Context, c *model.Credentials) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO credentials (id, user_id, tenant_id, type, access_key, secret_key)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, c.ID, c.UserID, c.TenantID, c.Type, c.Key, c.Secret)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return fmt.Errorf("insert credentials: %w", err)
	}
	return nil
}

func (r *CredentialsRepository) scan(row pgx.Row) (*model.Credentials, error) {
	var c model.Credentials
	if err := row.Scan(&c.ID, &c.UserID, &c.TenantID, &c.Type, &c.Key, &c.Secret); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("scan credentials: %w", err)
	}
	return &c, nil
}

func (r *CredentialsRepository) GetByID(ctx context.Context, id string) (*model.Credentials, error) {
	row := r.db.pool.QueryRow(ctx, `
		SELECT id, user_id, tenant_id, type, access_key, secret_key FROM credentials WHERE id = $1
	`, id)
	return r.scan(row)
}

// GetByKey looks a credential up by its public access key, the lookup the
// EC2 signature verifier performs.
func (r *CredentialsRepository) GetByKey(ctx context.Context, key string) (*model.Credentials, error) {
	row := r.db.pool.QueryRow(ctx, `
		SELECT id, user_id, tenant_id, type, access_key, secret_key FROM credentials WHERE access_key = $1
	`, key)
	return r.scan(row)
}

func (r *CredentialsRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.pool.Exec(ctx, `DELETE FROM credentials WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete credentials: %w", err)
	}
	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *CredentialsRepository) GetPageForUser(ctx context.Context, userID string, p store.Page) ([]*model.Credentials, error) {
	ids, err := fetchPageIDs(ctx, r.db.pool, "credentials", "user_id = $1", []any{userID}, p.Marker, p.Limit)
	if err != nil {
		return nil, fmt.Errorf("list user credentials: %w", err)
	}
	out := make([]*model.Credentials, 0, len(ids))
	for _, id := range ids {
		c, err := r.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
