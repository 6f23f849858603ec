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

// TokenRepository implements store.TokenRepository.
type TokenRepository struct {
	db *DB
}

// NewTokenRepository creates a new token repository.
func NewTokenRepository(db *DB) *TokenRepository {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) Create(ctx context.Context, t *model.Token) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO tokens (id, user_id, tenant_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, t.ID, t.UserID, t.TenantID, t.Expires, t.Created)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

func (r *TokenRepository) scan(row pgx.Row) (*model.Token, error) {
	var t model.Token
	if err := row.Scan(&t.ID, &t.UserID, &t.TenantID, &t.Expires, &t.Created); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("scan token: %w", err)
	}
	return &t, nil
}

func (r *TokenRepository) GetByID(ctx context.Context, id string) (*model.Token, error) {
	row := r.db.pool.QueryRow(ctx, `
		SELECT id, user_id, tenant_id, expires_at, created_at FROM tokens WHERE id = $1
	`, id)
	return r.scan(row)
}

// ForUserAndTenant lists every token issued to userID scoped to tenantID
// ("" selects unscoped tokens), used by authenticate's token-reuse rule.
func (r *TokenRepository) ForUserAndTenant(ctx context.Context, userID, tenantID string) ([]*model.Token, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, user_id, tenant_id, expires_at, created_at FROM tokens
		WHERE user_id = $1 AND tenant_id = $2
	`, userID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	defer rows.Close()

	var out []*model.Token
	for rows.Next() {
		t, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// DeleteByUserID revokes every token issued to a user.
func (r *TokenRepository) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.db.pool.Exec(ctx, `DELETE FROM tokens WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete user tokens: %w", err)
	}
	return nil
}

func (r *TokenRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.pool.Exec(ctx, `DELETE FROM tokens WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
