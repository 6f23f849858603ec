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
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/opentrusty/keystone-id/internal/model"
	"github.com/opentrusty/keystone-id/internal/store"
)

// UserRepository implements store.UserRepository.
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	extra, err := json.Marshal(u.Extra)
	if err != nil {
		return fmt.Errorf("marshal extra: %w", err)
	}
	_, err = r.db.pool.Exec(ctx, `
		INSERT INTO users (id, name, password, email, enabled, tenant_id, extra)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)
	`, u.ID, u.Name, u.Password, u.Email, u.Enabled, u.TenantID, extra)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	var tenantID sql.NullString
	var extra []byte
	if err := row.Scan(&u.ID, &u.Name, &u.Password, &u.Email, &u.Enabled, &tenantID, &extra); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	if tenantID.Valid {
		u.TenantID = tenantID.String
	}
	if len(extra) > 0 {
		if err := json.Unmarshal(extra, &u.Extra); err != nil {
			return nil, fmt.Errorf("unmarshal extra: %w", err)
		}
	}
	return &u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	row := r.db.pool.QueryRow(ctx, `
		SELECT id, name, password, email, enabled, tenant_id, extra
		FROM users WHERE id = $1 AND deleted_at IS NULL
	`, id)
	return r.scanUser(row)
}

func (r *UserRepository) GetByName(ctx context.Context, name string) (*model.User, error) {
	row := r.db.pool.QueryRow(ctx, `
		SELECT id, name, password, email, enabled, tenant_id, extra
		FROM users WHERE name = $1 AND deleted_at IS NULL
	`, name)
	return r.scanUser(row)
}

func (r *UserRepository) Update(ctx context.Context, u *model.User) error {
	extra, err := json.Marshal(u.Extra)
	if err != nil {
		return fmt.Errorf("marshal extra: %w", err)
	}
	result, err := r.db.pool.Exec(ctx, `
		UPDATE users SET name = $2, password = $3, email = $4, enabled = $5,
			tenant_id = NULLIF($6, ''), extra = $7, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
	`, u.ID, u.Name, u.Password, u.Email, u.Enabled, u.TenantID, extra)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return fmt.Errorf("update user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.pool.Exec(ctx, `
		UPDATE users SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *UserRepository) GetPage(ctx context.Context, p store.Page) ([]*model.User, error) {
	ids, err := fetchPageIDs(ctx, r.db.pool, "users", "deleted_at IS NULL", nil, p.Marker, p.Limit)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return r.getByIDs(ctx, ids)
}

func (r *UserRepository) getByIDs(ctx context.Context, ids []string) ([]*model.User, error) {
	out := make([]*model.User, 0, len(ids))
	for _, id := range ids {
		u, err := r.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

func (r *UserRepository) GetPageMarkers(ctx context.Context, p store.Page) (string, string, error) {
	return pageMarkers(ctx, r.db.pool, "users", "deleted_at IS NULL", nil, p.Marker, p.Limit)
}

// UsersByTenantPage lists the users who hold any role grant within tenantID.
func (r *UserRepository) UsersByTenantPage(ctx context.Context, tenantID string, p store.Page) ([]*model.User, error) {
	filter := `deleted_at IS NULL AND id IN (
		SELECT DISTINCT user_id FROM user_role_associations WHERE tenant_id = $1
	)`
	ids, err := fetchPageIDs(ctx, r.db.pool, "users", filter, []any{tenantID}, p.Marker, p.Limit)
	if err != nil {
		return nil, fmt.Errorf("list tenant users: %w", err)
	}
	return r.getByIDs(ctx, ids)
}

// ExistsWithDefaultTenant reports whether any user's default tenant_id is
// tenantID, used by the tenant-delete non-empty check.
func (r *UserRepository) ExistsWithDefaultTenant(ctx context.Context, tenantID string) (bool, error) {
	var exists bool
	err := r.db.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM users WHERE tenant_id = $1 AND deleted_at IS NULL)
	`, tenantID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check default tenant users: %w", err)
	}
	return exists, nil
}
