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
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/opentrusty/keystone-id/internal/model"
	"github.com/opentrusty/keystone-id/internal/store"
)

// TenantRepository implements store.TenantRepository.
type TenantRepository struct {
	db *DB
}

// NewTenantRepository creates a new tenant repository.
func NewTenantRepository(db *DB) *TenantRepository {
	return &TenantRepository{db: db}
}

func (r *TenantRepository) Create(ctx context.Context, t *model.Tenant) error {
	extra, err := json.Marshal(t.Extra)
	if err != nil {
		return fmt.Errorf("marshal extra: %w", err)
	}
	_, err = r.db.pool.Exec(ctx, `
		INSERT INTO tenants (id, name, description, enabled, extra)
		VALUES ($1, $2, $3, $4, $5)
	`, t.ID, t.Name, t.Description, t.Enabled, extra)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return fmt.Errorf("insert tenant: %w", err)
	}
	return nil
}

func (r *TenantRepository) scanTenant(row pgx.Row) (*model.Tenant, error) {
	var t model.Tenant
	var extra []byte
	if err := row.Scan(&t.ID, &t.Name, &t.Description, &t.Enabled, &extra); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("scan tenant: %w", err)
	}
	if len(extra) > 0 {
		if err := json.Unmarshal(extra, &t.Extra); err != nil {
			return nil, fmt.Errorf("unmarshal extra: %w", err)
		}
	}
	return &t, nil
}

func (r *TenantRepository) GetByID(ctx context.Context, id string) (*model.Tenant, error) {
	row := r.db.pool.QueryRow(ctx, `
		SELECT id, name, description, enabled, extra
		FROM tenants WHERE id = $1 AND deleted_at IS NULL
	`, id)
	return r.scanTenant(row)
}

func (r *TenantRepository) GetByName(ctx context.Context, name string) (*model.Tenant, error) {
	row := r.db.pool.QueryRow(ctx, `
		SELECT id, name, description, enabled, extra
		FROM tenants WHERE name = $1 AND deleted_at IS NULL
	`, name)
	return r.scanTenant(row)
}

func (r *TenantRepository) Update(ctx context.Context, t *model.Tenant) error {
	extra, err := json.Marshal(t.Extra)
	if err != nil {
		return fmt.Errorf("marshal extra: %w", err)
	}
	result, err := r.db.pool.Exec(ctx, `
		UPDATE tenants SET name = $2, description = $3, enabled = $4, extra = $5, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
	`, t.ID, t.Name, t.Description, t.Enabled, extra)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return fmt.Errorf("update tenant: %w", err)
	}
	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *TenantRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.pool.Exec(ctx, `
		UPDATE tenants SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return fmt.Errorf("delete tenant: %w", err)
	}
	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *TenantRepository) GetPage(ctx context.Context, p store.Page) ([]*model.Tenant, error) {
	ids, err := fetchPageIDs(ctx, r.db.pool, "tenants", "deleted_at IS NULL", nil, p.Marker, p.Limit)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	return r.getByIDs(ctx, ids)
}

func (r *TenantRepository) getByIDs(ctx context.Context, ids []string) ([]*model.Tenant, error) {
	out := make([]*model.Tenant, 0, len(ids))
	for _, id := range ids {
		t, err := r.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *TenantRepository) GetPageMarkers(ctx context.Context, p store.Page) (string, string, error) {
	return pageMarkers(ctx, r.db.pool, "tenants", "deleted_at IS NULL", nil, p.Marker, p.Limit)
}

// TenantsForUserPage lists the tenants a user holds any role grant in.
func (r *TenantRepository) TenantsForUserPage(ctx context.Context, userID string, p store.Page) ([]*model.Tenant, error) {
	filter := `deleted_at IS NULL AND id IN (
		SELECT DISTINCT tenant_id FROM user_role_associations WHERE user_id = $1 AND tenant_id != ''
	)`
	ids, err := fetchPageIDs(ctx, r.db.pool, "tenants", filter, []any{userID}, p.Marker, p.Limit)
	if err != nil {
		return nil, fmt.Errorf("list tenants for user: %w", err)
	}
	return r.getByIDs(ctx, ids)
}

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
