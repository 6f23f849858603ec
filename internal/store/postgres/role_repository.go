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
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/opentrusty/keystone-id/internal/model"
	"github.com/opentrusty/keystone-id/internal/store"
)

// RoleRepository implements store.RoleRepository.
type RoleRepository struct {
	db *DB
}

// NewRoleRepository creates a new role repository.
func NewRoleRepository(db *DB) *RoleRepository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) Create(ctx context.Context, role *model.Role) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO roles (id, name, description, service_id)
		VALUES ($1, $2, $3, NULLIF($4, ''))
	`, role.ID, role.Name, role.Description, role.ServiceID)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return fmt.Errorf("insert role: %w", err)
	}
	return nil
}

func (r *RoleRepository) scanRole(row pgx.Row) (*model.Role, error) {
	var role model.Role
	var serviceID sql.NullString
	if err := row.Scan(&role.ID, &role.Name, &role.Description, &serviceID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("scan role: %w", err)
	}
	if serviceID.Valid {
		role.ServiceID = serviceID.String
	}
	return &role, nil
}

func (r *RoleRepository) GetByID(ctx context.Context, id string) (*model.Role, error) {
	row := r.db.pool.QueryRow(ctx, `
		SELECT id, name, description, service_id FROM roles WHERE id = $1 AND deleted_at IS NULL
	`, id)
	return r.scanRole(row)
}

func (r *RoleRepository) GetByName(ctx context.Context, name string) (*model.Role, error) {
	row := r.db.pool.QueryRow(ctx, `
		SELECT id, name, description, service_id FROM roles WHERE name = $1 AND deleted_at IS NULL
	`, name)
	return r.scanRole(row)
}

func (r *RoleRepository) Update(ctx context.Context, role *model.Role) error {
	result, err := r.db.pool.Exec(ctx, `
		UPDATE roles SET name = $2, description = $3, service_id = NULLIF($4, '')
		WHERE id = $1 AND deleted_at IS NULL
	`, role.ID, role.Name, role.Description, role.ServiceID)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return fmt.Errorf("update role: %w", err)
	}
	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *RoleRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.pool.Exec(ctx, `
		UPDATE roles SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *RoleRepository) GetPage(ctx context.Context, p store.Page) ([]*model.Role, error) {
	ids, err := fetchPageIDs(ctx, r.db.pool, "roles", "deleted_at IS NULL", nil, p.Marker, p.Limit)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return r.getByIDs(ctx, ids)
}

func (r *RoleRepository) getByIDs(ctx context.Context, ids []string) ([]*model.Role, error) {
	out := make([]*model.Role, 0, len(ids))
	for _, id := range ids {
		role, err := r.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, role)
	}
	return out, nil
}

func (r *RoleRepository) GetPageMarkers(ctx context.Context, p store.Page) (string, string, error) {
	return pageMarkers(ctx, r.db.pool, "roles", "deleted_at IS NULL", nil, p.Marker, p.Limit)
}

// ListByService returns every role owned by serviceID.
func (r *RoleRepository) ListByService(ctx context.Context, serviceID string) ([]*model.Role, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, name, description, service_id FROM roles
		WHERE service_id = $1 AND deleted_at IS NULL ORDER BY id DESC
	`, serviceID)
	if err != nil {
		return nil, fmt.Errorf("list roles by service: %w", err)
	}
	defer rows.Close()

	var out []*model.Role
	for rows.Next() {
		role, err := r.scanRole(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	return out, rows.Err()
}
