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
	"fmt"

	"github.com/opentrusty/keystone-id/internal/model"
	"github.com/opentrusty/keystone-id/internal/store"
)

// GrantRepository implements store.GrantRepository. A grant is keyed by
// (user_id, role_id, tenant_id), with tenant_id == "" meaning a global
// grant (spec invariant: at most one association per tuple), enforced by
// the composite primary key on user_role_associations.
type GrantRepository struct {
	db *DB
}

// NewGrantRepository creates a new grant repository.
func NewGrantRepository(db *DB) *GrantRepository {
	return &GrantRepository{db: db}
}

func (r *GrantRepository) Grant(ctx context.Context, a *model.UserRoleAssociation) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO user_role_associations (user_id, role_id, tenant_id)
		VALUES ($1, $2, $3)
	`, a.UserID, a.RoleID, a.TenantID)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return fmt.Errorf("insert grant: %w", err)
	}
	return nil
}

func (r *GrantRepository) Revoke(ctx context.Context, userID, roleID, tenantID string) error {
	result, err := r.db.pool.Exec(ctx, `
		DELETE FROM user_role_associations WHERE user_id = $1 AND role_id = $2 AND tenant_id = $3
	`, userID, roleID, tenantID)
	if err != nil {
		return fmt.Errorf("delete grant: %w", err)
	}
	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *GrantRepository) scanAssociations(ctx context.Context, query string, args ...any) ([]*model.UserRoleAssociation, error) {
	rows, err := r.db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query grants: %w", err)
	}
	defer rows.Close()

	var out []*model.UserRoleAssociation
	for rows.Next() {
		var a model.UserRoleAssociation
		if err := rows.Scan(&a.UserID, &a.RoleID, &a.TenantID); err != nil {
			return nil, fmt.Errorf("scan grant: %w", err)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

// RolesForUserPage lists every grant for userID across all tenants, paged
// by role id in descending order.
func (r *GrantRepository) RolesForUserPage(ctx context.Context, userID, _ string, p store.Page) ([]*model.UserRoleAssociation, error) {
	args := []any{userID}
	where := "user_id = $1"
	if p.Marker != "" {
		args = append(args, p.Marker)
		where += fmt.Sprintf(" AND role_id < $%d", len(args))
	}
	query := fmt.Sprintf("SELECT user_id, role_id, tenant_id FROM user_role_associations WHERE %s ORDER BY role_id DESC", where)
	if p.Limit > 0 {
		args = append(args, p.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	return r.scanAssociations(ctx, query, args...)
}

// GlobalRolesForUser lists only global (tenant_id == "") grants.
func (r *GrantRepository) GlobalRolesForUser(ctx context.Context, userID string) ([]*model.UserRoleAssociation, error) {
	return r.scanAssociations(ctx, `
		SELECT user_id, role_id, tenant_id FROM user_role_associations
		WHERE user_id = $1 AND tenant_id = ''
	`, userID)
}

// TenantRolesForUser lists only the grants scoped to tenantID.
func (r *GrantRepository) TenantRolesForUser(ctx context.Context, userID, tenantID string) ([]*model.UserRoleAssociation, error) {
	return r.scanAssociations(ctx, `
		SELECT user_id, role_id, tenant_id FROM user_role_associations
		WHERE user_id = $1 AND tenant_id = $2
	`, userID, tenantID)
}

// RevokeAllForRole removes every grant referencing roleID, used by the
// role-delete and service-delete cascades.
func (r *GrantRepository) RevokeAllForRole(ctx context.Context, roleID string) error {
	_, err := r.db.pool.Exec(ctx, `DELETE FROM user_role_associations WHERE role_id = $1`, roleID)
	if err != nil {
		return fmt.Errorf("revoke role grants: %w", err)
	}
	return nil
}
