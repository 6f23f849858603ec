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

// EndpointTemplateRepository implements store.EndpointTemplateRepository.
type EndpointTemplateRepository struct {
	db *DB
}

// NewEndpointTemplateRepository creates a new endpoint template repository.
func NewEndpointTemplateRepository(db *DB) *EndpointTemplateRepository {
	return &EndpointTemplateRepository{db: db}
}

const endpointTemplateColumns = `id, region, service_id, public_url, admin_url, internal_url,
	enabled, is_global, version_id, version_list, version_info`

func (r *EndpointTemplateRepository) Create(ctx context.Context, e *model.EndpointTemplate) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO endpoint_templates (`+endpointTemplateColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, e.ID, e.Region, e.ServiceID, e.PublicURL, e.AdminURL, e.InternalURL,
		e.Enabled, e.IsGlobal, e.VersionID, e.VersionList, e.VersionInfo)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return fmt.Errorf("insert endpoint template: %w", err)
	}
	return nil
}

func (r *EndpointTemplateRepository) scan(row pgx.Row) (*model.EndpointTemplate, error) {
	var e model.EndpointTemplate
	if err := row.Scan(&e.ID, &e.Region, &e.ServiceID, &e.PublicURL, &e.AdminURL, &e.InternalURL,
		&e.Enabled, &e.IsGlobal, &e.VersionID, &e.VersionList, &e.VersionInfo); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("scan endpoint template: %w", err)
	}
	return &e, nil
}

func (r *EndpointTemplateRepository) GetByID(ctx context.Context, id string) (*model.EndpointTemplate, error) {
	row := r.db.pool.QueryRow(ctx, `
		SELECT `+endpointTemplateColumns+` FROM endpoint_templates
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	return r.scan(row)
}

func (r *EndpointTemplateRepository) Update(ctx context.Context, e *model.EndpointTemplate) error {
	result, err := r.db.pool.Exec(ctx, `
		UPDATE endpoint_templates SET region = $2, service_id = $3, public_url = $4,
			admin_url = $5, internal_url = $6, enabled = $7, is_global = $8,
			version_id = $9, version_list = $10, version_info = $11
		WHERE id = $1 AND deleted_at IS NULL
	`, e.ID, e.Region, e.ServiceID, e.PublicURL, e.AdminURL, e.InternalURL,
		e.Enabled, e.IsGlobal, e.VersionID, e.VersionList, e.VersionInfo)
	if err != nil {
		return fmt.Errorf("update endpoint template: %w", err)
	}
	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *EndpointTemplateRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.pool.Exec(ctx, `
		UPDATE endpoint_templates SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return fmt.Errorf("delete endpoint template: %w", err)
	}
	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *EndpointTemplateRepository) GetPage(ctx context.Context, p store.Page) ([]*model.EndpointTemplate, error) {
	ids, err := fetchPageIDs(ctx, r.db.pool, "endpoint_templates", "deleted_at IS NULL", nil, p.Marker, p.Limit)
	if err != nil {
		return nil, fmt.Errorf("list endpoint templates: %w", err)
	}
	return r.getByIDs(ctx, ids)
}

func (r *EndpointTemplateRepository) getByIDs(ctx context.Context, ids []string) ([]*model.EndpointTemplate, error) {
	out := make([]*model.EndpointTemplate, 0, len(ids))
	for _, id := range ids {
		e, err := r.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *EndpointTemplateRepository) GetPageMarkers(ctx context.Context, p store.Page) (string, string, error) {
	return pageMarkers(ctx, r.db.pool, "endpoint_templates", "deleted_at IS NULL", nil, p.Marker, p.Limit)
}

// EndpointTemplatesByServicePage lists the templates belonging to a service.
func (r *EndpointTemplateRepository) EndpointTemplatesByServicePage(ctx context.Context, serviceID string, p store.Page) ([]*model.EndpointTemplate, error) {
	ids, err := fetchPageIDs(ctx, r.db.pool, "endpoint_templates", "deleted_at IS NULL AND service_id = $1", []any{serviceID}, p.Marker, p.Limit)
	if err != nil {
		return nil, fmt.Errorf("list service endpoint templates: %w", err)
	}
	return r.getByIDs(ctx, ids)
}

// GlobalPage lists templates flagged global.
func (r *EndpointTemplateRepository) GlobalPage(ctx context.Context, p store.Page) ([]*model.EndpointTemplate, error) {
	ids, err := fetchPageIDs(ctx, r.db.pool, "endpoint_templates", "deleted_at IS NULL AND is_global", nil, p.Marker, p.Limit)
	if err != nil {
		return nil, fmt.Errorf("list global endpoint templates: %w", err)
	}
	return r.getByIDs(ctx, ids)
}

// EndpointRepository implements store.EndpointRepository.
type EndpointRepository struct {
	db *DB
}

// NewEndpointRepository creates a new endpoint repository.
func NewEndpointRepository(db *DB) *EndpointRepository {
	return &EndpointRepository{db: db}
}

func (r *EndpointRepository) Create(ctx context.Context, e *model.Endpoint) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO endpoints (id, tenant_id, endpoint_template_id)
		VALUES ($1, $2, $3)
	`, e.ID, e.TenantID, e.EndpointTemplateID)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return fmt.Errorf("insert endpoint: %w", err)
	}
	return nil
}

func (r *EndpointRepository) GetByID(ctx context.Context, id string) (*model.Endpoint, error) {
	var e model.Endpoint
	err := r.db.pool.QueryRow(ctx, `
		SELECT id, tenant_id, endpoint_template_id FROM endpoints WHERE id = $1
	`, id).Scan(&e.ID, &e.TenantID, &e.EndpointTemplateID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("scan endpoint: %w", err)
	}
	return &e, nil
}

func (r *EndpointRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.pool.Exec(ctx, `DELETE FROM endpoints WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete endpoint: %w", err)
	}
	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *EndpointRepository) GetPage(ctx context.Context, p store.Page) ([]*model.Endpoint, error) {
	ids, err := fetchPageIDs(ctx, r.db.pool, "endpoints", "true", nil, p.Marker, p.Limit)
	if err != nil {
		return nil, fmt.Errorf("list endpoints: %w", err)
	}
	return r.getByIDs(ctx, ids)
}

func (r *EndpointRepository) getByIDs(ctx context.Context, ids []string) ([]*model.Endpoint, error) {
	out := make([]*model.Endpoint, 0, len(ids))
	for _, id := range ids {
		e, err := r.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *EndpointRepository) GetPageMarkers(ctx context.Context, p store.Page) (string, string, error) {
	return pageMarkers(ctx, r.db.pool, "endpoints", "true", nil, p.Marker, p.Limit)
}

// EndpointsForTenantPage lists the endpoints bound to a tenant.
func (r *EndpointRepository) EndpointsForTenantPage(ctx context.Context, tenantID string, p store.Page) ([]*model.Endpoint, error) {
	ids, err := fetchPageIDs(ctx, r.db.pool, "endpoints", "tenant_id = $1", []any{tenantID}, p.Marker, p.Limit)
	if err != nil {
		return nil, fmt.Errorf("list tenant endpoints: %w", err)
	}
	return r.getByIDs(ctx, ids)
}

// DeleteByTemplate removes every Endpoint bound to templateID, used by the
// service-delete cascade.
func (r *EndpointRepository) DeleteByTemplate(ctx context.Context, templateID string) error {
	_, err := r.db.pool.Exec(ctx, `DELETE FROM endpoints WHERE endpoint_template_id = $1`, templateID)
	if err != nil {
		return fmt.Errorf("delete template endpoints: %w", err)
	}
	return nil
}
