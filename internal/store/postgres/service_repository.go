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

// ServiceRepository implements store.ServiceRepository.
type ServiceRepository struct {
	db *DB
}

// NewServiceRepository creates a new service repository.
func NewServiceRepository(db *DB) *ServiceRepository {
	return &ServiceRepository{db: db}
}

func (r *ServiceRepository) Create(ctx context.Context, s *model.Service) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO services (id, name, type, description, owner_id)
		VALUES ($1, $2, $3, $4, $5)
	`, s.ID, s.Name, s.Type, s.Description, s.OwnerID)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return fmt.Errorf("insert service: %w", err)
	}
	return nil
}

func (r *ServiceRepository) scanService(row pgx.Row) (*model.Service, error) {
	var s model.Service
	if err := row.Scan(&s.ID, &s.Name, &s.Type, &s.Description, &s.OwnerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("scan service: %w", err)
	}
	return &s, nil
}

func (r *ServiceRepository) GetByID(ctx context.Context, id string) (*model.Service, error) {
	row := r.db.pool.QueryRow(ctx, `
		SELECT id, name, type, description, owner_id FROM services
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	return r.scanService(row)
}

func (r *ServiceRepository) GetByName(ctx context.Context, name string) (*model.Service, error) {
	row := r.db.pool.QueryRow(ctx, `
		SELECT id, name, type, description, owner_id FROM services
		WHERE name = $1 AND deleted_at IS NULL
	`, name)
	return r.scanService(row)
}

func (r *ServiceRepository) Update(ctx context.Context, s *model.Service) error {
	result, err := r.db.pool.Exec(ctx, `
		UPDATE services SET name = $2, type = $3, description = $4, owner_id = $5
		WHERE id = $1 AND deleted_at IS NULL
	`, s.ID, s.Name, s.Type, s.Description, s.OwnerID)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return fmt.Errorf("update service: %w", err)
	}
	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *ServiceRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.pool.Exec(ctx, `
		UPDATE services SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return fmt.Errorf("delete service: %w", err)
	}
	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *ServiceRepository) GetPage(ctx context.Context, p store.Page) ([]*model.Service, error) {
	ids, err := fetchPageIDs(ctx, r.db.pool, "services", "deleted_at IS NULL", nil, p.Marker, p.Limit)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	out := make([]*model.Service, 0, len(ids))
	for _, id := range ids {
		s, err := r.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *ServiceRepository) GetPageMarkers(ctx context.Context, p store.Page) (string, string, error) {
	return pageMarkers(ctx, r.db.pool, "services", "deleted_at IS NULL", nil, p.Marker, p.Limit)
}
