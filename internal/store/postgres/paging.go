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

	"github.com/jackc/pgx/v5/pgxpool"
)

// fetchPageIDs returns the ids in table matching filterSQL (a WHERE clause
// body referencing $1..$len(filterArgs), with no leading "WHERE"), in
// descending-id order, continuing strictly after marker ("" selects the
// first page) and bounded by limit (limit <= 0 means unbounded).
func fetchPageIDs(ctx context.Context, pool *pgxpool.Pool, table, filterSQL string, filterArgs []any, marker string, limit int) ([]string, error) {
	args := append([]any{}, filterArgs...)
	where := filterSQL
	if marker != "" {
		args = append(args, marker)
		where = fmt.Sprintf("%s AND id < $%d", where, len(args))
	}
	query := fmt.Sprintf("SELECT id FROM %s WHERE %s ORDER BY id DESC", table, where)
	if limit > 0 {
		args = append(args, limit)
		query = fmt.Sprintf("%s LIMIT $%d", query, len(args))
	}
	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// pageMarkers implements the get_page_markers contract (spec §4.1) against
// a table: prev mirrors marker back when a row with that id still matches
// filterSQL, next is the last id of the current page when at least one more
// matching row exists beyond it.
func pageMarkers(ctx context.Context, pool *pgxpool.Pool, table, filterSQL string, filterArgs []any, marker string, limit int) (prev, next string, err error) {
	pageIDs, err := fetchPageIDs(ctx, pool, table, filterSQL, filterArgs, marker, limit)
	if err != nil {
		return "", "", err
	}

	if marker != "" {
		args := append(append([]any{}, filterArgs...), marker)
		query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE %s AND id = $%d)", table, filterSQL, len(args))
		var exists bool
		if err := pool.QueryRow(ctx, query, args...).Scan(&exists); err != nil {
			return "", "", err
		}
		if exists {
			prev = marker
		}
	}

	if limit > 0 && len(pageIDs) == limit {
		lastID := pageIDs[len(pageIDs)-1]
		args := append(append([]any{}, filterArgs...), lastID)
		query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE %s AND id < $%d)", table, filterSQL, len(args))
		var more bool
		if err := pool.QueryRow(ctx, query, args...).Scan(&more); err != nil {
			return "", "", err
		}
		if more {
			next = lastID
		}
	}

	return prev, next, nil
}
