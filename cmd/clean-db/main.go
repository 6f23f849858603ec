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

// Command clean-db truncates every domain table and re-seeds the
// well-known admin/service-admin roles identitycore.NewCore requires to
// exist at startup. Connection parameters are read exclusively from
// internal/config.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/opentrusty/keystone-id/internal/config"
	"github.com/opentrusty/keystone-id/internal/id"
)

// dependency order: children before the parents they reference.
var tables = []string{
	"credentials",
	"tokens",
	"user_role_associations",
	"endpoints",
	"endpoint_templates",
	"roles",
	"services",
	"users",
	"tenants",
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.Database.User, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database, cfg.Database.SSLMode,
	)

	db, err := sql.Open("pgx", connStr)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer db.Close()

	fmt.Println("cleaning database...")
	for _, table := range tables {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
			fmt.Printf("warning: failed to truncate %s: %v\n", table, err)
			continue
		}
		fmt.Printf("cleared %s\n", table)
	}

	fmt.Println("\nre-inserting well-known roles...")
	wellKnown := []string{cfg.Identity.AdminRoleName, cfg.Identity.ServiceAdminRoleName}
	for _, name := range wellKnown {
		_, err := db.ExecContext(ctx, `
			INSERT INTO roles (id, name, description)
			VALUES ($1, $2, $3)
		`, id.NewUUIDv7(), name, "well-known role resolved by identitycore.NewCore at startup")
		if err != nil {
			log.Printf("failed to insert role %s: %v", name, err)
			continue
		}
		fmt.Printf("created role: %s\n", name)
	}

	fmt.Println("\ndatabase cleaned and reset successfully.")
}
