/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"sort"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// MigrationManager applies versioned schema migrations, each in its own
// transaction and at most once per database.
type MigrationManager struct {
	db       *bun.DB
	registry ModelRegistry
	logger   Logger
}

// Migration represents an applied migration record stored in the database.
type Migration struct {
	bun.BaseModel `bun:"table:schema_migrations"`

	Version     string    `bun:"version,pk"`
	Name        string    `bun:"name"`
	AppliedAt   time.Time `bun:"applied_at"`
	Description string    `bun:"description"`
}

// MigrationFunc is a migration step executed within a transaction.
type MigrationFunc func(ctx context.Context, db bun.IDB) error

// MigrationItem describes a single migration version.
type MigrationItem struct {
	Version     string
	Name        string
	Description string
	Up          MigrationFunc
}

// NewMigrationManager migrates the models of registry. A nil registry
// migrates nothing but the tracking table.
func NewMigrationManager(db *bun.DB, registry ModelRegistry, logger Logger) *MigrationManager {
	if registry == nil {
		registry = NewModelRegistry()
	}
	if logger == nil {
		logger = NopLogger{}
	}
	return &MigrationManager{db: db, registry: registry, logger: logger}
}

// RunMigrations creates the migration tracking table if needed and executes
// the pending migrations in ascending version order.
func (mm *MigrationManager) RunMigrations(ctx context.Context) error {
	if mm.db == nil {
		return fmt.Errorf("database not initialized")
	}
	if _, ok := os.LookupEnv("BUNDEBUG_MIGRATION"); !ok {
		ctx = WithSilentQueries(ctx)
	}

	if err := mm.createMigrationTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	migrations := mm.Migrations()
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	for _, migration := range migrations {
		if err := mm.runMigration(ctx, migration); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", migration.Version, err)
		}
	}

	mm.logger.Info("Database migrations completed!")
	return nil
}

func (mm *MigrationManager) createMigrationTable(ctx context.Context) error {
	_, err := mm.db.NewCreateTable().
		Model((*Migration)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

// Migrations returns every known migration.
func (mm *MigrationManager) Migrations() []MigrationItem {
	return []MigrationItem{
		{
			Version:     "001",
			Name:        "create_base_tables",
			Description: "Create base table structure",
			Up:          mm.createBaseTables,
		},
		{
			Version:     "002",
			Name:        "create_indexes",
			Description: "Create model indexes",
			Up:          mm.createIndexes,
		},
	}
}

func (mm *MigrationManager) runMigration(ctx context.Context, migration MigrationItem) error {
	exists, err := mm.db.NewSelect().
		Model((*Migration)(nil)).
		Where("version = ?", migration.Version).
		Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		mm.logger.Debug("Migration already applied", "version", migration.Version)
		return nil
	}

	err = mm.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := migration.Up(ctx, tx); err != nil {
			return err
		}
		_, err := tx.NewInsert().
			Model(&Migration{
				Version:     migration.Version,
				Name:        migration.Name,
				AppliedAt:   time.Now().UTC(),
				Description: migration.Description,
			}).
			Exec(ctx)
		return err
	})
	if err != nil {
		return err
	}
	mm.logger.Info("Migration executed successfully", "version", migration.Version, "name", migration.Name)
	return nil
}

func (mm *MigrationManager) createBaseTables(ctx context.Context, db bun.IDB) error {
	for _, model := range mm.registry.Instances() {
		_, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create table %s: %w", getModelName(model), err)
		}
	}
	return nil
}

// createIndexes skips indexes that already exist, for tables created before
// migrations were tracked. MySQL has no CREATE INDEX IF NOT EXISTS, so there
// the duplicate index error is ignored instead.
func (mm *MigrationManager) createIndexes(ctx context.Context, db bun.IDB) error {
	for _, model := range mm.registry.Instances() {
		indexed, ok := model.(IndexedModel)
		if !ok {
			continue
		}
		for _, idx := range indexed.Indexes() {
			q := db.NewCreateIndex().Model(model).Index(idx.Name).Column(idx.Columns...)
			if idx.Unique {
				q = q.Unique()
			}
			if db.Dialect().Name() != dialect.MySQL {
				q = q.IfNotExists()
			}
			if _, err := q.Exec(ctx); err != nil {
				if IsSqlErrorKind(err, ExistIndexErr) {
					mm.logger.Debug("Index already exists", "index", idx.Name)
					continue
				}
				return fmt.Errorf("failed to create index %s on %s: %w", idx.Name, getModelName(model), err)
			}
		}
	}
	return nil
}

func getModelName(model interface{}) string {
	t := reflect.TypeOf(model)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// GetAppliedMigrations returns migration records ordered by version.
func (mm *MigrationManager) GetAppliedMigrations(ctx context.Context) ([]Migration, error) {
	var migrations []Migration
	err := mm.db.NewSelect().
		Model(&migrations).
		Order("version ASC").
		Scan(ctx)
	return migrations, err
}
