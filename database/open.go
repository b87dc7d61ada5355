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
)

// Open connects with cfg, migrates the models of registry when
// cfg.DataMigrateConfig asks for it, and returns the factory owning the
// connection. The caller closes it.
func Open(ctx context.Context, cfg *Config, registry ModelRegistry, logger Logger) (*BaseDatabaseFactory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration cannot be empty")
	}
	factory := NewDatabaseFactory(logger)
	if _, err := factory.CreateFromConfig(&cfg.ConnectionConfig); err != nil {
		return nil, fmt.Errorf("failed to create database manager: %w", err)
	}
	if err := factory.InitializeDatabase(ctx, cfg.DataMigrateConfig.EnableMigrateOnStartup, registry); err != nil {
		_ = factory.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if registry != nil {
		factory.GetDB().RegisterModel(registry.Instances()...)
	}
	return factory, nil
}
