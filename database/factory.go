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
	"time"

	"github.com/tomoncle/productsvc/utils"
	"github.com/uptrace/bun"
)

// BaseDatabaseFactory creates and manages a configured database manager and
// provides helpers for initialization, health checks, and statistics.
type BaseDatabaseFactory struct {
	manager AbstractDatabaseManager
	logger  Logger
}

// NewDatabaseFactory returns a factory logging to logger; nil discards.
func NewDatabaseFactory(logger Logger) *BaseDatabaseFactory {
	if logger == nil {
		logger = NopLogger{}
	}
	return &BaseDatabaseFactory{logger: logger}
}

// CreateFromConfig constructs a database manager from the given connection
// configuration, applying environment overrides and setting the factory logger.
func (f *BaseDatabaseFactory) CreateFromConfig(cfg *ConnectionConfig) (AbstractDatabaseManager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration cannot be empty")
	}

	f.overrideFromEnv(cfg)

	name, _, err := lookupBackend(cfg.Type)
	if err != nil {
		return nil, err
	}
	cfg.Type = name

	manager := NewDatabaseManager(cfg)
	manager.SetLogger(f.logger)

	f.manager = manager
	return manager, nil
}

// overrideFromEnv overrides configuration values from DB_* environment
// variables. Durations are given in seconds.
func (f *BaseDatabaseFactory) overrideFromEnv(cfg *ConnectionConfig) {
	cfg.Type = utils.EnvDefaultString("DB_TYPE", cfg.Type)
	cfg.Driver = utils.EnvDefaultString("DB_DRIVER", cfg.Driver)
	cfg.Host = utils.EnvDefaultString("DB_HOST", cfg.Host)
	cfg.Port = utils.EnvDefaultInt("DB_PORT", cfg.Port)
	cfg.Username = utils.EnvDefaultString("DB_USERNAME", cfg.Username)
	cfg.Password = utils.EnvDefaultString("DB_PASSWORD", cfg.Password)
	cfg.DBName = utils.EnvDefaultString("DB_NAME", cfg.DBName)
	cfg.SSLMode = utils.EnvDefaultString("DB_SSLMODE", cfg.SSLMode)

	cfg.MaxIdleConns = utils.EnvDefaultInt("DB_MAX_IDLE_CONNS", cfg.MaxIdleConns)
	cfg.MaxOpenConns = utils.EnvDefaultInt("DB_MAX_OPEN_CONNS", cfg.MaxOpenConns)
	cfg.ConnMaxLifetime = envSeconds("DB_CONN_MAX_LIFETIME", cfg.ConnMaxLifetime)

	cfg.EnableReconnect = utils.EnvDefaultBool("DB_ENABLE_RECONNECT", cfg.EnableReconnect)
	cfg.ReconnectInterval = envSeconds("DB_RECONNECT_INTERVAL", cfg.ReconnectInterval)

	cfg.EnableQueryLog = utils.EnvDefaultBool("DB_ENABLE_QUERY_LOG", cfg.EnableQueryLog)
}

func envSeconds(key string, def time.Duration) time.Duration {
	const unset = -1
	if v := utils.EnvDefaultInt(key, unset); v != unset {
		return time.Duration(v) * time.Second
	}
	return def
}

// InitializeDatabase connects to the database and optionally migrates the
// models of registry.
func (f *BaseDatabaseFactory) InitializeDatabase(ctx context.Context, runMigrations bool, registry ModelRegistry) error {
	if f.manager == nil {
		return fmt.Errorf("database manager not created")
	}

	if err := f.manager.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if runMigrations {
		if err := f.manager.RunMigrations(ctx, registry); err != nil {
			return fmt.Errorf("failed to run database migrations: %w", err)
		}
	}
	f.logger.Info("Database initialization completed!")
	return nil
}

// GetManager returns the underlying database manager.
func (f *BaseDatabaseFactory) GetManager() AbstractDatabaseManager {
	return f.manager
}

// GetDB returns the Bun database instance, or nil if not initialized.
func (f *BaseDatabaseFactory) GetDB() *bun.DB {
	if f.manager == nil {
		return nil
	}
	return f.manager.GetDB()
}

// SetLogger sets the logger on the factory and the underlying manager.
func (f *BaseDatabaseFactory) SetLogger(logger Logger) {
	if logger == nil {
		logger = NopLogger{}
	}
	f.logger = logger
	if f.manager != nil {
		f.manager.SetLogger(logger)
	}
}

// Close closes the database connection managed by the factory.
func (f *BaseDatabaseFactory) Close() error {
	if f.manager == nil {
		return nil
	}
	return f.manager.Disconnect()
}

// GetHealthStatus returns the current database health status from the manager.
func (f *BaseDatabaseFactory) GetHealthStatus(ctx context.Context) *HealthStatus {
	if f.manager == nil {
		return &HealthStatus{
			Healthy:       false,
			Connected:     false,
			LastError:     "Database manager not initialized",
			LastCheckTime: time.Now(),
		}
	}
	return f.manager.HealthCheck(ctx)
}

// GetStats returns database connection statistics from the manager.
func (f *BaseDatabaseFactory) GetStats() *DBStats {
	if f.manager == nil {
		return &DBStats{}
	}
	return f.manager.GetStats()
}
