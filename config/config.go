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

// Package config loads the service configuration from a YAML file and
// PRODUCTSVC_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"github.com/tomoncle/productsvc/database"
)

const envPrefix = "PRODUCTSVC"

type Config struct {
	Logging  LoggingConfig   `mapstructure:"logging"`
	Database database.Config `mapstructure:"database"`
	IDGen    IDGenConfig     `mapstructure:"idgen"`
	Metrics  MetricsConfig   `mapstructure:"metrics"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // trace, debug, info, warn, error
	Format string `mapstructure:"format"` // text or json
}

// IDGenConfig places this process in the snowflake id space.
type IDGenConfig struct {
	DatacenterID int64 `mapstructure:"datacenter_id"`
	WorkerID     int64 `mapstructure:"worker_id"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Load reads path (optional; an empty path or a missing file falls back to
// defaults) and applies PRODUCTSVC_ environment overrides, e.g.
// PRODUCTSVC_DATABASE_CONNECTION_TYPE.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config: read %s: %w", path, err)
			}
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	err := v.Unmarshal(&cfg, func(c *mapstructure.DecoderConfig) {
		c.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		)
	})
	if err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	conn := database.DefaultConnectionConfig()

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("database.connection.type", conn.Type)
	v.SetDefault("database.connection.driver", "pq")
	v.SetDefault("database.connection.host", "localhost")
	v.SetDefault("database.connection.port", 0)
	v.SetDefault("database.connection.username", "")
	v.SetDefault("database.connection.password", "")
	v.SetDefault("database.connection.dbname", conn.DBName)
	v.SetDefault("database.connection.sslmode", "disable")
	v.SetDefault("database.connection.max_idle_conns", conn.MaxIdleConns)
	v.SetDefault("database.connection.max_open_conns", conn.MaxOpenConns)
	v.SetDefault("database.connection.conn_max_lifetime", conn.ConnMaxLifetime)
	v.SetDefault("database.connection.conn_max_idle_time", conn.ConnMaxIdleTime)
	v.SetDefault("database.connection.connect_timeout", conn.ConnectTimeout)
	v.SetDefault("database.connection.read_timeout", conn.ReadTimeout)
	v.SetDefault("database.connection.write_timeout", conn.WriteTimeout)
	v.SetDefault("database.connection.enable_reconnect", conn.EnableReconnect)
	v.SetDefault("database.connection.reconnect_interval", conn.ReconnectInterval)
	v.SetDefault("database.connection.max_reconnect_tries", conn.MaxReconnectTries)
	v.SetDefault("database.connection.health_check_interval", conn.HealthCheckInterval)
	v.SetDefault("database.connection.enable_query_log", conn.EnableQueryLog)
	v.SetDefault("database.connection.slow_query_time", conn.SlowQueryTime)

	v.SetDefault("database.migrate.enable_migrate_on_startup", true)
	v.SetDefault("database.seed.auto_init_on_startup", true)
	v.SetDefault("database.seed.filepath", "")

	v.SetDefault("idgen.datacenter_id", 1)
	v.SetDefault("idgen.worker_id", 1)

	v.SetDefault("metrics.enabled", true)
}

// Validate rejects values no component can work with.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("config: logging.format must be text or json, got %q", c.Logging.Format)
	}
	conn := c.Database.ConnectionConfig
	switch conn.Type {
	case "sqlite", "mysql", "postgres":
	default:
		return fmt.Errorf("config: database.connection.type must be one of sqlite, mysql, postgres, got %q", conn.Type)
	}
	if conn.MaxOpenConns < 0 || conn.MaxIdleConns < 0 {
		return errors.New("config: connection pool sizes must not be negative")
	}
	if conn.SlowQueryTime < 0 || conn.ConnMaxLifetime < 0 {
		return errors.New("config: durations must not be negative")
	}
	if c.IDGen.DatacenterID < 0 || c.IDGen.WorkerID < 0 {
		return errors.New("config: idgen ids must not be negative")
	}
	return nil
}

// DatabaseConfig returns a copy of the database section for database.Open.
func (c *Config) DatabaseConfig() *database.Config {
	cfg := c.Database
	return &cfg
}

// SeedTimeout bounds startup seeding.
func (c *Config) SeedTimeout() time.Duration {
	return c.Database.ConnectionConfig.WriteTimeout
}
