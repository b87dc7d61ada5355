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
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
	"github.com/uptrace/bun/schema"
)

const (
	mysqlDefaultPort    = 3306
	postgresDefaultPort = 5432
)

// backend knows how to open one database type.
type backend struct {
	driver  func(cfg *ConnectionConfig) (string, error)
	dsn     func(cfg *ConnectionConfig) string
	dialect func() schema.Dialect
}

var backends = map[string]backend{
	"mysql": {
		driver:  fixedDriver("mysql"),
		dsn:     mysqlDSN,
		dialect: func() schema.Dialect { return mysqldialect.New() },
	},
	"postgres": {
		driver:  postgresDriver,
		dsn:     postgresDSN,
		dialect: func() schema.Dialect { return pgdialect.New() },
	},
	"sqlite": {
		driver:  fixedDriver(sqliteshim.ShimName),
		dsn:     func(cfg *ConnectionConfig) string { return sqliteDSN(cfg.DBName) },
		dialect: func() schema.Dialect { return sqlitedialect.New() },
	},
}

var backendAliases = map[string]string{
	"postgresql": "postgres",
	"sqlite3":    "sqlite",
}

// SupportedTypes lists the canonical database types, sorted.
func SupportedTypes() []string {
	types := make([]string, 0, len(backends))
	for name := range backends {
		types = append(types, name)
	}
	sort.Strings(types)
	return types
}

// lookupBackend resolves typ, accepting aliases and any letter case, and
// returns the canonical type name.
func lookupBackend(typ string) (string, backend, error) {
	name := strings.ToLower(strings.TrimSpace(typ))
	if alias, ok := backendAliases[name]; ok {
		name = alias
	}
	b, ok := backends[name]
	if !ok {
		return "", backend{}, fmt.Errorf("unsupported database type: %s, supported types: %v", typ, SupportedTypes())
	}
	return name, b, nil
}

func fixedDriver(name string) func(*ConnectionConfig) (string, error) {
	return func(*ConnectionConfig) (string, error) { return name, nil }
}

func postgresDriver(cfg *ConnectionConfig) (string, error) {
	switch cfg.Driver {
	case "", "pq":
		return "postgres", nil
	case "pgx":
		return "pgx", nil
	default:
		return "", fmt.Errorf("unsupported postgres driver: %s", cfg.Driver)
	}
}

func hostPort(cfg *ConnectionConfig, defaultPort int) string {
	port := cfg.Port
	if port <= 0 {
		port = defaultPort
	}
	return net.JoinHostPort(cfg.Host, strconv.Itoa(port))
}

func mysqlDSN(cfg *ConnectionConfig) string {
	c := mysql.NewConfig()
	c.User = cfg.Username
	c.Passwd = cfg.Password
	c.Net = "tcp"
	c.Addr = hostPort(cfg, mysqlDefaultPort)
	c.DBName = cfg.DBName
	c.ParseTime = true
	c.Loc = time.UTC
	c.Timeout = cfg.ConnectTimeout
	c.ReadTimeout = cfg.ReadTimeout
	c.WriteTimeout = cfg.WriteTimeout
	c.Params = map[string]string{"charset": "utf8mb4"}
	return c.FormatDSN()
}

// postgresDSN builds a URL accepted by both lib/pq and pgx. Credentials are
// escaped.
func postgresDSN(cfg *ConnectionConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	query := url.Values{}
	query.Set("sslmode", sslMode)
	query.Set("connect_timeout", strconv.Itoa(int(cfg.ConnectTimeout.Seconds())))

	u := &url.URL{
		Scheme:   "postgres",
		Host:     hostPort(cfg, postgresDefaultPort),
		Path:     "/" + cfg.DBName,
		RawQuery: query.Encode(),
	}
	if cfg.Username != "" {
		u.User = url.UserPassword(cfg.Username, cfg.Password)
	}
	return u.String()
}

// sqliteDSN maps DBName to a sqlite data source: ":memory:" is a shared
// in-memory database, "file:" URIs pass through, anything else is a file
// path that gets a ".db" suffix when it has no extension.
func sqliteDSN(name string) string {
	switch {
	case name == "" || name == ":memory:":
		return "file::memory:?cache=shared"
	case strings.HasPrefix(name, "file:"):
		return name
	case strings.Contains(name[strings.LastIndex(name, "/")+1:], "."):
		return name
	default:
		return name + ".db"
	}
}

type defaultDatabaseManager struct {
	config         *ConnectionConfig
	db             *bun.DB
	sqlDB          *sql.DB
	logger         Logger
	mu             sync.RWMutex
	connected      bool
	lastError      error
	healthStatus   *HealthStatus
	reconnectTries int
	stopHealth     context.CancelFunc
}

// NewDatabaseManager returns an AbstractDatabaseManager backed by Bun.
// If config is nil, a sensible default configuration is used.
func NewDatabaseManager(config *ConnectionConfig) AbstractDatabaseManager {
	if config == nil {
		config = DefaultConnectionConfig()
	}
	return &defaultDatabaseManager{
		config:       config,
		logger:       NopLogger{},
		healthStatus: &HealthStatus{},
	}
}

func (dm *defaultDatabaseManager) Connect(ctx context.Context) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if dm.connected && dm.db != nil {
		return nil
	}

	sqlDB, db, err := dm.open()
	if err != nil {
		dm.lastError = err
		return fmt.Errorf("failed to create database connection: %w", err)
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, dm.config.ConnectTimeout)
	defer cancel()

	if err := db.PingContext(ctxTimeout); err != nil {
		_ = db.Close()
		dm.lastError = err
		return fmt.Errorf("database connection test failed: %w", err)
	}

	dm.sqlDB, dm.db = sqlDB, db
	dm.connected = true
	dm.lastError = nil
	dm.reconnectTries = 0

	if dm.config.HealthCheckInterval > 0 {
		dm.startHealthCheck()
	}

	dm.logger.Info("Database connected", "type", dm.config.Type, "driver", dm.config.Driver, "host", dm.config.Host, "dbname", dm.config.DBName)
	return nil
}

// open creates the pool for the configured backend and installs the query
// hooks. It does not touch the network.
func (dm *defaultDatabaseManager) open() (*sql.DB, *bun.DB, error) {
	if dm.config.ConnectTimeout <= 0 {
		dm.config.ConnectTimeout = 30 * time.Second
	}

	_, b, err := lookupBackend(dm.config.Type)
	if err != nil {
		return nil, nil, err
	}
	driver, err := b.driver(dm.config)
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := sql.Open(driver, b.dsn(dm.config))
	if err != nil {
		return nil, nil, err
	}

	sqlDB.SetMaxIdleConns(dm.config.MaxIdleConns)
	sqlDB.SetMaxOpenConns(dm.config.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(dm.config.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(dm.config.ConnMaxIdleTime)

	db := bun.NewDB(sqlDB, b.dialect())
	db.AddQueryHook(bundebug.NewQueryHook(
		bundebug.WithEnabled(false),
		bundebug.FromEnv("BUNDEBUG"),
	))
	if dm.config.EnableQueryLog {
		db.AddQueryHook(NewQueryHook(os.Stdout, false))
	}
	if dm.config.SlowQueryTime > 0 {
		db.AddQueryHook(NewSlowQueryHook(dm.config.SlowQueryTime, dm.logger))
	}
	return sqlDB, db, nil
}

func (dm *defaultDatabaseManager) Disconnect() error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if dm.stopHealth != nil {
		dm.stopHealth()
		dm.stopHealth = nil
	}
	if dm.db == nil {
		return nil
	}

	err := dm.db.Close()
	dm.db = nil
	dm.sqlDB = nil
	dm.connected = false

	if err != nil {
		dm.logger.Error("Failed to close database connection", "error", err)
	} else {
		dm.logger.Info("Database connection closed")
	}
	return err
}

func (dm *defaultDatabaseManager) Reconnect(ctx context.Context) error {
	dm.logger.Info("Attempting to reconnect to the database")

	if err := dm.Disconnect(); err != nil {
		dm.logger.Warn("Error disconnecting existing connection", "error", err)
	}
	return dm.Connect(ctx)
}

func (dm *defaultDatabaseManager) Ping(ctx context.Context) error {
	db := dm.GetDB()
	if db == nil {
		return fmt.Errorf("database not connected")
	}
	return db.PingContext(ctx)
}

func (dm *defaultDatabaseManager) GetDB() *bun.DB {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.db
}

func (dm *defaultDatabaseManager) GetSQLDB() *sql.DB {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.sqlDB
}

func (dm *defaultDatabaseManager) HealthCheck(ctx context.Context) *HealthStatus {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	start := time.Now()
	status := &HealthStatus{
		LastCheckTime: start,
		Connected:     dm.connected,
	}

	if dm.db == nil {
		status.LastError = "Database not initialized"
		return status
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := dm.db.PingContext(ctxTimeout)
	status.ResponseTime = time.Since(start)
	status.Healthy = err == nil
	status.Connected = err == nil
	dm.lastError = err
	if err != nil {
		status.LastError = err.Error()
	}

	stats := newDBStats(dm.sqlDB.Stats())
	status.ActiveConns = stats.InUse
	status.IdleConns = stats.Idle
	status.MaxOpenConns = stats.MaxOpenConns

	dm.healthStatus = status
	return status
}

// startHealthCheck runs the periodic health check until Disconnect. Called
// with dm.mu held.
func (dm *defaultDatabaseManager) startHealthCheck() {
	ctx, cancel := context.WithCancel(context.Background())
	dm.stopHealth = cancel
	interval := dm.config.HealthCheckInterval

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				checkCtx, cancelCheck := context.WithTimeout(ctx, 10*time.Second)
				status := dm.HealthCheck(checkCtx)
				cancelCheck()
				if !status.Healthy && dm.config.EnableReconnect && ctx.Err() == nil {
					dm.handleReconnect(ctx)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// handleReconnect makes one reconnect attempt after ReconnectInterval. A
// successful Reconnect starts a new health loop and cancels the calling one.
func (dm *defaultDatabaseManager) handleReconnect(ctx context.Context) {
	dm.mu.Lock()
	if dm.reconnectTries >= dm.config.MaxReconnectTries {
		tries := dm.reconnectTries
		dm.mu.Unlock()
		dm.logger.Error("Max reconnect attempts reached, stopping", "tries", tries)
		return
	}
	dm.reconnectTries++
	try := dm.reconnectTries
	dm.mu.Unlock()

	dm.logger.Info("Starting database reconnect", "try", try)

	select {
	case <-time.After(dm.config.ReconnectInterval):
	case <-ctx.Done():
		return
	}

	connectCtx, cancel := context.WithTimeout(context.Background(), dm.config.ConnectTimeout)
	defer cancel()

	if err := dm.Reconnect(connectCtx); err != nil {
		dm.logger.Error("Reconnect failed", "error", err, "try", try)
		return
	}
	dm.logger.Info("Reconnect succeeded")
}

func newDBStats(stats sql.DBStats) *DBStats {
	return &DBStats{
		MaxOpenConns:      stats.MaxOpenConnections,
		OpenConns:         stats.OpenConnections,
		InUse:             stats.InUse,
		Idle:              stats.Idle,
		WaitCount:         stats.WaitCount,
		WaitDuration:      stats.WaitDuration,
		MaxIdleClosed:     stats.MaxIdleClosed,
		MaxIdleTimeClosed: stats.MaxIdleTimeClosed,
		MaxLifetimeClosed: stats.MaxLifetimeClosed,
	}
}

func (dm *defaultDatabaseManager) GetStats() *DBStats {
	sqlDB := dm.GetSQLDB()
	if sqlDB == nil {
		return &DBStats{}
	}
	return newDBStats(sqlDB.Stats())
}

// RunMigrations creates the registered models and their indexes.
func (dm *defaultDatabaseManager) RunMigrations(ctx context.Context, registry ModelRegistry) error {
	db := dm.GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}
	return NewMigrationManager(db, registry, dm.logger).RunMigrations(ctx)
}

func (dm *defaultDatabaseManager) SetLogger(logger Logger) {
	if logger == nil {
		logger = NopLogger{}
	}
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.logger = logger
}
