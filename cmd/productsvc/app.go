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

package main

import (
	"context"
	"fmt"
	"io"

	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tomoncle/productsvc/catalog"
	"github.com/tomoncle/productsvc/config"
	"github.com/tomoncle/productsvc/database"
	"github.com/tomoncle/productsvc/domain"
	"github.com/tomoncle/productsvc/idgen"
	"github.com/tomoncle/productsvc/metrics"
	"github.com/tomoncle/productsvc/persistence"
	"github.com/tomoncle/productsvc/repository"
	"github.com/tomoncle/productsvc/utils"
)

const systemActor = "system"

type app struct {
	cfg       *config.Config
	logger    database.Logger
	db        *database.BaseDatabaseFactory
	catalog   catalog.Service
	collector *metrics.Collector
	registry  *prometheus.Registry
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	opts, err := parseFlags(args, stdout)
	if err != nil {
		return err
	}
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	utils.ConfigureLogLevel(cfg.Logging.Level)
	utils.ConfigureLogFormat(cfg.Logging.Format)

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.Database.DataInitConfig.AutoInitOnStartup {
		if _, err := a.seed(ctx); err != nil {
			return err
		}
	}
	if opts.list {
		return a.printCatalog(ctx, stdout)
	}
	return nil
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	logger := database.NewDefaultLogger("productsvc")
	ids, err := idgen.NewSnowflake(cfg.IDGen.DatacenterID, cfg.IDGen.WorkerID)
	if err != nil {
		return nil, fmt.Errorf("id generator: %w", err)
	}

	db, err := database.Open(ctx, cfg.DatabaseConfig(), database.NewModelRegistry(catalog.Models()...),
		database.WithFields(logger, "component", "database"))
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, db: db}
	scopes := persistence.NewFactory(db.GetDB()).
		WithSessionOptions(persistence.WithLogger(database.WithFields(logger, "component", "persistence")))
	if cfg.Metrics.Enabled {
		a.registry = prometheus.NewRegistry()
		a.collector = metrics.NewCollector(a.registry)
		a.registry.MustRegister(metrics.NewPoolCollector(db.GetManager()))
		scopes.WithUnitOfWorkOptions(persistence.WithObserver(a.collector))
	}
	a.catalog = catalog.NewService(scopes, database.WithFields(logger, "component", "catalog"), repository.WithKeyGenerator[int64](ids))
	return a, nil
}

func (a *app) Close() error {
	a.logMetrics()
	return a.db.Close()
}

// logMetrics writes the gathered counters and gauges at debug level.
func (a *app) logMetrics() {
	if a.registry == nil {
		return
	}
	families, err := a.registry.Gather()
	if err != nil {
		a.logger.Warn("Failed to gather metrics", "error", err)
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				a.logger.Debug("metric", "name", mf.GetName(), "value", m.GetCounter().GetValue())
			case m.GetGauge() != nil:
				a.logger.Debug("metric", "name", mf.GetName(), "value", m.GetGauge().GetValue())
			case m.GetHistogram() != nil:
				a.logger.Debug("metric", "name", mf.GetName(), "count", m.GetHistogram().GetSampleCount())
			}
		}
	}
}

func (a *app) seed(ctx context.Context) (int, error) {
	products := catalog.DefaultSeedProducts()
	if path := a.cfg.Database.DataInitConfig.Filepath; path != "" {
		var err error
		if products, err = catalog.LoadSeedFile(path); err != nil {
			return 0, err
		}
	}

	if timeout := a.cfg.SeedTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	n, err := a.catalog.Seed(domain.WithActor(ctx, systemActor), products)
	if err != nil {
		return 0, fmt.Errorf("seed catalog: %w", err)
	}
	if a.collector != nil {
		a.collector.RecordSeeded(n)
	}
	return n, nil
}

func (a *app) printCatalog(ctx context.Context, w io.Writer) error {
	dtos, err := a.catalog.All(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(dtos)
}
