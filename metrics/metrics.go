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

// Package metrics exposes unit-of-work commit and connection pool metrics to
// Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/tomoncle/productsvc/database"
)

const namespace = "productsvc"

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Collector records commit outcomes. It satisfies persistence.CommitObserver.
type Collector struct {
	Commits        *prometheus.CounterVec // commits by status
	RowsAffected   prometheus.Counter     // rows written by successful commits
	CommitDuration prometheus.Histogram   // commit latency in seconds
	SeededProducts prometheus.Counter     // products inserted by startup seeding
}

// NewCollector registers the commit metrics with reg, or with the default
// registerer when reg is nil.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Collector{
		Commits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "uow_commits_total",
				Help:      "Total number of unit of work commits by status",
			},
			[]string{"status"},
		),
		RowsAffected: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "uow_rows_affected_total",
				Help:      "Total number of rows written by successful commits",
			},
		),
		CommitDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "uow_commit_duration_seconds",
				Help:      "Unit of work commit latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
		SeededProducts: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "catalog_seeded_products_total",
				Help:      "Total number of products inserted by seeding",
			},
		),
	}
}

func (c *Collector) ObserveCommit(elapsed time.Duration, rows int64, err error) {
	c.CommitDuration.Observe(elapsed.Seconds())
	if err != nil {
		c.Commits.WithLabelValues(StatusFailure).Inc()
		return
	}
	c.Commits.WithLabelValues(StatusSuccess).Inc()
	if rows > 0 {
		c.RowsAffected.Add(float64(rows))
	}
}

func (c *Collector) RecordSeeded(n int) {
	if n > 0 {
		c.SeededProducts.Add(float64(n))
	}
}

// PoolCollector reports the connection pool of a database manager on every
// scrape.
type PoolCollector struct {
	manager database.AbstractDatabaseManager

	maxOpen  *prometheus.Desc
	open     *prometheus.Desc
	inUse    *prometheus.Desc
	idle     *prometheus.Desc
	waitCnt  *prometheus.Desc
	waitSecs *prometheus.Desc
	healthy  *prometheus.Desc
}

func NewPoolCollector(manager database.AbstractDatabaseManager) *PoolCollector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "db", name), help, nil, nil)
	}
	return &PoolCollector{
		manager:  manager,
		maxOpen:  desc("max_open_connections", "Maximum number of open connections"),
		open:     desc("open_connections", "Number of established connections"),
		inUse:    desc("in_use_connections", "Number of connections in use"),
		idle:     desc("idle_connections", "Number of idle connections"),
		waitCnt:  desc("wait_count_total", "Total number of connections waited for"),
		waitSecs: desc("wait_duration_seconds_total", "Total time blocked waiting for a connection"),
		healthy:  desc("up", "Whether the database connection is established"),
	}
}

func (p *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{p.maxOpen, p.open, p.inUse, p.idle, p.waitCnt, p.waitSecs, p.healthy} {
		ch <- d
	}
}

func (p *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	up := 0.0
	if p.manager.GetSQLDB() != nil {
		up = 1
	}
	ch <- prometheus.MustNewConstMetric(p.healthy, prometheus.GaugeValue, up)

	stats := p.manager.GetStats()
	ch <- prometheus.MustNewConstMetric(p.maxOpen, prometheus.GaugeValue, float64(stats.MaxOpenConns))
	ch <- prometheus.MustNewConstMetric(p.open, prometheus.GaugeValue, float64(stats.OpenConns))
	ch <- prometheus.MustNewConstMetric(p.inUse, prometheus.GaugeValue, float64(stats.InUse))
	ch <- prometheus.MustNewConstMetric(p.idle, prometheus.GaugeValue, float64(stats.Idle))
	ch <- prometheus.MustNewConstMetric(p.waitCnt, prometheus.CounterValue, float64(stats.WaitCount))
	ch <- prometheus.MustNewConstMetric(p.waitSecs, prometheus.CounterValue, stats.WaitDuration.Seconds())
}
