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

package metrics

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/productsvc/database"
	"github.com/tomoncle/productsvc/domain"
	"github.com/tomoncle/productsvc/persistence"
	"github.com/tomoncle/productsvc/repository"
	"github.com/uptrace/bun"
)

type note struct {
	bun.BaseModel `bun:"table:notes"`
	domain.EntityBase[int64]
	Text string `bun:"text"`
}

func connect(t *testing.T) database.AbstractDatabaseManager {
	t.Helper()
	cfg := database.DefaultConnectionConfig()
	cfg.DBName = "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	cfg.MaxOpenConns = 1
	cfg.HealthCheckInterval = 0
	cfg.EnableReconnect = false

	manager := database.NewDatabaseManager(cfg)
	require.NoError(t, manager.Connect(context.Background()))
	t.Cleanup(func() { _ = manager.Disconnect() })
	return manager
}

func TestObserveCommit(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.ObserveCommit(10*time.Millisecond, 3, nil)
	c.ObserveCommit(time.Millisecond, 0, nil)
	c.ObserveCommit(time.Millisecond, 0, errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(c.Commits.WithLabelValues(StatusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Commits.WithLabelValues(StatusFailure)))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.RowsAffected))
	assert.Equal(t, 1, testutil.CollectAndCount(c.CommitDuration))
}

func TestRecordSeeded(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())
	c.RecordSeeded(0)
	c.RecordSeeded(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(c.SeededProducts))
}

func TestCollectorObservesUnitOfWork(t *testing.T) {
	ctx := context.Background()
	db := connect(t).GetDB()
	_, err := db.NewCreateTable().Model((*note)(nil)).Exec(ctx)
	require.NoError(t, err)

	c := NewCollector(prometheus.NewRegistry())
	scope, err := persistence.NewFactory(db).WithUnitOfWorkOptions(persistence.WithObserver(c)).Open()
	require.NoError(t, err)
	defer scope.Close()

	notes, err := repository.NewRepository[*note, int64](scope.Session, scope.UnitOfWork)
	require.NoError(t, err)
	for i := int64(1); i <= 2; i++ {
		n := &note{Text: "hello"}
		n.ID = i
		_, err = notes.Create(n)
		require.NoError(t, err)
	}
	rows, err := notes.SaveChanges(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, rows)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.Commits.WithLabelValues(StatusSuccess)))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.RowsAffected))
}

func TestPoolCollector(t *testing.T) {
	manager := connect(t)
	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(NewPoolCollector(manager)))

	assert.Equal(t, 7, testutil.CollectAndCount(NewPoolCollector(manager)))

	expected := `
# HELP productsvc_db_max_open_connections Maximum number of open connections
# TYPE productsvc_db_max_open_connections gauge
productsvc_db_max_open_connections 1
# HELP productsvc_db_up Whether the database connection is established
# TYPE productsvc_db_up gauge
productsvc_db_up 1
`
	err := testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"productsvc_db_max_open_connections", "productsvc_db_up")
	assert.NoError(t, err)
}

func TestPoolCollectorDisconnected(t *testing.T) {
	manager := database.NewDatabaseManager(nil)
	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(NewPoolCollector(manager)))

	expected := `
# HELP productsvc_db_up Whether the database connection is established
# TYPE productsvc_db_up gauge
productsvc_db_up 0
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "productsvc_db_up"))
}
