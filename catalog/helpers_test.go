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

package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tomoncle/productsvc/database"
	"github.com/tomoncle/productsvc/idgen"
	"github.com/tomoncle/productsvc/persistence"
	"github.com/tomoncle/productsvc/repository"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time { return c.now }

type catalogFixture struct {
	db    *bun.DB
	clock *clock
	ids   *idgen.Snowflake
}

func newCatalogFixture(t *testing.T) *catalogFixture {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	sqldb, err := sql.Open(sqliteshim.ShimName, fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	registry := database.NewModelRegistry(Models()...)
	require.NoError(t, database.NewMigrationManager(db, registry, nil).RunMigrations(context.Background()))

	ids, err := idgen.NewSnowflake(1, 1)
	require.NoError(t, err)
	return &catalogFixture{
		db:    db,
		clock: &clock{now: time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)},
		ids:   ids,
	}
}

// repo opens a new session, as one request would.
func (f *catalogFixture) repo(t *testing.T) *ProductRepository {
	t.Helper()
	session, err := persistence.NewSession(f.db, persistence.WithAuditClock(f.clock.Now))
	require.NoError(t, err)
	uow, err := persistence.NewUnitOfWork(session)
	require.NoError(t, err)
	t.Cleanup(func() { _ = uow.Close() })

	repo, err := NewProductRepository(session, uow, repository.WithKeyGenerator[int64](f.ids))
	require.NoError(t, err)
	return repo
}

func (f *catalogFixture) seed(t *testing.T) {
	t.Helper()
	n, err := SeedProducts(context.Background(), f.repo(t), DefaultSeedProducts(), nil)
	require.NoError(t, err)
	require.Equal(t, 3, n)
}

func (f *catalogFixture) service() Service {
	scopes := persistence.NewFactory(f.db).WithSessionOptions(persistence.WithAuditClock(f.clock.Now))
	return NewService(scopes, nil, repository.WithKeyGenerator[int64](f.ids))
}
