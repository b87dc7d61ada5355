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

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tomoncle/productsvc/domain"
	"github.com/tomoncle/productsvc/idgen"
	"github.com/tomoncle/productsvc/persistence"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type author struct {
	bun.BaseModel `bun:"table:authors,alias:a"`
	domain.EntityAuditBase[int64]
	Name    string  `bun:"name,notnull"`
	Country string  `bun:"country"`
	Books   []*book `bun:"rel:has-many,join:id=author_id"`
}

type book struct {
	bun.BaseModel `bun:"table:books,alias:b"`
	domain.EntityBase[string]
	AuthorID int64   `bun:"author_id,notnull"`
	Title    string  `bun:"title"`
	Author   *author `bun:"rel:belongs-to,join:author_id=id"`
}

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time { return c.now }

func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fixture struct {
	db      *bun.DB
	clock   *clock
	session *persistence.Session
	uow     persistence.UnitOfWork
	authors Repository[*author, int64]
	books   Repository[*book, string]
}

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	sqldb, err := sql.Open(sqliteshim.ShimName, fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	for _, model := range []interface{}{(*author)(nil), (*book)(nil)} {
		_, err = db.NewCreateTable().Model(model).Exec(ctx)
		require.NoError(t, err)
	}
	return db
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{db: newTestDB(t), clock: &clock{now: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)}}
	f.reopen(t)
	return f
}

// reopen starts a fresh session, as a new request would.
func (f *fixture) reopen(t *testing.T) {
	t.Helper()
	session, err := persistence.NewSession(f.db, persistence.WithAuditClock(f.clock.Now))
	require.NoError(t, err)
	uow, err := persistence.NewUnitOfWork(session)
	require.NoError(t, err)
	t.Cleanup(func() { _ = uow.Close() })

	f.session, f.uow = session, uow
	f.authors, err = NewRepository[*author, int64](session, uow)
	require.NoError(t, err)
	f.books, err = NewRepository[*book, string](session, uow, WithKeyGenerator[string](idgen.UUIDString{}))
	require.NoError(t, err)
}

func newAuthor(id int64, name string) *author {
	a := &author{Name: name, Country: "UK"}
	a.ID = id
	return a
}

func (f *fixture) seedAuthors(t *testing.T, authors ...*author) {
	t.Helper()
	_, err := f.authors.CreateMany(authors...)
	require.NoError(t, err)
	_, err = f.authors.SaveChanges(context.Background())
	require.NoError(t, err)
	f.reopen(t)
}
