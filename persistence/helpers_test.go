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

package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tomoncle/productsvc/domain"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type widget struct {
	bun.BaseModel `bun:"table:widgets,alias:w"`
	domain.UserAuditBase[int64]
	Name string `bun:"name,notnull"`
	Qty  int    `bun:"qty"`
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)}
}

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	sqldb, err := sql.Open(sqliteshim.ShimName, fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.NewCreateTable().Model((*widget)(nil)).Exec(context.Background())
	require.NoError(t, err)
	return db
}

func newTestSession(t *testing.T, db *bun.DB, clock *fakeClock, opts ...SessionOption) (*Session, UnitOfWork) {
	t.Helper()
	opts = append([]SessionOption{WithAuditClock(clock.Now)}, opts...)
	session, err := NewSession(db, opts...)
	require.NoError(t, err)
	uow, err := NewUnitOfWork(session)
	require.NoError(t, err)
	t.Cleanup(func() { _ = uow.Close() })
	return session, uow
}

func track(t *testing.T, s *Session, w *widget, state EntityState) *Entry {
	t.Helper()
	e, err := s.Tracker().Track(s.Table(w), w.ID, w, state)
	require.NoError(t, err)
	return e
}

func insertWidget(t *testing.T, db *bun.DB, clock *fakeClock, id int64, name string) {
	t.Helper()
	s, uow := newTestSession(t, db, clock)
	track(t, s, newWidget(id, name), Added)
	rows, err := uow.Commit(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, rows)
}

func loadWidget(t *testing.T, db bun.IDB, id int64) *widget {
	t.Helper()
	w := new(widget)
	err := db.NewSelect().Model(w).Where("? = ?", bun.Ident("id"), id).Scan(context.Background())
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	require.NoError(t, err)
	return w
}

func countWidgets(t *testing.T, db bun.IDB) int {
	t.Helper()
	n, err := db.NewSelect().Model((*widget)(nil)).Count(context.Background())
	require.NoError(t, err)
	return n
}

func newWidget(id int64, name string) *widget {
	w := &widget{Name: name, Qty: 1}
	w.ID = id
	return w
}
