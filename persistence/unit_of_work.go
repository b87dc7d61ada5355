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
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// UnitOfWork is the only path that makes staged changes durable.
type UnitOfWork interface {
	// Commit flushes Added, Modified and Deleted entries and returns the
	// number of affected rows.
	Commit(ctx context.Context) (int64, error)
	Session() *Session
	// Close releases the session.
	Close() error
}

// CommitObserver is notified after every commit attempt.
type CommitObserver interface {
	ObserveCommit(elapsed time.Duration, rows int64, err error)
}

type UnitOfWorkOption func(*unitOfWork)

func WithObserver(observer CommitObserver) UnitOfWorkOption {
	return func(u *unitOfWork) {
		u.observer = observer
	}
}

type unitOfWork struct {
	session  *Session
	observer CommitObserver
}

func NewUnitOfWork(session *Session, opts ...UnitOfWorkOption) (UnitOfWork, error) {
	if session == nil {
		return nil, ErrNilSession
	}
	u := &unitOfWork{session: session}
	for _, opt := range opts {
		opt(u)
	}
	return u, nil
}

func (u *unitOfWork) Session() *Session { return u.session }

func (u *unitOfWork) Close() error { return u.session.Close() }

func (u *unitOfWork) Commit(ctx context.Context) (rows int64, err error) {
	start := time.Now()
	defer func() {
		if u.observer != nil {
			u.observer.ObserveCommit(time.Since(start), rows, err)
		}
	}()

	s := u.session
	if s.closed {
		return 0, ErrSessionClosed
	}
	s.tracker.DetectChanges()
	pending := s.tracker.Entries(Added, Modified, Deleted)
	if len(pending) == 0 {
		return 0, nil
	}
	for _, interceptor := range s.interceptors {
		if err := interceptor.SavingChanges(ctx, pending); err != nil {
			return 0, fmt.Errorf("persistence: saving changes: %w", err)
		}
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	if s.tx != nil {
		rows, err = u.flush(ctx, s.tx.tx, pending)
	} else {
		err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			var flushErr error
			rows, flushErr = u.flush(ctx, tx, pending)
			return flushErr
		})
	}
	if err != nil {
		s.logger.Error("commit failed", "error", err, "pending", len(pending))
		return 0, err
	}

	for _, e := range pending {
		s.tracker.accept(e)
	}
	s.logger.Debug("commit finished", "entries", len(pending), "rows", rows, "elapsed", time.Since(start))
	return rows, nil
}

// flush writes inserts, then updates, then deletes.
func (u *unitOfWork) flush(ctx context.Context, db bun.IDB, pending []*Entry) (int64, error) {
	var total int64
	for _, state := range []EntityState{Added, Modified, Deleted} {
		for _, e := range pending {
			if e.state != state {
				continue
			}
			n, err := u.write(ctx, db, e)
			if err != nil {
				return 0, fmt.Errorf("persistence: %s %s %v: %w", state, e.table.Name, e.key, err)
			}
			total += n
		}
	}
	return total, nil
}

func (u *unitOfWork) write(ctx context.Context, db bun.IDB, e *Entry) (int64, error) {
	var (
		res sql.Result
		err error
	)
	switch e.state {
	case Added:
		res, err = db.NewInsert().Model(e.entity).Exec(ctx)
	case Modified:
		e.restoreKey()
		columns := e.ChangedColumns()
		if len(columns) == 0 {
			return 0, nil
		}
		res, err = db.NewUpdate().Model(e.entity).Column(columns...).WherePK().Exec(ctx)
	case Deleted:
		e.restoreKey()
		res, err = db.NewDelete().Model(e.entity).WherePK().Exec(ctx)
	default:
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
