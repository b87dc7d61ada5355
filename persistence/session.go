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
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/tomoncle/productsvc/database"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

// Session owns the change tracker and the optional explicit transaction of
// one logical operation. It is not safe for concurrent use.
type Session struct {
	db           *bun.DB
	tracker      *ChangeTracker
	audit        *AuditInterceptor
	interceptors []Interceptor
	logger       database.Logger
	tx           *Transaction
	closed       bool
}

type SessionOption func(*Session)

func WithLogger(logger database.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithInterceptors appends interceptors run after the audit interceptor.
func WithInterceptors(interceptors ...Interceptor) SessionOption {
	return func(s *Session) {
		s.interceptors = append(s.interceptors, interceptors...)
	}
}

// WithAuditClock sets the time source of the audit interceptor.
func WithAuditClock(clock func() time.Time) SessionOption {
	return func(s *Session) {
		s.audit.clock = clock
	}
}

func NewSession(db *bun.DB, opts ...SessionOption) (*Session, error) {
	if db == nil {
		return nil, ErrNilDB
	}
	audit := NewAuditInterceptor(nil)
	s := &Session{
		db:           db,
		tracker:      newChangeTracker(),
		audit:        audit,
		interceptors: []Interceptor{audit},
		logger:       database.NopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Session) DB() *bun.DB { return s.db }

// Conn returns the active transaction, or the database when none is open.
func (s *Session) Conn() bun.IDB {
	if s.tx != nil {
		return s.tx.tx
	}
	return s.db
}

func (s *Session) Tracker() *ChangeTracker { return s.tracker }

func (s *Session) Logger() database.Logger { return s.logger }

func (s *Session) Interceptors() []Interceptor { return s.interceptors }

// Table returns the bun table metadata for an entity pointer or its type.
func (s *Session) Table(entity any) *schema.Table {
	typ, ok := entity.(reflect.Type)
	if !ok {
		typ = reflect.TypeOf(entity)
	}
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	return s.db.Table(typ)
}

func (s *Session) Closed() bool { return s.closed }

// Begin opens the explicit transaction. At most one may be active.
func (s *Session) Begin(ctx context.Context, opts *sql.TxOptions) (*Transaction, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	if s.tx != nil {
		return nil, ErrTransactionActive
	}
	tx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("persistence: begin transaction: %w", err)
	}
	s.tx = &Transaction{id: uuid.NewString(), tx: tx, session: s, startedAt: time.Now()}
	s.logger.Debug("transaction started", "tx", s.tx.id)
	return s.tx, nil
}

// Transaction returns the active transaction or nil.
func (s *Session) Transaction() *Transaction { return s.tx }

func (s *Session) InTransaction() bool { return s.tx != nil }

// CommitTransaction commits the active transaction without flushing.
func (s *Session) CommitTransaction() error {
	if s.tx == nil {
		return ErrNoTransaction
	}
	return s.tx.Commit()
}

// RollbackTransaction rolls back the active transaction and detaches every
// tracked entity, so staged and flushed changes of the transaction are dropped.
func (s *Session) RollbackTransaction() error {
	if s.tx == nil {
		return ErrNoTransaction
	}
	return s.tx.Rollback()
}

// Close rolls back any open transaction and clears the tracker.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	var err error
	if s.tx != nil {
		err = s.tx.Rollback()
	}
	s.tracker.Clear()
	s.closed = true
	return err
}
