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
	"fmt"
	"reflect"

	"github.com/tomoncle/productsvc/domain"
	"github.com/tomoncle/productsvc/idgen"
	"github.com/tomoncle/productsvc/persistence"
	"github.com/tomoncle/productsvc/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

type baseRepositoryImpl[T domain.Identifiable[K], K comparable] struct {
	session    *persistence.Session
	uow        persistence.UnitOfWork
	table      *schema.Table
	entityType reflect.Type
	keyGen     idgen.Generator[K]
}

// NewRepository returns a generic repository over the session. T must be a
// pointer to a Bun model with a single primary key column.
func NewRepository[T domain.Identifiable[K], K comparable](session *persistence.Session, uow persistence.UnitOfWork, opts ...Option[K]) (Repository[T, K], error) {
	if session == nil {
		return nil, ErrNilSession
	}
	if isNil(uow) {
		return nil, ErrNilUnitOfWork
	}
	entityType := reflect.TypeOf((*T)(nil)).Elem()
	if entityType.Kind() != reflect.Pointer || entityType.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntity, entityType)
	}
	table := session.Table(entityType)
	if len(table.PKs) != 1 {
		return nil, fmt.Errorf("%w: %s has %d primary keys", ErrInvalidEntity, table.Name, len(table.PKs))
	}
	o := &options[K]{}
	for _, opt := range opts {
		opt(o)
	}
	return &baseRepositoryImpl[T, K]{
		session:    session,
		uow:        uow,
		table:      table,
		entityType: entityType,
		keyGen:     o.keyGen,
	}, nil
}

func (r *baseRepositoryImpl[T, K]) Session() *persistence.Session { return r.session }

func (r *baseRepositoryImpl[T, K]) Dialect() schema.Dialect { return r.session.DB().Dialect() }

// NewSelect returns a select builder bound to the active transaction, if any.
func (r *baseRepositoryImpl[T, K]) NewSelect() *bun.SelectQuery { return r.session.Conn().NewSelect() }

func (r *baseRepositoryImpl[T, K]) tracker() *persistence.ChangeTracker { return r.session.Tracker() }

func (r *baseRepositoryImpl[T, K]) pkColumn() string { return r.table.PKs[0].Name }

func (r *baseRepositoryImpl[T, K]) FindAll(trackChanges bool, includes ...string) *Query[T, K] {
	q := &Query[T, K]{repo: r, tracking: trackChanges}
	return q.Include(includes...)
}

func (r *baseRepositoryImpl[T, K]) FindByCondition(filter *types.QueryFilter, trackChanges bool, includes ...string) *Query[T, K] {
	return r.FindAll(trackChanges, includes...).Where(filter)
}

func (r *baseRepositoryImpl[T, K]) GetByID(ctx context.Context, id K, includes ...string) (T, error) {
	return r.FindByCondition(types.Eq(r.pkColumn(), id), false, includes...).FirstOrDefault(ctx)
}

// attach returns the tracked instance for entity's key, tracking entity as
// Unchanged when the key is new to the session.
func (r *baseRepositoryImpl[T, K]) attach(entity T) (T, error) {
	key := entity.GetID()
	if e, ok := r.tracker().Lookup(r.entityType, key); ok {
		return e.Entity().(T), nil
	}
	if _, err := r.tracker().Track(r.table, key, entity, persistence.Unchanged); err != nil {
		var zero T
		return zero, err
	}
	return entity, nil
}

func (r *baseRepositoryImpl[T, K]) Create(entity T) (K, error) {
	var zero K
	if isNil(entity) {
		return zero, ErrNilEntity
	}
	if _, ok := r.tracker().EntryOf(entity); ok {
		return zero, fmt.Errorf("%w: %v", persistence.ErrAlreadyTracked, entity.GetID())
	}
	if entity.GetID() == zero {
		if r.keyGen == nil {
			return zero, ErrKeyRequired
		}
		key, err := r.keyGen.NextID()
		if err != nil {
			return zero, fmt.Errorf("repository: generate key: %w", err)
		}
		entity.SetID(key)
	}
	if _, err := r.tracker().Track(r.table, entity.GetID(), entity, persistence.Added); err != nil {
		return zero, err
	}
	return entity.GetID(), nil
}

// CreateMany stages every entity or none of them.
func (r *baseRepositoryImpl[T, K]) CreateMany(entities ...T) ([]K, error) {
	keys := make([]K, 0, len(entities))
	for i, entity := range entities {
		key, err := r.Create(entity)
		if err != nil {
			for _, staged := range entities[:i] {
				if e, ok := r.tracker().EntryOf(staged); ok {
					r.tracker().Detach(e)
				}
			}
			return nil, fmt.Errorf("repository: create entity %d: %w", i, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// Update stages entity's current values. A tracked instance needs nothing:
// its changes are found at commit. Otherwise the stored row is loaded into
// the session and the incoming non-key, non-audit columns are merged into it.
// Values identical to the stored ones produce no write.
func (r *baseRepositoryImpl[T, K]) Update(ctx context.Context, entity T) error {
	if isNil(entity) {
		return ErrNilEntity
	}
	if e, ok := r.tracker().EntryOf(entity); ok {
		if e.State() == persistence.Deleted {
			return ErrEntityDeleted
		}
		return nil
	}
	key := entity.GetID()
	current, err := r.findTracked(ctx, key)
	if err != nil {
		return err
	}
	if isNil(current) {
		return fmt.Errorf("%w: %s %v", ErrNotFound, r.table.Name, key)
	}
	if e, ok := r.tracker().EntryOf(current); ok && e.State() == persistence.Deleted {
		return ErrEntityDeleted
	}
	r.merge(current, entity)
	return nil
}

func (r *baseRepositoryImpl[T, K]) UpdateMany(ctx context.Context, entities ...T) error {
	for i, entity := range entities {
		if err := r.Update(ctx, entity); err != nil {
			return fmt.Errorf("repository: update entity %d: %w", i, err)
		}
	}
	return nil
}

func (r *baseRepositoryImpl[T, K]) findTracked(ctx context.Context, key K) (T, error) {
	if e, ok := r.tracker().Lookup(r.entityType, key); ok {
		return e.Entity().(T), nil
	}
	return r.FindByCondition(types.Eq(r.pkColumn(), key), true).FirstOrDefault(ctx)
}

// merge copies src's column values into dst, keeping dst's key and audit fields.
func (r *baseRepositoryImpl[T, K]) merge(dst, src T) {
	restore := preserveAudit(dst)
	dv := reflect.ValueOf(dst).Elem()
	sv := reflect.ValueOf(src).Elem()
	for _, f := range r.table.Fields {
		if f.IsPK {
			continue
		}
		dv.FieldByIndex(f.Index).Set(sv.FieldByIndex(f.Index))
	}
	restore()
}

func preserveAudit(entity any) func() {
	var restores []func()
	if dt, ok := entity.(domain.DateTracked); ok {
		created, modified := dt.GetCreatedDate(), dt.GetLastModifiedDate()
		restores = append(restores, func() {
			dt.SetCreatedDate(created)
			dt.SetLastModifiedDate(modified)
		})
	}
	if ut, ok := entity.(domain.UserTracked); ok {
		createdBy, modifiedBy := ut.GetCreatedBy(), ut.GetLastModifiedBy()
		restores = append(restores, func() {
			ut.SetCreatedBy(createdBy)
			ut.SetLastModifiedBy(modifiedBy)
		})
	}
	return func() {
		for _, fn := range restores {
			fn()
		}
	}
}

// Delete stages a delete. An entity staged for insert is simply dropped.
func (r *baseRepositoryImpl[T, K]) Delete(entity T) error {
	if isNil(entity) {
		return ErrNilEntity
	}
	e, ok := r.tracker().EntryOf(entity)
	if !ok {
		e, ok = r.tracker().Lookup(r.entityType, entity.GetID())
	}
	if !ok {
		_, err := r.tracker().Track(r.table, entity.GetID(), entity, persistence.Deleted)
		return err
	}
	if e.State() == persistence.Added {
		r.tracker().Detach(e)
		return nil
	}
	r.tracker().SetState(e, persistence.Deleted)
	return nil
}

func (r *baseRepositoryImpl[T, K]) DeleteMany(entities ...T) error {
	for i, entity := range entities {
		if err := r.Delete(entity); err != nil {
			return fmt.Errorf("repository: delete entity %d: %w", i, err)
		}
	}
	return nil
}

func (r *baseRepositoryImpl[T, K]) SaveChanges(ctx context.Context) (int64, error) {
	return r.uow.Commit(ctx)
}

func (r *baseRepositoryImpl[T, K]) BeginTransaction(ctx context.Context) (*persistence.Transaction, error) {
	return r.session.Begin(ctx, nil)
}

// EndTransaction saves pending changes and commits. When saving fails the
// transaction stays open so the caller can roll it back.
func (r *baseRepositoryImpl[T, K]) EndTransaction(ctx context.Context) error {
	if !r.session.InTransaction() {
		return persistence.ErrNoTransaction
	}
	if _, err := r.SaveChanges(ctx); err != nil {
		return err
	}
	return r.session.CommitTransaction()
}

func (r *baseRepositoryImpl[T, K]) RollbackTransaction() error {
	return r.session.RollbackTransaction()
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
